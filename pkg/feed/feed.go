// Package feed is the data-provider boundary of the scene.
//
// A [Feed] keeps the ordered, id-deduplicated list of retained items. When
// more than the retention cap arrive, the oldest items are dropped; the next
// layout pass then sees them missing and rebuilds the pool. Consumers wait on
// [Feed.Updates] and read [Feed.Items] afterwards, so a burst of arrivals
// coalesces into a single notification.
//
// Items reach a feed through a [Source]. [Feed.Run] connects a source,
// tracks the connectivity status, and reconnects network sources with
// exponential backoff.
package feed

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/queue"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/observability"
)

// DefaultRetention is the number of items a feed keeps.
const DefaultRetention = 750

// Source delivers items to a feed.
type Source interface {
	// Name identifies the source in logs, metrics and status.
	Name() string
	// Stream delivers decoded batches to emit until ctx is done or the
	// source fails. A nil return after ctx is done is a clean shutdown;
	// a nil return otherwise means the source is exhausted.
	Stream(ctx context.Context, emit func([]chain.Item)) error
}

// Status describes the connectivity of a feed.
type Status struct {
	Source     string    `json:"source"`
	Connected  bool      `json:"connected"`
	Items      int       `json:"items"`
	Total      int       `json:"total"`   // items accepted since start
	Dropped    int       `json:"dropped"` // items evicted by retention
	Duplicates int       `json:"duplicates"`
	Reconnects int       `json:"reconnects"`
	LastUpdate time.Time `json:"last_update"`
	LastError  string    `json:"last_error,omitempty"`
}

// Options configures a Feed. Zero fields take their defaults.
type Options struct {
	Retention int
	Retry     RetryConfig
	Clock     clock.Clock
	Logger    *log.Logger
}

// Feed is a retention-capped item store. It is safe for concurrent use.
type Feed struct {
	retry  RetryConfig
	clock  clock.Clock
	logger *log.Logger

	mu     sync.Mutex
	buf    *queue.CircularBuffer
	size   int
	ids    map[string]struct{}
	order  []string // ids in write order, order[head] is the next overwrite
	head   int
	status Status

	updates chan struct{}
}

// New creates a feed.
func New(opts Options) (*Feed, error) {
	if opts.Retention == 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewDefaultClock()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	opts.Retry.SetDefaults()

	buf, err := queue.NewCircularBuffer(opts.Retention)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "feed retention %d", opts.Retention)
	}
	return &Feed{
		retry:   opts.Retry,
		clock:   opts.Clock,
		logger:  opts.Logger,
		buf:     buf,
		size:    opts.Retention,
		ids:     make(map[string]struct{}, opts.Retention),
		order:   make([]string, opts.Retention),
		updates: make(chan struct{}, 1),
	}, nil
}

// Add appends items in order and returns how many were accepted. Items whose
// id is already retained are ignored. Consumers are notified once per call
// that accepted anything.
func (f *Feed) Add(items ...chain.Item) int {
	f.mu.Lock()
	accepted := 0
	for _, it := range items {
		if _, dup := f.ids[it.ID]; dup {
			f.status.Duplicates++
			continue
		}
		if f.buf.Total() >= f.size {
			// The write below overwrites the oldest entry.
			delete(f.ids, f.order[f.head])
			f.status.Dropped++
		}
		f.buf.Add(it)
		f.ids[it.ID] = struct{}{}
		f.order[f.head] = it.ID
		f.head = (f.head + 1) % f.size
		accepted++
	}
	if accepted > 0 {
		f.status.Total += accepted
		f.status.LastUpdate = f.clock.Now()
	}
	f.mu.Unlock()

	if accepted > 0 {
		f.notify()
	}
	return accepted
}

func (f *Feed) notify() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

// Items returns the retained items from oldest to newest.
func (f *Feed) Items() []chain.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.buf.List()
	items := make([]chain.Item, len(list))
	for i, v := range list {
		items[i] = v.(chain.Item)
	}
	return items
}

// Len returns the number of retained items.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

// Updates signals that Items changed. Signals coalesce: one pending signal
// covers any number of Add calls.
func (f *Feed) Updates() <-chan struct{} { return f.updates }

// Status returns the connectivity status.
func (f *Feed) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.status
	st.Items = len(f.ids)
	return st
}

func (f *Feed) setConnected(source string, connected bool, err error) {
	f.mu.Lock()
	f.status.Source = source
	f.status.Connected = connected
	if err != nil {
		f.status.LastError = err.Error()
	}
	f.mu.Unlock()
	f.notify()
}

// Run streams src into the feed until ctx is done. Failed streams are
// retried with exponential backoff; a source that ends without error is not
// restarted.
func (f *Feed) Run(ctx context.Context, src Source) error {
	name := src.Name()
	emit := func(items []chain.Item) {
		n := f.Add(items...)
		observability.Feed().OnItems(ctx, name, n)
	}

	attempt := 0
	err := f.retry.Do(ctx, f.clock, func() error {
		if attempt > 0 {
			f.mu.Lock()
			f.status.Reconnects++
			f.mu.Unlock()
		}
		attempt++

		f.setConnected(name, true, nil)
		observability.Feed().OnConnect(ctx, name)
		f.logger.Info("feed connected", "source", name)

		err := src.Stream(ctx, emit)
		f.setConnected(name, false, err)
		observability.Feed().OnDisconnect(ctx, name, err)

		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			f.logger.Warn("feed disconnected", "source", name, "err", err)
			if errors.GetCode(err) == errors.ErrCodeNetwork {
				return Retryable(err)
			}
			return err
		}
		f.logger.Info("feed exhausted", "source", name)
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
