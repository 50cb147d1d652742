package feed

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/observability"
)

// FileSource reads newline-delimited JSON items from a file.
type FileSource struct {
	Path string
	// Follow keeps the file open and delivers lines appended later.
	Follow bool
	// Pace delivers one item per interval instead of whole batches.
	Pace time.Duration

	Clock  clock.Clock
	Logger *log.Logger
}

// NewFileSource creates a file source after validating the path.
func NewFileSource(path string, follow bool) (*FileSource, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	return &FileSource{Path: path, Follow: follow}, nil
}

// Name implements Source.
func (s *FileSource) Name() string { return "file:" + s.Path }

// Stream implements Source.
func (s *FileSource) Stream(ctx context.Context, emit func([]chain.Item)) error {
	clk, logger := s.Clock, s.Logger
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "open feed file")
	}
	defer f.Close()

	lr := &lineReader{r: bufio.NewReader(f), name: s.Name(), logger: logger}
	deliver := func(items []chain.Item) {
		if s.Pace <= 0 {
			if len(items) > 0 {
				emit(items)
			}
			return
		}
		for _, it := range items {
			emit([]chain.Item{it})
			select {
			case <-ctx.Done():
				return
			case <-clk.TickAfter(s.Pace):
			}
		}
	}

	if !s.Follow {
		items, err := lr.drain(ctx)
		if err != nil {
			return err
		}
		deliver(append(items, lr.flush(ctx)...))
		return nil
	}

	// Watch before the first drain so no append slips between them.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.Path); err != nil {
		return fmt.Errorf("watch %s: %w", s.Path, err)
	}

	items, err := lr.drain(ctx)
	if err != nil {
		return err
	}
	deliver(items)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Op&fsnotify.Write != 0:
				items, err := lr.drain(ctx)
				if err != nil {
					return err
				}
				deliver(items)
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				return errors.New(errors.ErrCodeNotFound, "feed file %s was removed", s.Path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "path", s.Path, "err", err)
		}
	}
}

// lineReader decodes complete lines and keeps a trailing partial line until
// the rest of it is written.
type lineReader struct {
	r       *bufio.Reader
	partial []byte
	line    int
	name    string
	logger  *log.Logger
}

func (lr *lineReader) drain(ctx context.Context) ([]chain.Item, error) {
	var items []chain.Item
	for {
		chunk, err := lr.r.ReadBytes('\n')
		lr.partial = append(lr.partial, chunk...)
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return items, fmt.Errorf("read %s: %w", lr.name, err)
		}

		if it, ok := lr.decode(ctx); ok {
			items = append(items, it)
		}
	}
}

// flush decodes a final line that has no trailing newline.
func (lr *lineReader) flush(ctx context.Context) []chain.Item {
	if len(bytes.TrimSpace(lr.partial)) == 0 {
		return nil
	}
	if it, ok := lr.decode(ctx); ok {
		return []chain.Item{it}
	}
	return nil
}

func (lr *lineReader) decode(ctx context.Context) (chain.Item, bool) {
	lr.line++
	raw := bytes.TrimSpace(lr.partial)
	lr.partial = lr.partial[:0]
	if len(raw) == 0 {
		return chain.Item{}, false
	}
	it, err := chain.Decode(raw)
	if err != nil {
		observability.Feed().OnDecodeError(ctx, lr.name)
		lr.logger.Warn("skipping line", "source", lr.name, "line", lr.line, "err", err)
		return chain.Item{}, false
	}
	return it, true
}
