package feed

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/observability"
)

// RedisSource subscribes to a pub/sub channel carrying item messages. Each
// message holds one item object or an array of items.
type RedisSource struct {
	client  *redis.Client
	channel string

	// History, when set, names a list of past messages replayed on every
	// connect before live messages, newest HistoryLimit entries only.
	History      string
	HistoryLimit int64

	Logger *log.Logger
}

// NewRedisSource creates a source reading channel through client.
func NewRedisSource(client *redis.Client, channel string) (*RedisSource, error) {
	if err := errors.ValidateChannelName(channel); err != nil {
		return nil, err
	}
	return &RedisSource{
		client:       client,
		channel:      channel,
		HistoryLimit: DefaultRetention,
		Logger:       log.NewWithOptions(io.Discard, log.Options{}),
	}, nil
}

// Name implements Source.
func (s *RedisSource) Name() string { return "redis:" + s.channel }

// Stream implements Source.
func (s *RedisSource) Stream(ctx context.Context, emit func([]chain.Item)) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Wait for the subscription so connection errors surface here.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "subscribe %s", s.channel)
	}

	if s.History != "" {
		if err := s.replay(ctx, emit); err != nil {
			return err
		}
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New(errors.ErrCodeNetwork, "subscription to %s closed", s.channel)
			}
			s.deliver(ctx, []byte(msg.Payload), emit)
		}
	}
}

func (s *RedisSource) replay(ctx context.Context, emit func([]chain.Item)) error {
	msgs, err := s.client.LRange(ctx, s.History, -s.HistoryLimit, -1).Result()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "read history %s", s.History)
	}
	for _, m := range msgs {
		s.deliver(ctx, []byte(m), emit)
	}
	return nil
}

func (s *RedisSource) deliver(ctx context.Context, payload []byte, emit func([]chain.Item)) {
	items, err := chain.DecodeBatch(payload)
	if err != nil {
		observability.Feed().OnDecodeError(ctx, s.Name())
		s.Logger.Warn("skipping message", "source", s.Name(), "err", err)
		return
	}
	if len(items) > 0 {
		emit(items)
	}
}
