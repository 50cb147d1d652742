package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chainflow/pkg/errors"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// publish retries until the source has subscribed.
func publish(t *testing.T, mr *miniredis.Miniredis, channel, msg string) {
	t.Helper()
	waitFor(t, func() bool { return mr.Publish(channel, msg) > 0 })
}

func TestRedisSourceStreams(t *testing.T) {
	mr, client := setupRedis(t)

	src, err := NewRedisSource(client, "chainflow:items")
	require.NoError(t, err)
	assert.Equal(t, "redis:chainflow:items", src.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var c collector
	done := make(chan error, 1)
	go func() { done <- src.Stream(ctx, c.emit) }()

	publish(t, mr, "chainflow:items", lineA)
	mr.Publish("chainflow:items", "not json")
	mr.Publish("chainflow:items", "["+lineB+","+lineC+"]")

	waitFor(t, func() bool { return len(c.ids()) == 3 })
	assert.Equal(t, "a,b,c", strings.Join(c.ids(), ","))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not return after cancel")
	}
}

func TestRedisSourceReplaysHistory(t *testing.T) {
	mr, client := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, client.RPush(ctx, "chainflow:history", lineA, lineB, lineC).Err())

	src, err := NewRedisSource(client, "chainflow:items")
	require.NoError(t, err)
	src.History = "chainflow:history"
	src.HistoryLimit = 2

	var c collector
	done := make(chan error, 1)
	go func() { done <- src.Stream(ctx, c.emit) }()

	waitFor(t, func() bool { return len(c.ids()) == 2 })
	assert.Equal(t, "b,c", strings.Join(c.ids(), ","))

	// Live messages follow the replay.
	publish(t, mr, "chainflow:items", lineA)
	waitFor(t, func() bool { return len(c.ids()) == 3 })

	cancel()
	<-done
}

func TestRedisSourceUnavailable(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()

	src, err := NewRedisSource(client, "chainflow:items")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var c collector
	err = src.Stream(ctx, c.emit)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork), "got %v", err)
}

func TestNewRedisSourceValidates(t *testing.T) {
	_, client := setupRedis(t)
	_, err := NewRedisSource(client, "")
	assert.Error(t, err)
}
