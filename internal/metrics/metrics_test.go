package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/observability"
)

func TestHooksRecordEvents(t *testing.T) {
	h, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	h.OnLayoutPass(ctx, 3, 1, 2, 5*time.Millisecond)
	h.OnLayoutPass(ctx, 2, 0, 1, 5*time.Millisecond)
	h.OnRefused(ctx, "block", errors.ErrCodeCapacityExceeded)
	h.OnFallback(ctx, "workshare", errors.ErrCodeMissingRelative)
	h.OnRebuild(ctx, 4)
	h.OnReposition(ctx, 17)
	h.OnItems(ctx, "redis", 5)
	h.OnConnect(ctx, "redis")
	h.OnDisconnect(ctx, "redis", nil)
	h.OnCacheHit(ctx, "geometry")
	h.OnCacheMiss(ctx, "geometry")

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"passes", h.layoutPasses, 2},
		{"placed", h.placed, 5},
		{"resized", h.resized, 1},
		{"edges", h.edges, 3},
		{"refused", h.refused.WithLabelValues("block", "CAPACITY_EXCEEDED"), 1},
		{"fallbacks", h.fallbacks.WithLabelValues("workshare", "MISSING_RELATIVE"), 1},
		{"rebuilds", h.rebuilds, 1},
		{"dropped", h.rebuildDropped, 4},
		{"live", h.liveInstances, 17},
		{"feed items", h.feedItems.WithLabelValues("redis"), 5},
		{"connected", h.feedConnected.WithLabelValues("redis"), 0},
		{"disconnects", h.feedDisconnects.WithLabelValues("redis"), 1},
		{"cache hit", h.cacheOps.WithLabelValues("geometry", "hit"), 1},
		{"cache miss", h.cacheOps.WithLabelValues("geometry", "miss"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	_, err := New(reg)
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("second New() error = %v, want INTERNAL_ERROR", err)
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()

	h, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	h.Install()
	if observability.Scene() != h {
		t.Error("Install() should register scene hooks")
	}
	if observability.Feed() != h {
		t.Error("Install() should register feed hooks")
	}
	if observability.Cache() != h {
		t.Error("Install() should register cache hooks")
	}
}
