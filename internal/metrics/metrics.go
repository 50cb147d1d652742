// Package metrics implements the observability hooks on top of Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/observability"
)

const namespace = "chainflow"

// Hooks collects scene, feed and cache events into Prometheus collectors.
type Hooks struct {
	layoutPasses    prometheus.Counter
	layoutDuration  prometheus.Histogram
	placed          prometheus.Counter
	resized         prometheus.Counter
	edges           prometheus.Counter
	refused         *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	rebuilds        prometheus.Counter
	rebuildDropped  prometheus.Counter
	liveInstances   prometheus.Gauge
	feedItems       *prometheus.CounterVec
	feedDecodeErrs  *prometheus.CounterVec
	feedConnected   *prometheus.GaugeVec
	feedDisconnects *prometheus.CounterVec
	cacheOps        *prometheus.CounterVec
}

var (
	_ observability.SceneHooks = (*Hooks)(nil)
	_ observability.FeedHooks  = (*Hooks)(nil)
	_ observability.CacheHooks = (*Hooks)(nil)
)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Hooks, error) {
	h := &Hooks{
		layoutPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scene", Name: "layout_passes_total",
			Help: "Number of completed layout passes.",
		}),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "scene", Name: "layout_duration_seconds",
			Help:    "Duration of layout passes.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scene", Name: "placed_total",
			Help: "Items instanced by layout passes.",
		}),
		resized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scene", Name: "resized_total",
			Help: "Instances resized after a workshare count change.",
		}),
		edges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scene", Name: "edges_created_total",
			Help: "Edges created by layout passes.",
		}),
		refused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scene", Name: "refused_total",
			Help: "Items that were not instanced, by type and reason.",
		}, []string{"type", "code"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scene", Name: "fallbacks_total",
			Help: "Placements or edges that took a fallback path.",
		}, []string{"type", "code"}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scene", Name: "rebuilds_total",
			Help: "Full pool rebuilds triggered by retention drops.",
		}),
		rebuildDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scene", Name: "rebuild_dropped_total",
			Help: "Instances dropped by pool rebuilds.",
		}),
		liveInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "scene", Name: "live_instances",
			Help: "Instances touched by the last reprojection pass.",
		}),
		feedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "feed", Name: "items_total",
			Help: "Items accepted from feed sources.",
		}, []string{"source"}),
		feedDecodeErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "feed", Name: "decode_errors_total",
			Help: "Records a feed source could not decode.",
		}, []string{"source"}),
		feedConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "feed", Name: "connected",
			Help: "Whether a feed source is connected.",
		}, []string{"source"}),
		feedDisconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "feed", Name: "disconnects_total",
			Help: "Connection losses per feed source.",
		}, []string{"source"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "memo", Name: "operations_total",
			Help: "Memo table operations by key type and result.",
		}, []string{"key_type", "result"}),
	}

	for _, c := range []prometheus.Collector{
		h.layoutPasses, h.layoutDuration, h.placed, h.resized, h.edges,
		h.refused, h.fallbacks, h.rebuilds, h.rebuildDropped, h.liveInstances,
		h.feedItems, h.feedDecodeErrs, h.feedConnected, h.feedDisconnects,
		h.cacheOps,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "register collector")
		}
	}
	return h, nil
}

// Install registers h as the global scene, feed and cache hooks.
func (h *Hooks) Install() {
	observability.SetSceneHooks(h)
	observability.SetFeedHooks(h)
	observability.SetCacheHooks(h)
}

// =============================================================================
// Scene
// =============================================================================

func (h *Hooks) OnLayoutPass(_ context.Context, placed, resized, edges int, d time.Duration) {
	h.layoutPasses.Inc()
	h.layoutDuration.Observe(d.Seconds())
	h.placed.Add(float64(placed))
	h.resized.Add(float64(resized))
	h.edges.Add(float64(edges))
}

func (h *Hooks) OnRefused(_ context.Context, itemType string, code errors.Code) {
	h.refused.WithLabelValues(itemType, string(code)).Inc()
}

func (h *Hooks) OnFallback(_ context.Context, itemType string, code errors.Code) {
	h.fallbacks.WithLabelValues(itemType, string(code)).Inc()
}

func (h *Hooks) OnRebuild(_ context.Context, dropped int) {
	h.rebuilds.Inc()
	h.rebuildDropped.Add(float64(dropped))
}

func (h *Hooks) OnReposition(_ context.Context, instances int) {
	h.liveInstances.Set(float64(instances))
}

// =============================================================================
// Feed
// =============================================================================

func (h *Hooks) OnItems(_ context.Context, source string, count int) {
	h.feedItems.WithLabelValues(source).Add(float64(count))
}

func (h *Hooks) OnDecodeError(_ context.Context, source string) {
	h.feedDecodeErrs.WithLabelValues(source).Inc()
}

func (h *Hooks) OnConnect(_ context.Context, source string) {
	h.feedConnected.WithLabelValues(source).Set(1)
}

func (h *Hooks) OnDisconnect(_ context.Context, source string, _ error) {
	h.feedConnected.WithLabelValues(source).Set(0)
	h.feedDisconnects.WithLabelValues(source).Inc()
}

// =============================================================================
// Memo table
// =============================================================================

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
}
