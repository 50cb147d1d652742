// Package observability provides hooks for metrics and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about layout passes, feed sources, and the memo table.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The scene core never returns failures to its caller, so these hooks are
// where refusals and fallbacks become visible.
//
// # Usage
//
// Register hooks at application startup:
//
//	hooks, err := metrics.New(reg)
//	if err != nil {
//	    return err
//	}
//	observability.SetSceneHooks(hooks)
//	observability.SetFeedHooks(hooks)
//	observability.SetCacheHooks(hooks)
//
// Libraries call hooks to emit events:
//
//	observability.Scene().OnRefused(ctx, "block", errors.ErrCodeCapacityExceeded)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/chainflow/pkg/errors"
)

// =============================================================================
// Scene Hooks
// =============================================================================

// SceneHooks receives events from layout passes and the per-tick loop.
type SceneHooks interface {
	// OnLayoutPass records one completed layout pass.
	OnLayoutPass(ctx context.Context, placed, resized, edges int, duration time.Duration)

	// OnRefused records an item that was not instanced.
	OnRefused(ctx context.Context, itemType string, code errors.Code)

	// OnFallback records a placement or edge that took a fallback path.
	OnFallback(ctx context.Context, itemType string, code errors.Code)

	// OnRebuild records a full pool rebuild after the live set lost items.
	OnRebuild(ctx context.Context, dropped int)

	// OnReposition records a bulk reprojection pass over live instances.
	OnReposition(ctx context.Context, instances int)
}

// =============================================================================
// Feed Hooks
// =============================================================================

// FeedHooks receives events from feed sources.
type FeedHooks interface {
	// OnItems records items accepted from a source.
	OnItems(ctx context.Context, source string, count int)

	// OnDecodeError records a record a source could not decode.
	OnDecodeError(ctx context.Context, source string)

	// OnConnect records a source (re)establishing its connection.
	OnConnect(ctx context.Context, source string)

	// OnDisconnect records a source losing its connection.
	OnDisconnect(ctx context.Context, source string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from memo table operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSceneHooks is a no-op implementation of SceneHooks.
type NoopSceneHooks struct{}

func (NoopSceneHooks) OnLayoutPass(context.Context, int, int, int, time.Duration) {}
func (NoopSceneHooks) OnRefused(context.Context, string, errors.Code)             {}
func (NoopSceneHooks) OnFallback(context.Context, string, errors.Code)            {}
func (NoopSceneHooks) OnRebuild(context.Context, int)                             {}
func (NoopSceneHooks) OnReposition(context.Context, int)                          {}

// NoopFeedHooks is a no-op implementation of FeedHooks.
type NoopFeedHooks struct{}

func (NoopFeedHooks) OnItems(context.Context, string, int)        {}
func (NoopFeedHooks) OnDecodeError(context.Context, string)       {}
func (NoopFeedHooks) OnConnect(context.Context, string)           {}
func (NoopFeedHooks) OnDisconnect(context.Context, string, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	sceneHooks SceneHooks = NoopSceneHooks{}
	feedHooks  FeedHooks  = NoopFeedHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetSceneHooks registers custom scene hooks.
// This should be called once at application startup before any layout pass.
func SetSceneHooks(h SceneHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sceneHooks = h
	}
}

// SetFeedHooks registers custom feed hooks.
func SetFeedHooks(h FeedHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		feedHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Scene returns the registered scene hooks.
func Scene() SceneHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sceneHooks
}

// Feed returns the registered feed hooks.
func Feed() FeedHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return feedHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	sceneHooks = NoopSceneHooks{}
	feedHooks = NoopFeedHooks{}
	cacheHooks = NoopCacheHooks{}
}
