package cli

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/matzehuels/chainflow/pkg/config"
	"github.com/matzehuels/chainflow/pkg/scene"
)

func TestEngineRunsFileFeed(t *testing.T) {
	cfg := &config.Config{}
	cfg.Feed.Path = writeFeed(t, 4)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	passes := make(chan scene.Pass, 16)
	e, err := newEngine(cfg, newLogger(io.Discard, LogInfo), func(p scene.Pass) {
		passes <- p
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.run(ctx) }()

	// Connect notifications may produce an empty pass first.
	deadline := time.After(5 * time.Second)
	for placed := 0; placed < 4; {
		select {
		case p := <-passes:
			placed += p.Placed
		case <-deadline:
			t.Fatalf("only %d items placed", placed)
		}
	}

	var instances int
	if err := e.loop.Do(ctx, func(sc *scene.Scene) { instances = sc.Instances() }); err != nil {
		t.Fatal(err)
	}
	if instances != 4 {
		t.Errorf("instances = %d, want 4", instances)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run error after cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestNewEngineUnknownSource(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Feed.Source = "carrier-pigeon"
	if _, err := newEngine(cfg, newLogger(io.Discard, LogInfo), nil); err == nil {
		t.Error("expected error for unknown source")
	}
}
