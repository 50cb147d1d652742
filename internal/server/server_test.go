package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/feed"
	"github.com/matzehuels/chainflow/pkg/scene"
	"github.com/matzehuels/chainflow/pkg/scheduler"
)

var surface = scheduler.Surface{Width: 800, Height: 600}

func block(n int64) chain.Item {
	hash := "0x" + strings.Repeat(string(rune('a'+n)), 8)
	return chain.Item{
		ID:        hash,
		Type:      chain.TypeBlock,
		Hash:      hash,
		FullHash:  hash,
		Number:    fn.Some(n),
		Timestamp: float64(1000 + n),
	}
}

type fixture struct {
	srv  *httptest.Server
	loop *scheduler.Loop[*scene.Scene]
	feed *feed.Feed
}

func setup(t *testing.T, items ...chain.Item) *fixture {
	t.Helper()
	sc, err := scene.New(scene.Options{Explorer: "https://quaiscan.io"})
	if err != nil {
		t.Fatal(err)
	}
	loop := scheduler.New(sc, scheduler.Config{Ticker: ticker.NewForce(time.Hour)})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	if err := loop.Do(ctx, func(sc *scene.Scene) { sc.Layout(ctx, items) }); err != nil {
		t.Fatal(err)
	}

	f, err := feed.New(feed.Options{})
	if err != nil {
		t.Fatal(err)
	}
	f.Add(items...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "chainflow_test_total", Help: "test"}))

	s := New(Options{Loop: loop, Feed: f, Surface: surface, Gatherer: reg})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, loop: loop, feed: f}
}

func get(t *testing.T, url string, wantStatus int, v any) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	var sb strings.Builder
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
		return ""
	}
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return sb.String()
}

func TestScene(t *testing.T) {
	fx := setup(t, block(1), block(2))

	var snap scene.Snapshot
	get(t, fx.srv.URL+"/api/scene", http.StatusOK, &snap)
	if len(snap.Instances) != 2 {
		t.Fatalf("instances = %d, want 2", len(snap.Instances))
	}
	if snap.Session == "" {
		t.Error("session should be set")
	}
}

func TestPick(t *testing.T) {
	fx := setup(t, block(1))

	var snap scene.Snapshot
	get(t, fx.srv.URL+"/api/scene", http.StatusOK, &snap)
	pos := snap.Instances[0].Position

	// Surface pixel of the instance center.
	x := pos.X + float64(surface.Width)/2
	y := float64(surface.Height)/2 - pos.Y

	var hit PickResponse
	get(t, fx.srv.URL+"/api/pick?x="+ftoa(x)+"&y="+ftoa(y), http.StatusOK, &hit)
	if !hit.Hit || hit.ID != block(1).ID {
		t.Fatalf("pick = %+v, want hit on %s", hit, block(1).ID)
	}
	if hit.URL != "https://quaiscan.io/block/1" {
		t.Errorf("url = %q", hit.URL)
	}
	if !strings.Contains(hit.Tooltip, "Number: #1") {
		t.Errorf("tooltip = %q", hit.Tooltip)
	}

	var miss PickResponse
	get(t, fx.srv.URL+"/api/pick?x=0&y=0&scale=1000", http.StatusOK, &miss)
	if miss.Hit {
		t.Errorf("expected a miss, got %+v", miss)
	}

	var bad ErrorResponse
	get(t, fx.srv.URL+"/api/pick?x=left&y=1", http.StatusBadRequest, &bad)
	if bad.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s", bad.Code)
	}
}

func TestClick(t *testing.T) {
	fx := setup(t, block(3))

	var body map[string]string
	get(t, fx.srv.URL+"/api/click?type=block&id="+block(3).ID, http.StatusOK, &body)
	if body["url"] != "https://quaiscan.io/block/3" {
		t.Errorf("url = %q", body["url"])
	}

	var notFound ErrorResponse
	get(t, fx.srv.URL+"/api/click?type=block&id=missing", http.StatusNotFound, &notFound)

	var badType ErrorResponse
	get(t, fx.srv.URL+"/api/click?type=zone&id=x", http.StatusBadRequest, &badType)
}

func TestRecenter(t *testing.T) {
	fx := setup(t, block(1), block(2))

	resp, err := http.Post(fx.srv.URL+"/api/recenter", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["recentered"] != true {
		t.Errorf("recentered = %v", body["recentered"])
	}

	get(t, fx.srv.URL+"/api/recenter", http.StatusMethodNotAllowed, nil)
}

func TestDOT(t *testing.T) {
	fx := setup(t, block(1))
	dot := get(t, fx.srv.URL+"/api/graph.dot", http.StatusOK, nil)
	if !strings.HasPrefix(dot, "digraph") || !strings.Contains(dot, block(1).ID) {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
}

func TestStatus(t *testing.T) {
	fx := setup(t, block(1), block(2))

	var st StatusResponse
	get(t, fx.srv.URL+"/api/status", http.StatusOK, &st)
	if st.Instances != 2 || st.Surface != surface {
		t.Errorf("status = %+v", st)
	}
	if st.Feed == nil || st.Feed.Items != 2 {
		t.Errorf("feed status = %+v", st.Feed)
	}
	if st.Build.GoVersion == "" {
		t.Error("status should carry build info")
	}
}

func TestMetrics(t *testing.T) {
	fx := setup(t)
	body := get(t, fx.srv.URL+"/metrics", http.StatusOK, nil)
	if !strings.Contains(body, "chainflow_test_total") {
		t.Errorf("metrics missing registered counter:\n%s", body)
	}
}

func TestStoppedLoop(t *testing.T) {
	sc, err := scene.New(scene.Options{})
	if err != nil {
		t.Fatal(err)
	}
	loop := scheduler.New(sc, scheduler.Config{Ticker: ticker.NewForce(time.Hour)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = loop.Run(ctx)

	srv := httptest.NewServer(New(Options{Loop: loop, Surface: surface}).Handler())
	defer srv.Close()

	var body ErrorResponse
	get(t, srv.URL+"/api/scene", http.StatusServiceUnavailable, &body)
	if body.Code != errors.ErrCodeUnavailable {
		t.Errorf("code = %s", body.Code)
	}
	get(t, srv.URL+"/metrics", http.StatusNotFound, nil)
}

func ftoa(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
