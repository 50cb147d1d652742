// Package server publishes a running scene over HTTP.
//
// Every handler reads the scene through [scheduler.Loop.Do], so requests
// never touch scene state from their own goroutine.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/chainflow/pkg/buildinfo"
	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/errors"
	"github.com/matzehuels/chainflow/pkg/feed"
	"github.com/matzehuels/chainflow/pkg/render/nodelink"
	"github.com/matzehuels/chainflow/pkg/scene"
	"github.com/matzehuels/chainflow/pkg/scene/pool"
	"github.com/matzehuels/chainflow/pkg/scheduler"
)

// Timeouts of the HTTP server.
const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Loop    *scheduler.Loop[*scene.Scene]
	Feed    *feed.Feed // optional; /api/status reports it when set
	Surface scheduler.Surface

	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	Logger *log.Logger
}

// Server is the HTTP surface of a scene.
type Server struct {
	loop     *scheduler.Loop[*scene.Scene]
	feed     *feed.Feed
	surface  scheduler.Surface
	gatherer prometheus.Gatherer
	logger   *log.Logger
	started  time.Time
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{
		loop:     opts.Loop,
		feed:     opts.Feed,
		surface:  opts.Surface,
		gatherer: opts.Gatherer,
		logger:   opts.Logger,
		started:  time.Now(),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/scene", s.handleScene)
		r.Get("/pick", s.handlePick)
		r.Get("/click", s.handleClick)
		r.Post("/recenter", s.handleRecenter)
		r.Get("/graph.dot", s.handleDOT)
		r.Get("/graph.svg", s.handleSVG)
		r.Get("/status", s.handleStatus)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start).Round(time.Microsecond))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	var snap scene.Snapshot
	if !s.do(w, r, func(sc *scene.Scene) { snap = sc.Snapshot() }) {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// PickResponse is the body of /api/pick.
type PickResponse struct {
	Hit      bool       `json:"hit"`
	ID       string     `json:"id,omitempty"`
	Type     chain.Type `json:"type,omitempty"`
	Position pool.Vec3  `json:"position"`
	Distance float64    `json:"distance,omitempty"`
	Tooltip  string     `json:"tooltip,omitempty"`
	URL      string     `json:"url,omitempty"`
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "x and y must be numbers"))
		return
	}
	proj := scene.Orthographic{Width: float64(s.surface.Width), Height: float64(s.surface.Height)}
	if v := r.URL.Query().Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "scale must be a positive number"))
			return
		}
		proj.Scale = scale
	}

	var resp PickResponse
	ok := s.do(w, r, func(sc *scene.Scene) {
		hit, found := sc.Pick(proj.Ray(x, y))
		if !found {
			return
		}
		it := hit.Instance.Item
		resp = PickResponse{
			Hit:      true,
			ID:       it.ID,
			Type:     it.Type,
			Position: hit.Position,
			Distance: hit.Distance,
			Tooltip:  hit.Tooltip(),
		}
		resp.URL, _ = sc.ExplorerURL(it)
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	typ, err := chain.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "id is required"))
		return
	}

	var url string
	var found bool
	if !s.do(w, r, func(sc *scene.Scene) { url, found = sc.Click(typ, id) }) {
		return
	}
	if !found {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no explorer page for %s %s", typ, id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleRecenter(w http.ResponseWriter, r *http.Request) {
	var moved bool
	var target float64
	if !s.do(w, r, func(sc *scene.Scene) {
		moved = sc.Recenter()
		target = sc.Target()
	}) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recentered": moved, "target": target})
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	detailed := r.URL.Query().Get("detailed") == "true"
	var dot string
	if !s.do(w, r, func(sc *scene.Scene) { dot = sc.DOT(detailed) }) {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = io.WriteString(w, dot)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	detailed := r.URL.Query().Get("detailed") == "true"
	var dot string
	if !s.do(w, r, func(sc *scene.Scene) { dot = sc.DOT(detailed) }) {
		return
	}
	// Graphviz runs off the loop goroutine.
	svg, err := nodelink.RenderSVG(r.Context(), dot)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// StatusResponse is the body of /api/status.
type StatusResponse struct {
	Session   string            `json:"session"`
	Uptime    string            `json:"uptime"`
	Instances int               `json:"instances"`
	Edges     int               `json:"edges"`
	Offset    float64           `json:"offset"`
	Surface   scheduler.Surface `json:"surface"`
	Feed      *feed.Status      `json:"feed,omitempty"`
	Build     buildinfo.Info    `json:"build"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Surface: s.surface,
		Build:   buildinfo.Get(),
	}
	if !s.do(w, r, func(sc *scene.Scene) {
		resp.Session = sc.Session()
		resp.Instances = sc.Instances()
		resp.Edges = sc.Edges()
		resp.Offset = sc.Offset()
	}) {
		return
	}
	if s.feed != nil {
		st := s.feed.Status()
		resp.Feed = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// do runs f on the loop goroutine and writes an error response when the loop
// is gone.
func (s *Server) do(w http.ResponseWriter, r *http.Request, f func(*scene.Scene)) bool {
	if err := s.loop.Do(r.Context(), f); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeUnavailable, err, "scene unavailable"))
		return false
	}
	return true
}

// =============================================================================
// Responses
// =============================================================================

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusFor(code), ErrorResponse{Code: code, Error: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidItem:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
