// Package server exposes layout passes over HTTP.
//
// Routes:
//
//	POST /v1/layout   history document and options in, layout out
//	GET  /healthz     liveness and build version
//	GET  /metrics     Prometheus metrics, when a registry is configured
//
// Layout responses are JSON unless the request asks for ?format=bson or
// ?format=dot. Errors are JSON objects with the error code and message; the
// status follows the code (see errors.HTTPStatus).
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/forkline/pkg/buildinfo"
	"github.com/matzehuels/forkline/pkg/cache"
	"github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/observability"
	"github.com/matzehuels/forkline/pkg/observability/prom"
	"github.com/matzehuels/forkline/pkg/pipeline"
)

// KeyPrefix scopes API cache entries away from CLI entries sharing a backend.
const KeyPrefix = "api:"

// Options configures a Server.
type Options struct {
	Addr string
	// Cache stores layouts; nil disables caching.
	Cache cache.Cache
	// Defaults fill options the request leaves unset.
	Defaults     pipeline.Options
	MaxBodyBytes int64
	Timeout      time.Duration
	Logger       *log.Logger
	// Metrics, when set, is served at /metrics.
	Metrics *prom.Metrics
}

// Server is the layout API.
type Server struct {
	opts   Options
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a server. The runner keys cache entries under [KeyPrefix].
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), KeyPrefix)
	return &Server{
		opts:   opts,
		runner: pipeline.NewRunner(opts.Cache, keyer, opts.Logger),
		logger: opts.Logger,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.Timeout))

	r.Get("/healthz", s.health)
	r.Post("/v1/layout", s.layout)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.opts.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// Close releases the runner's cache.
func (s *Server) Close() error {
	return s.runner.Close()
}

// =============================================================================
// Handlers
// =============================================================================

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	History graph.History    `json:"history"`
	Options pipeline.Options `json:"options"`
}

// LayoutResponse is the JSON answer to a layout request.
type LayoutResponse struct {
	Layout      graph.Layout `json:"layout"`
	Tip         string       `json:"tip"`
	HistoryHash string       `json:"history_hash"`
	CacheHit    bool         `json:"cache_hit"`
	BackEdges   []string     `json:"back_edges,omitempty"`
	Skipped     []string     `json:"skipped,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = graph.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	var req LayoutRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return
	}
	if err := req.History.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.withDefaults(req.Options)
	opts.Logger = s.logger.With("request_id", middleware.GetReqID(r.Context()))

	res, err := s.runner.Execute(r.Context(), pipeline.FromHistory(req.History), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format != graph.FormatJSON {
		data, err := pipeline.Encode(res.Layout, format)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", contentTypes[format])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	resp := LayoutResponse{
		Layout:      res.Layout,
		Tip:         res.Tip,
		HistoryHash: res.HistoryHash,
		CacheHit:    res.CacheHit,
	}
	for _, e := range res.BackEdges {
		resp.BackEdges = append(resp.BackEdges, e.String())
	}
	for _, sk := range res.Skipped {
		resp.Skipped = append(resp.Skipped, sk.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

var contentTypes = map[string]string{
	graph.FormatBSON: "application/bson",
	graph.FormatDOT:  "text/vnd.graphviz",
}

// withDefaults fills fields the request left unset from the server defaults.
func (s *Server) withDefaults(o pipeline.Options) pipeline.Options {
	d := s.opts.Defaults
	if o.Tip == "" {
		o.Tip = d.Tip
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	if o.TrunkColor == "" {
		o.TrunkColor = d.TrunkColor
	}
	if len(o.LanePalette) == 0 {
		o.LanePalette = d.LanePalette
	}
	return o
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// Middleware
// =============================================================================

// observe reports every request to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		if id := middleware.GetReqID(r.Context()); id != "" {
			ww.Header().Set(middleware.RequestIDHeader, id)
		}

		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", d)
	})
}
