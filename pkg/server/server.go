// Package server exposes scenario runs and tree rendering over HTTP.
//
// Routes:
//
//	GET  /healthz       liveness and build info
//	POST /v1/scenarios  run a scenario document, respond with the JSON result
//	POST /v1/render     run a scenario document, respond with the final tree
//	                    as ?format=dot|svg|png|pdf|json
//	GET  /metrics       Prometheus metrics, when enabled
//
// Scenario documents are TOML unless ?input=yaml is given or the request's
// Content-Type mentions yaml. Every response carries an X-Request-ID header;
// a request id sent by the client is reused.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pqtree/pkg/observability"
	"github.com/matzehuels/pqtree/pkg/render"
	"github.com/matzehuels/pqtree/pkg/scenario"
)

// Defaults applied by [Config.setDefaults].
const (
	DefaultAddr            = ":8080"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr            string
	MaxBodyBytes    int64
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Server serves the HTTP API.
type Server struct {
	conf     Config
	runner   *scenario.Runner
	renderer *render.Renderer
	metrics  *observability.Metrics
	logger   *log.Logger
	router   chi.Router
}

// New creates a server. metrics may be nil to leave /metrics unrouted.
func New(conf Config, runner *scenario.Runner, renderer *render.Renderer, metrics *observability.Metrics, logger *log.Logger) *Server {
	conf.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		conf:     conf,
		runner:   runner,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.conf.RequestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Use(limitBody(s.conf.MaxBodyBytes))
		r.Post("/scenarios", s.handleScenario)
		r.Post("/render", s.handleRender)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.conf.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.conf.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.conf.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
