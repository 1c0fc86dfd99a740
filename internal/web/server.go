// Package web serves the LinguaWeave HTTP API.
//
// Flows can be invoked directly by name with a JSON object body, or through
// learner sessions that carry the selected language, dialect and topic.
// Every error response has the shape {"error": msg, "kind": kind}.
package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linguaweave/linguaweave/internal/flow"
	"github.com/linguaweave/linguaweave/internal/health"
	"github.com/linguaweave/linguaweave/internal/observe"
	"github.com/linguaweave/linguaweave/internal/session"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Config holds the dependencies of a [Server].
type Config struct {
	// Invoker runs flows by name. Required.
	Invoker *flow.Invoker

	// Flows lists the flows that can be invoked. Required.
	Flows *flow.Registry

	// Sessions owns learner sessions. Required.
	Sessions *session.Manager

	// Health serves /healthz and /readyz. Nil serves liveness only.
	Health *health.Handler

	// Metrics records HTTP request durations. Nil uses
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// MetricsHandler serves /metrics. Nil uses promhttp.Handler.
	MetricsHandler http.Handler

	// MaxBodyBytes bounds request bodies. Zero uses DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Server routes API requests to flows and sessions.
type Server struct {
	inv      *flow.Invoker
	flows    *flow.Registry
	sessions *session.Manager
	maxBody  int64
	router   chi.Router
}

// New builds a Server and its routes.
func New(cfg Config) *Server {
	if cfg.Health == nil {
		cfg.Health = health.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.MetricsHandler == nil {
		cfg.MetricsHandler = promhttp.Handler()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		inv:      cfg.Invoker,
		flows:    cfg.Flows,
		sessions: cfg.Sessions,
		maxBody:  cfg.MaxBodyBytes,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(observe.Middleware(cfg.Metrics))

	cfg.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/flows", s.listFlows)
		r.Post("/flows/{name}", s.invokeFlow)
		r.Get("/catalog", s.catalog)
		r.Get("/voices", s.voices)

		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(tagSession)
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Put("/settings", s.updateSettings)
			r.Post("/messages", s.sendMessage)
			r.Post("/grammar", s.checkGrammar)
			r.Post("/lesson", s.generateLesson)
			r.Post("/speech", s.speak)
			r.Post("/flashcards", s.visualize)
		})
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// decode reads a JSON body into v. Unknown fields are rejected when strict
// is set. An empty body leaves v untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, strict bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// tagSession adds the addressed session ID to request-scoped logs.
func tagSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observe.WithLogAttrs(r.Context(), "session_id", chi.URLParam(r, "id"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
