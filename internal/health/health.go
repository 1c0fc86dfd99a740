// Package health provides HTTP health and readiness check handlers.
//
// The package exposes two endpoints:
//
//   - /healthz: liveness probe; always returns 200 OK.
//   - /readyz: readiness probe; returns 200 unless a hard [Checker] fails.
//
// Responses are JSON objects with a top-level "status" field ("ok",
// "degraded" or "fail") and a "checks" map with the result of each checker.
// A failing soft checker, such as an optional speech backend, degrades the
// service without taking it out of rotation.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// checkTimeout is the maximum time a single readiness check may take before
// the context is cancelled.
const checkTimeout = 5 * time.Second

// Checker is a named health check function. The Check function should return
// nil when the dependency is healthy and a non-nil error describing the
// failure otherwise.
type Checker struct {
	// Name is a short, human-readable label for this check (e.g. "text",
	// "sessions"). It appears as a key in the JSON response.
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error

	// Soft marks a dependency whose failure disables some flows but leaves
	// the service usable.
	Soft bool
}

// Soft returns c marked as a soft checker.
func Soft(c Checker) Checker {
	c.Soft = true
	return c
}

// Configured returns a Checker that fails when ok reports false. It suits
// dependencies that can be swapped at runtime, such as flow backends.
func Configured(name string, ok func() bool) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			if !ok() {
				return fmt.Errorf("%s is not configured", name)
			}
			return nil
		},
	}
}

// result is the JSON response body for health endpoints.
type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz endpoints. It is safe for concurrent
// use; the checker list is fixed at construction time.
type Handler struct {
	checkers []Checker
}

// New creates a [Handler] that evaluates the given checkers on each /readyz
// request.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz is a liveness probe that always returns 200 OK. A running process
// that can serve HTTP is considered alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz is a readiness probe. Checkers run concurrently, each with a
// [checkTimeout] deadline derived from the request context. Any failing hard
// checker answers 503 "fail"; failing soft checkers alone answer 200
// "degraded".
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	var (
		mu             sync.Mutex
		checks         = make(map[string]string, len(h.checkers))
		hard, degraded bool
	)

	var g errgroup.Group
	for _, c := range h.checkers {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			err := c.Check(ctx)
			cancel()

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				checks[c.Name] = "ok"
			case c.Soft:
				checks[c.Name] = "degraded: " + err.Error()
				degraded = true
			default:
				checks[c.Name] = "fail: " + err.Error()
				hard = true
			}
			return nil
		})
	}
	_ = g.Wait()

	res, status := result{Status: "ok", Checks: checks}, http.StatusOK
	switch {
	case hard:
		res.Status, status = "fail", http.StatusServiceUnavailable
	case degraded:
		res.Status = "degraded"
	}
	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
