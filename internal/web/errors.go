package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linguaweave/linguaweave/internal/flow"
	"github.com/linguaweave/linguaweave/internal/observe"
	"github.com/linguaweave/linguaweave/internal/session"
	"github.com/linguaweave/linguaweave/pkg/schema"
)

// errBadRequest marks request bodies that could not be decoded.
var errBadRequest = errors.New("web: malformed request body")

// errNoSpeechBackend is returned by the voice listing when no speech
// backend is configured.
var errNoSpeechBackend = errors.New("web: no speech backend configured")

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string       `json:"error"`
	Kind   string       `json:"kind"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

// classify maps err to an HTTP status and a stable kind label.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, flow.ErrInputValidation):
		return http.StatusBadRequest, flow.KindOf(err)
	case errors.Is(err, session.ErrEmptyMessage):
		return http.StatusBadRequest, "empty_message"
	case errors.Is(err, session.ErrInvalidSelection):
		return http.StatusBadRequest, "invalid_selection"
	case errors.Is(err, flow.ErrUnknownFlow), errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, session.ErrStale):
		return http.StatusConflict, "stale"
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	case errors.Is(err, errNoSpeechBackend):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, flow.ErrTemplate):
		return http.StatusInternalServerError, flow.KindOf(err)
	case errors.Is(err, flow.ErrRemoteService),
		errors.Is(err, flow.ErrOutputValidation),
		errors.Is(err, flow.ErrMediaGeneration):
		return http.StatusBadGateway, flow.KindOf(err)
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError writes err as a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	body := errorBody{Error: err.Error(), Kind: kind}
	for _, fe := range schema.FieldErrors(err) {
		body.Fields = append(body.Fields, fieldError{Field: fe.Field, Constraint: string(fe.Constraint)})
	}

	log := observe.Logger(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "kind", kind, "error", err)
	} else {
		log.Debug("request rejected", "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, status, body)
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("web: encode response", "error", err)
	}
}
