package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/config"
	"github.com/maksimkurb/keen-route/src/internal/errors"
	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/reconcile"
	"github.com/maksimkurb/keen-route/src/internal/route"
	"github.com/maksimkurb/keen-route/src/internal/service"
	"github.com/maksimkurb/keen-route/src/internal/session"
)

// SessionController is the tunnel session as seen by the API.
type SessionController interface {
	session.Session
	Info() session.Info
}

// Reconciler applies saved configuration to the live session.
// This allows the API to trigger and observe reconciles without owning them.
type Reconciler interface {
	Request()
	Wait()
	LastResult() reconcile.Result
	Runs() int
	InProgress() bool
}

// Handler manages all API endpoints and dependencies.
type Handler struct {
	editor       *service.RouteEditor
	session      SessionController
	reconciler   Reconciler
	configHasher *config.ConfigHasher
	validator    *service.ValidationService
	startTimeout time.Duration
}

// HandlerOptions are the dependencies of a Handler. ConfigHasher and
// Validator may be nil.
type HandlerOptions struct {
	Editor       *service.RouteEditor
	Session      SessionController
	Reconciler   Reconciler
	ConfigHasher *config.ConfigHasher
	Validator    *service.ValidationService
	StartTimeout time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(opts HandlerOptions) *Handler {
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = config.DefaultStartTimeoutMs * time.Millisecond
	}
	if opts.Validator == nil {
		opts.Validator = service.NewValidationService()
	}
	return &Handler{
		editor:       opts.Editor,
		session:      opts.Session,
		reconciler:   opts.Reconciler,
		configHasher: opts.ConfigHasher,
		validator:    opts.Validator,
		startTimeout: opts.StartTimeout,
	}
}

// view runs fn against the current draft or the stored configuration.
func (h *Handler) view(w http.ResponseWriter, fn func(cfg *route.Config) error) bool {
	if err := h.editor.View(fn); err != nil {
		writeDomainError(w, err)
		return false
	}
	return true
}

// edit applies fn to the draft.
func (h *Handler) edit(w http.ResponseWriter, fn func(cfg *route.Config) error) bool {
	if err := h.editor.Edit(fn); err != nil {
		writeDomainError(w, err)
		return false
	}
	return true
}

// findRule returns the rule with id or a not-found error.
func findRule(cfg *route.Config, id string) (*route.Rule, error) {
	rule := cfg.Rule(id)
	if rule == nil {
		return nil, errors.NewNotFoundError("rule " + id + " not found")
	}
	return rule, nil
}

// invalid wraps an input error from a setter.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return errors.NewValidationError("invalid value", err)
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(DataResponse{Data: data}); err != nil {
		log.Warnf("Failed to write response: %v", err)
	}
}

// writeJSONData writes a successful JSON response with data.
func writeJSONData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// writeCreated writes a 201 Created response with data.
func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

// writeAccepted writes a 202 Accepted response with data.
func writeAccepted(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusAccepted, data)
}

// writeNoContent writes a 204 No Content response.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON decodes JSON from the request body.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
