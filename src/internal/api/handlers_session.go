package api

import (
	"context"
	"net/http"

	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/route"
	"github.com/maksimkurb/keen-route/src/internal/session"
)

// Version information set via ldflags at build time.
var (
	Version = "dev"
	Date    = "n/a"
	Commit  = "n/a"
)

func (h *Handler) reconcileStatus() ReconcileStatus {
	return ReconcileStatus{
		InProgress: h.reconciler.InProgress(),
		Runs:       h.reconciler.Runs(),
		Last:       h.reconciler.LastResult(),
	}
}

// GetStatus returns the session, editor and reconcile state.
// GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Version:   VersionInfo{Version: Version, Date: Date, Commit: Commit},
		Session:   h.session.Info(),
		Editor:    h.editor.State(),
		Reconcile: h.reconcileStatus(),
	}

	if h.configHasher != nil && resp.Session.Status == session.StatusConnected {
		stale, err := h.configHasher.IsStale()
		if err != nil {
			log.Warnf("Failed to compare config hashes: %v", err)
		} else {
			resp.ConfigStale = &stale
		}
	}

	writeJSONData(w, resp)
}

// ControlSession starts, stops or restarts the tunnel session.
// POST /api/v1/session
func (h *Handler) ControlSession(w http.ResponseWriter, r *http.Request) {
	var req SessionControlRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	var message string
	switch req.State {
	case "started":
		ctx, cancel := context.WithTimeout(r.Context(), h.startTimeout)
		defer cancel()
		if err := h.session.Start(ctx); err != nil {
			writeDomainError(w, err)
			return
		}
		message = "Session started"
	case "stopped":
		h.session.Stop()
		message = "Session is stopping"
	case "restarted":
		h.reconciler.Request()
		message = "Reconcile scheduled"
	default:
		WriteInvalidRequest(w, "state must be one of: started, stopped, restarted")
		return
	}

	writeJSONData(w, SessionControlResponse{Status: h.session.Status(), Message: message})
}

// Reconcile schedules a reconcile. With ?wait=true the response is sent
// once the reconcile has finished.
// POST /api/v1/session/reconcile
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	h.reconciler.Request()

	if r.URL.Query().Get("wait") != "true" {
		writeAccepted(w, h.reconcileStatus())
		return
	}

	h.reconciler.Wait()
	writeJSONData(w, h.reconcileStatus())
}

// GetEditor returns the state of the editing session.
// GET /api/v1/editor
func (h *Handler) GetEditor(w http.ResponseWriter, r *http.Request) {
	writeJSONData(w, h.editor.State())
}

// CommitEditor validates and saves the draft, then schedules a reconcile.
// An invalid draft, or one the store failed to save, is kept and the error
// is returned.
// POST /api/v1/editor/commit
func (h *Handler) CommitEditor(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.End(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONData(w, h.editor.State())
}

// DiscardEditor drops the draft.
// POST /api/v1/editor/discard
func (h *Handler) DiscardEditor(w http.ResponseWriter, r *http.Request) {
	h.editor.Discard()
	writeJSONData(w, h.editor.State())
}

// CheckHealth reports whether the configuration is valid and the session is connected.
// GET /api/v1/health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]CheckResult)

	err := h.editor.View(func(cfg *route.Config) error {
		return cfg.Validate()
	})
	if err != nil {
		checks["routing"] = CheckResult{Passed: false, Message: err.Error()}
	} else {
		checks["routing"] = CheckResult{Passed: true}
	}

	info := h.session.Info()
	if info.Status == session.StatusConnected {
		checks["session"] = CheckResult{Passed: true, Message: info.Status.String()}
	} else {
		checks["session"] = CheckResult{Passed: false, Message: info.Status.String()}
	}

	last := h.reconciler.LastResult()
	if last.Error != "" {
		checks["reconcile"] = CheckResult{Passed: false, Message: last.Error}
	} else {
		checks["reconcile"] = CheckResult{Passed: true}
	}

	healthy := true
	for _, check := range checks {
		healthy = healthy && check.Passed
	}

	writeJSONData(w, HealthCheckResponse{Healthy: healthy, Checks: checks})
}
