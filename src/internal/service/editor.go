package service

import (
	"sync"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/errors"
	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/route"
)

// ReconcileRequester schedules a reconcile of the live session.
type ReconcileRequester interface {
	Request()
}

// EditorState describes the editing session.
type EditorState struct {
	Open     bool      `json:"open"`
	Dirty    bool      `json:"dirty"`
	OpenedAt time.Time `json:"opened_at,omitempty"`
}

// RouteEditor is the editing session for the routing configuration.
//
// The configuration is loaded once when the session begins, edits are applied
// to the in-memory draft one at a time, and the draft is persisted exactly
// once when the session ends. Saving requests a reconcile of the live session.
type RouteEditor struct {
	store      route.Store
	reconciler ReconcileRequester

	mu       sync.Mutex
	draft    *route.Config
	dirty    bool
	openedAt time.Time
}

// NewRouteEditor creates an editor persisting to store. reconciler may be nil.
func NewRouteEditor(store route.Store, reconciler ReconcileRequester) *RouteEditor {
	return &RouteEditor{store: store, reconciler: reconciler}
}

// Begin opens the editing session. If one is already open it is kept.
func (e *RouteEditor) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beginLocked()
}

func (e *RouteEditor) beginLocked() error {
	if e.draft != nil {
		return nil
	}

	cfg, err := e.store.Load()
	if err != nil {
		return errors.NewConfigError("failed to load routing configuration", err)
	}

	e.draft = cfg
	e.dirty = false
	e.openedAt = time.Now()
	log.Debugf("Routing editor opened (%d rules)", cfg.Len())
	return nil
}

// Edit applies fn to the draft, opening the session if needed. The draft
// is only changed when fn succeeds.
func (e *RouteEditor) Edit(fn func(cfg *route.Config) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.beginLocked(); err != nil {
		return err
	}

	working := e.draft.Clone()
	if err := fn(working); err != nil {
		return err
	}

	e.draft = working
	e.dirty = true
	return nil
}

// View calls fn with the draft when a session is open, otherwise with the
// stored configuration. fn must not modify cfg.
func (e *RouteEditor) View(fn func(cfg *route.Config) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft != nil {
		return fn(e.draft)
	}

	cfg, err := e.store.Load()
	if err != nil {
		return errors.NewConfigError("failed to load routing configuration", err)
	}
	return fn(cfg)
}

// End validates the draft, persists it once and requests a reconcile.
// An invalid draft stays open so it can be corrected. A draft the store
// failed to save also stays open, although the reconcile is still requested. Ending without an open
// session does nothing.
func (e *RouteEditor) End() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft == nil {
		return nil
	}

	if err := e.draft.Validate(); err != nil {
		return errors.NewValidationError("routing configuration is invalid", err)
	}

	store := &saveRecorder{Store: e.store}
	e.draft.Save(store, func() {
		if e.reconciler != nil {
			e.reconciler.Request()
		}
	})
	if store.err != nil {
		// Keep the draft so the commit can be retried
		return errors.NewConfigError("failed to save routing configuration", store.err)
	}

	e.draft = nil
	e.dirty = false
	return nil
}

// saveRecorder remembers the outcome of the last Save.
type saveRecorder struct {
	route.Store
	err error
}

func (s *saveRecorder) Save(cfg *route.Config) error {
	s.err = s.Store.Save(cfg)
	return s.err
}

// Discard drops the draft without saving.
func (e *RouteEditor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft != nil {
		log.Debugf("Routing editor discarded")
	}
	e.draft = nil
	e.dirty = false
}

// State returns whether a session is open and has unsaved edits.
func (e *RouteEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft == nil {
		return EditorState{}
	}
	return EditorState{Open: true, Dirty: e.dirty, OpenedAt: e.openedAt}
}
