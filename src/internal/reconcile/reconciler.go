package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/errors"
	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/session"
)

const (
	DefaultGraceDelay    = 500 * time.Millisecond
	DefaultSettleTimeout = 5 * time.Second
	DefaultStartTimeout  = 10 * time.Second
)

// Options controls reconcile timing. Zero values select the defaults.
type Options struct {
	// GraceDelay is the minimum time between Stop and Start.
	GraceDelay time.Duration
	// SettleTimeout bounds the wait for the session to report disconnected.
	SettleTimeout time.Duration
	// StartTimeout bounds Start.
	StartTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.GraceDelay <= 0 {
		o.GraceDelay = DefaultGraceDelay
	}
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = DefaultSettleTimeout
	}
	if o.StartTimeout <= 0 {
		o.StartTimeout = DefaultStartTimeout
	}
	return o
}

// Action is what a reconcile did.
type Action string

const (
	ActionNone      Action = ""
	ActionSkipped   Action = "skipped"
	ActionRestarted Action = "restarted"
	ActionFailed    Action = "failed"
)

// Result describes a finished reconcile.
type Result struct {
	Action     Action        `json:"action"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// Reconciler restarts a session so that it picks up the latest configuration.
type Reconciler struct {
	session session.Session
	opts    Options

	mu      sync.Mutex
	idle    *sync.Cond
	running bool
	pending bool
	closed  bool
	last    Result
	runs    int
}

// New creates a reconciler for s.
func New(s session.Session, opts Options) *Reconciler {
	r := &Reconciler{
		session: s,
		opts:    opts.withDefaults(),
	}
	r.idle = sync.NewCond(&r.mu)
	return r
}

// Request schedules a reconcile and returns at once. While a reconcile is in
// progress, any number of requests result in exactly one more run.
func (r *Reconciler) Request() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		log.Warnf("Reconcile requested after shutdown, ignoring")
		return
	}
	if r.running {
		r.pending = true
		log.Debugf("Reconcile already in progress, scheduling a follow-up")
		return
	}

	r.running = true
	go r.loop()
}

func (r *Reconciler) loop() {
	for {
		result := r.reconcile()

		r.mu.Lock()
		r.last = result
		r.runs++
		if r.pending {
			r.pending = false
			r.mu.Unlock()
			continue
		}
		r.running = false
		r.idle.Broadcast()
		r.mu.Unlock()
		return
	}
}

// Wait blocks until no reconcile is running or scheduled.
func (r *Reconciler) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.running {
		r.idle.Wait()
	}
}

// Close rejects new requests and waits for the running ones. A reconcile in
// progress is never interrupted.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.Wait()
}

// LastResult returns the result of the most recent reconcile.
func (r *Reconciler) LastResult() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Runs returns how many reconciles have finished.
func (r *Reconciler) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

// InProgress reports whether a reconcile is running.
func (r *Reconciler) InProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reconciler) reconcile() Result {
	result := Result{StartedAt: time.Now()}
	finish := func(action Action, err error) Result {
		result.Action = action
		result.FinishedAt = time.Now()
		result.Duration = result.FinishedAt.Sub(result.StartedAt)
		if err != nil {
			result.Err = err
			result.Error = err.Error()
			log.Errorf("%v", err)
		}
		return result
	}

	status := r.session.Status()
	if status != session.StatusConnected {
		log.Debugf("Tunnel session is %s, nothing to reconcile", status)
		return finish(ActionSkipped, nil)
	}

	log.Infof("Restarting tunnel session to apply routing changes...")

	updates, unsubscribe := r.session.Subscribe()
	defer unsubscribe()

	r.session.Stop()
	stoppedAt := time.Now()

	if err := r.waitStopped(updates, stoppedAt); err != nil {
		return finish(ActionFailed, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.StartTimeout)
	defer cancel()
	if err := r.session.Start(ctx); err != nil {
		return finish(ActionFailed, errors.NewReconcileError("failed to start tunnel session", err))
	}

	log.Infof("Tunnel session restarted in %v", time.Since(stoppedAt).Round(time.Millisecond))
	return finish(ActionRestarted, nil)
}

// waitStopped returns once the session is disconnected and at least
// GraceDelay has passed since stoppedAt.
func (r *Reconciler) waitStopped(updates <-chan session.Status, stoppedAt time.Time) error {
	disconnected := r.session.Status() == session.StatusDisconnected

	grace := time.NewTimer(r.opts.GraceDelay - time.Since(stoppedAt))
	defer grace.Stop()
	settle := time.NewTimer(r.opts.SettleTimeout - time.Since(stoppedAt))
	defer settle.Stop()

	graceDone := false
	for !disconnected || !graceDone {
		select {
		case status, ok := <-updates:
			if !ok {
				return errors.New(errors.ErrCodeReconcile, "status subscription closed while waiting for disconnect")
			}
			if status == session.StatusDisconnected {
				disconnected = true
			}
		case <-grace.C:
			graceDone = true
		case <-settle.C:
			if !disconnected {
				return errors.New(errors.ErrCodeReconcile,
					fmt.Sprintf("tunnel session did not disconnect within %v", r.opts.SettleTimeout))
			}
		}
	}
	return nil
}
