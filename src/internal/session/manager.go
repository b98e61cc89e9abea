package session

import (
	"context"
	"sync"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/errors"
	"github.com/maksimkurb/keen-route/src/internal/log"
)

// Engine runs the tunnel until ctx is cancelled or it fails. It calls report
// with StatusConnected once traffic can flow and with StatusReasserting when
// the tunnel is temporarily lost. Returning nil after ctx is cancelled is a
// clean stop.
type Engine interface {
	Run(ctx context.Context, report func(Status)) error
}

// Info describes the session for status displays.
type Info struct {
	Status    Status    `json:"status"`
	Since     time.Time `json:"since"`
	LastError string    `json:"last_error,omitempty"`
}

// Manager implements Session by running an Engine in a goroutine.
type Manager struct {
	engine Engine

	mu      sync.Mutex
	status  Status
	since   time.Time
	lastErr error
	cancel  context.CancelFunc
	done    chan struct{}
	subs    map[int]chan Status
	nextSub int
}

// NewManager creates a disconnected session driving engine.
func NewManager(engine Engine) *Manager {
	return &Manager{
		engine: engine,
		status: StatusDisconnected,
		since:  time.Now(),
		subs:   make(map[int]chan Status),
	}
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Info returns the current status with the time it was entered and the
// error of the last failed run.
func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := Info{Status: m.status, Since: m.since}
	if m.lastErr != nil {
		info.LastError = m.lastErr.Error()
	}
	return info
}

// Start launches the engine and waits until it reports connected.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.status != StatusDisconnected {
		status := m.status
		m.mu.Unlock()
		return errors.New(errors.ErrCodeSession, "session is "+status.String())
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.lastErr = nil
	m.setStatusLocked(StatusConnecting)
	m.mu.Unlock()

	log.Infof("Starting tunnel session...")

	ready := make(chan struct{})
	failed := make(chan error, 1)
	go m.run(runCtx, done, ready, failed)

	select {
	case <-ready:
		log.Infof("Tunnel session connected")
		return nil
	case err := <-failed:
		return errors.NewSessionError("tunnel engine failed to start", err)
	case <-done:
		// failed is filled before done is closed
		select {
		case err := <-failed:
			return errors.NewSessionError("tunnel engine failed to start", err)
		default:
			return errors.New(errors.ErrCodeSession, "tunnel engine exited before connecting")
		}
	case <-ctx.Done():
		m.Stop()
		return errors.NewSessionError("tunnel session did not connect in time", ctx.Err())
	}
}

func (m *Manager) run(ctx context.Context, done chan struct{}, ready chan struct{}, failed chan<- error) {
	defer close(done)

	var readyOnce sync.Once
	err := m.engine.Run(ctx, func(status Status) {
		switch status {
		case StatusConnected, StatusReasserting:
		default:
			log.Warnf("Ignoring status %s reported by the engine", status)
			return
		}

		m.mu.Lock()
		// Reports after Stop must not resurrect the session.
		if m.status != StatusDisconnecting {
			m.setStatusLocked(status)
		}
		m.mu.Unlock()

		if status == StatusConnected {
			readyOnce.Do(func() { close(ready) })
		}
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.lastErr = err
		failed <- err
		if m.status != StatusConnecting {
			log.Errorf("Tunnel engine stopped unexpectedly: %v", err)
		}
	} else if m.status != StatusDisconnecting {
		log.Warnf("Tunnel engine exited")
	} else {
		log.Infof("Tunnel session disconnected")
	}

	m.cancel = nil
	m.setStatusLocked(StatusDisconnected)
}

// Stop asks the engine to exit. The status moves to disconnecting at once and
// to disconnected when the engine has exited.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == StatusDisconnected || m.status == StatusDisconnecting {
		return
	}

	log.Infof("Stopping tunnel session...")
	m.setStatusLocked(StatusDisconnecting)
	if m.cancel != nil {
		m.cancel()
	}
}

// Shutdown stops the session and waits for the engine to exit or ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	m.Stop()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.NewSessionError("timeout waiting for tunnel engine to exit", ctx.Err())
	}
}

func (m *Manager) Subscribe() (<-chan Status, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Status, 1)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

func (m *Manager) setStatusLocked(status Status) {
	if m.status == status {
		return
	}
	log.Debugf("Tunnel session: %s -> %s", m.status, status)
	m.status = status
	m.since = time.Now()

	for _, ch := range m.subs {
		// Keep only the newest value for readers that fell behind.
		select {
		case ch <- status:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- status
		}
	}
}
