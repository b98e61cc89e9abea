package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/session"
)

// MockSession is a mock implementation of session.Session.
//
// Function fields override the default behavior. By default Stop moves the
// session to disconnecting and, after StopDelay, to disconnected; Start
// moves it to connected or fails with StartErr.
//
// Example usage:
//
//	s := mocks.NewMockSession(session.StatusConnected)
//	s.StopDelay = 100 * time.Millisecond
//	reconciler := reconcile.New(s, reconcile.Options{})
type MockSession struct {
	// StatusFunc is called by Status if not nil
	StatusFunc func() session.Status
	// StopFunc is called by Stop if not nil
	StopFunc func()
	// StartFunc is called by Start if not nil
	StartFunc func(ctx context.Context) error

	// StopDelay is how long the default Stop takes to disconnect.
	StopDelay time.Duration
	// NeverDisconnect keeps the default Stop in disconnecting forever.
	NeverDisconnect bool
	// StartErr is returned by the default Start.
	StartErr error

	mu         sync.Mutex
	status     session.Status
	subs       map[int]chan session.Status
	nextSub    int
	stopTimes  []time.Time
	startTimes []time.Time
}

// NewMockSession creates a mock session in the given status.
func NewMockSession(status session.Status) *MockSession {
	return &MockSession{
		status: status,
		subs:   make(map[int]chan session.Status),
	}
}

// Status returns the current status.
func (m *MockSession) Status() session.Status {
	if m.StatusFunc != nil {
		return m.StatusFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Stop records the call and disconnects the session.
func (m *MockSession) Stop() {
	m.mu.Lock()
	m.stopTimes = append(m.stopTimes, time.Now())
	m.mu.Unlock()

	if m.StopFunc != nil {
		m.StopFunc()
		return
	}

	m.SetStatus(session.StatusDisconnecting)
	if m.NeverDisconnect {
		return
	}
	go func() {
		time.Sleep(m.StopDelay)
		m.SetStatus(session.StatusDisconnected)
	}()
}

// Start records the call and connects the session.
func (m *MockSession) Start(ctx context.Context) error {
	m.mu.Lock()
	m.startTimes = append(m.startTimes, time.Now())
	m.mu.Unlock()

	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	if m.StartErr != nil {
		return m.StartErr
	}
	m.SetStatus(session.StatusConnecting)
	m.SetStatus(session.StatusConnected)
	return nil
}

// Subscribe returns a channel with the latest status transitions.
func (m *MockSession) Subscribe() (<-chan session.Status, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subs == nil {
		m.subs = make(map[int]chan session.Status)
	}
	id := m.nextSub
	m.nextSub++
	ch := make(chan session.Status, 1)
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

// SetStatus changes the status and notifies subscribers.
func (m *MockSession) SetStatus(status session.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status = status
	for _, ch := range m.subs {
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

// StopCalls returns how many times Stop was called.
func (m *MockSession) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stopTimes)
}

// StartCalls returns how many times Start was called.
func (m *MockSession) StartCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.startTimes)
}

// StopTimes returns when Stop was called.
func (m *MockSession) StopTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.stopTimes...)
}

// StartTimes returns when Start was called.
func (m *MockSession) StartTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.startTimes...)
}

// Subscribers returns the number of active subscriptions.
func (m *MockSession) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Info returns the current status as session info.
func (m *MockSession) Info() session.Info {
	return session.Info{Status: m.Status()}
}
