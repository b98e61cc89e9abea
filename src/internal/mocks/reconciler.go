package mocks

import "sync"

// MockReconciler counts reconcile requests.
type MockReconciler struct {
	// RequestFunc is called by Request if not nil
	RequestFunc func()

	mu           sync.Mutex
	requestCalls int
}

// Request records the call.
func (m *MockReconciler) Request() {
	m.mu.Lock()
	m.requestCalls++
	m.mu.Unlock()

	if m.RequestFunc != nil {
		m.RequestFunc()
	}
}

// RequestCalls returns how many reconciles were requested.
func (m *MockReconciler) RequestCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCalls
}
