package session

import (
	"context"
	"errors"
	"testing"
	"time"

	kerrors "github.com/maksimkurb/keen-route/src/internal/errors"
)

// scriptedEngine connects immediately (unless told otherwise) and runs until cancelled.
type scriptedEngine struct {
	startErr   error
	neverReady bool
	runs       int
	report     func(Status)
}

func (e *scriptedEngine) Run(ctx context.Context, report func(Status)) error {
	e.runs++
	e.report = report
	if e.startErr != nil {
		return e.startErr
	}
	if !e.neverReady {
		report(StatusConnected)
	}
	<-ctx.Done()
	return nil
}

func waitForStatus(t *testing.T, ch <-chan Status, want Status) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("Timed out waiting for status %s", want)
		}
	}
}

func TestManager_StartStop(t *testing.T) {
	engine := &scriptedEngine{}
	m := NewManager(engine)

	if m.Status() != StatusDisconnected {
		t.Fatalf("Expected disconnected, got %s", m.Status())
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if m.Status() != StatusConnected {
		t.Errorf("Expected connected, got %s", m.Status())
	}

	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Stop()
	waitForStatus(t, ch, StatusDisconnected)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Second start failed: %v", err)
	}
	if engine.runs != 2 {
		t.Errorf("Expected engine to run twice, got %d", engine.runs)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	if m.Status() != StatusDisconnected {
		t.Errorf("Expected disconnected after shutdown, got %s", m.Status())
	}
}

func TestManager_StartTwice(t *testing.T) {
	m := NewManager(&scriptedEngine{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	err := m.Start(context.Background())
	if !kerrors.HasCode(err, kerrors.ErrCodeSession) {
		t.Errorf("Expected session error, got %v", err)
	}
}

func TestManager_EngineFailure(t *testing.T) {
	m := NewManager(&scriptedEngine{startErr: errors.New("no such binary")})

	err := m.Start(context.Background())
	if !kerrors.HasCode(err, kerrors.ErrCodeSession) {
		t.Fatalf("Expected session error, got %v", err)
	}

	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()
	if m.Status() != StatusDisconnected {
		waitForStatus(t, ch, StatusDisconnected)
	}
	if m.Info().LastError == "" {
		t.Error("Expected last error to be recorded")
	}
}

func TestManager_StartTimeout(t *testing.T) {
	m := NewManager(&scriptedEngine{neverReady: true})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := m.Start(ctx); err == nil {
		t.Fatal("Expected timeout error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	if m.Status() != StatusDisconnected {
		t.Errorf("Expected disconnected, got %s", m.Status())
	}
}

func TestManager_SubscribersSeeTransitions(t *testing.T) {
	engine := &scriptedEngine{}
	m := NewManager(engine)

	ch, unsubscribe := m.Subscribe()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForStatus(t, ch, StatusConnected)

	engine.report(StatusReasserting)
	waitForStatus(t, ch, StatusReasserting)

	m.Stop()
	if m.Status() != StatusDisconnecting && m.Status() != StatusDisconnected {
		t.Errorf("Expected stop to take effect at once, got %s", m.Status())
	}
	waitForStatus(t, ch, StatusDisconnected)

	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after unsubscribe")
	}
}

func TestManager_SlowSubscriberGetsLatest(t *testing.T) {
	m := NewManager(&scriptedEngine{})
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	m.Stop()

	deadline := time.After(2 * time.Second)
	for m.Status() != StatusDisconnected {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for disconnect")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := <-ch; got != StatusDisconnected {
		t.Errorf("Expected only the latest status to be buffered, got %s", got)
	}
}
