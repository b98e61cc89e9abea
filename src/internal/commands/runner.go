package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/log"
)

// RestartableRunner runs a function in its own goroutine and restarts it
// with exponential backoff when it fails or panics. A nil return ends it.
type RestartableRunner struct {
	name    string
	runFunc func(ctx context.Context) error
	cfg     RunnerConfig

	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
	lastError    error
	restartCount int
}

// RunnerConfig contains configuration for RestartableRunner.
type RunnerConfig struct {
	Name           string
	MaxRestarts    int           // 0 = unlimited restarts
	RestartBackoff time.Duration // default 1s
	MaxBackoff     time.Duration // default 30s
	StopTimeout    time.Duration // default 30s
}

// NewRestartableRunner creates a new restartable runner.
func NewRestartableRunner(cfg RunnerConfig, runFunc func(ctx context.Context) error) *RestartableRunner {
	if cfg.RestartBackoff <= 0 {
		cfg.RestartBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 30 * time.Second
	}
	return &RestartableRunner{name: cfg.Name, runFunc: runFunc, cfg: cfg}
}

// Start launches the runner. It fails if the runner is already running.
func (r *RestartableRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("%s is already running", r.name)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	r.restartCount = 0
	r.lastError = nil

	go r.loop(runCtx, r.done)
	return nil
}

// Stop cancels the runner and waits for the current run to return.
func (r *RestartableRunner) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()

	// Wait for the runner to finish
	select {
	case <-done:
		return nil
	case <-time.After(r.cfg.StopTimeout):
		return fmt.Errorf("%s: timeout waiting for stop", r.name)
	}
}

// Done is closed when the runner has finished for good.
func (r *RestartableRunner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// IsRunning reports whether the runner loop is still active.
func (r *RestartableRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// LastError returns the error of the most recent run.
func (r *RestartableRunner) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}

// RestartCount returns how many times the function was restarted.
func (r *RestartableRunner) RestartCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restartCount
}

// loop runs the function until it exits cleanly, the context is cancelled
// or the restart limit is reached.
func (r *RestartableRunner) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		close(done)
	}()

	backoff := r.cfg.RestartBackoff
	for {
		// Run the function with panic recovery
		err := r.runWithRecovery(ctx)

		r.mu.Lock()
		r.lastError = err
		r.mu.Unlock()

		if err == nil {
			log.Debugf("%s: exited cleanly", r.name)
			return
		}
		// Errors after cancellation are part of an intentional shutdown
		if ctx.Err() != nil {
			log.Debugf("%s: stopped", r.name)
			return
		}

		r.mu.Lock()
		r.restartCount++
		restarts := r.restartCount
		r.mu.Unlock()

		if r.cfg.MaxRestarts > 0 && restarts >= r.cfg.MaxRestarts {
			log.Errorf("%s: max restarts (%d) reached, giving up. Last error: %v", r.name, r.cfg.MaxRestarts, err)
			return
		}

		log.Errorf("%s: crashed with error: %v. Restarting in %v (restart #%d)", r.name, err, backoff, restarts)

		// Wait for the backoff, unless we are stopped meanwhile
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		// Exponential backoff for the next restart
		backoff = min(backoff*2, r.cfg.MaxBackoff)
	}
}

// runWithRecovery turns a panic of the function into an error.
func (r *RestartableRunner) runWithRecovery(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return r.runFunc(ctx)
}
