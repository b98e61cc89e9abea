package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/valyala/fasttemplate"

	"github.com/maksimkurb/keen-route/src/internal/hashing"
	"github.com/maksimkurb/keen-route/src/internal/log"
)

// Variables available in the engine command line.
const (
	TmplConfig = "config"
	TmplTun    = "tun"
)

const (
	defaultProbeInterval = 200 * time.Millisecond
	defaultStopTimeout   = 3 * time.Second
)

// EngineOptions configures a ProcessEngine.
type EngineOptions struct {
	// Command is the engine command line, e.g. "xray run -c {{config}}".
	Command string
	// ConfigPath is where the rules produced by Rules are written before each start.
	ConfigPath string
	// TunName is the TUN interface the engine brings up.
	TunName string
	// StopTimeout is how long the engine may take to exit after an interrupt.
	StopTimeout time.Duration
	// ProbeInterval is how often the TUN link is checked.
	ProbeInterval time.Duration
	// Rules renders the engine routing configuration. Nil leaves ConfigPath untouched.
	Rules func() ([]byte, error)
}

// ProcessEngine runs the tunnel engine as a child process.
type ProcessEngine struct {
	opts EngineOptions

	linkUp    func(name string) (bool, error)
	processes ProcessLister
}

// NewProcessEngine creates an engine using the netlink TUN probe and the
// system process table.
func NewProcessEngine(opts EngineOptions) *ProcessEngine {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = defaultProbeInterval
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	return &ProcessEngine{
		opts:      opts,
		linkUp:    TunLinkUp,
		processes: SystemProcesses,
	}
}

// CommandLine expands the command template into program and arguments.
func (e *ProcessEngine) CommandLine() ([]string, error) {
	tmpl, err := fasttemplate.NewTemplate(e.opts.Command, "{{", "}}")
	if err != nil {
		return nil, fmt.Errorf("invalid engine command: %w", err)
	}

	expanded, err := tmpl.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		switch strings.TrimSpace(tag) {
		case TmplConfig:
			return w.Write([]byte(e.opts.ConfigPath))
		case TmplTun:
			return w.Write([]byte(e.opts.TunName))
		default:
			return 0, fmt.Errorf("unknown variable {{%s}} in engine command", tag)
		}
	})
	if err != nil {
		return nil, err
	}

	args := strings.Fields(expanded)
	if len(args) == 0 {
		return nil, fmt.Errorf("engine command is empty")
	}
	return args, nil
}

// Run writes the engine rules, starts the engine and reports connected while
// the TUN link is up. Cancelling ctx interrupts the engine; it is killed if
// it does not exit within StopTimeout.
func (e *ProcessEngine) Run(ctx context.Context, report func(Status)) error {
	args, err := e.CommandLine()
	if err != nil {
		return err
	}

	if err := e.writeRules(); err != nil {
		return err
	}

	e.warnAboutOrphans(args[0])

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = e.opts.StopTimeout

	output := newLogWriter(filepath.Base(args[0]))
	defer output.Close()
	cmd.Stdout = output
	cmd.Stderr = output

	log.Debugf("Executing engine: %s", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	ticker := time.NewTicker(e.opts.ProbeInterval)
	defer ticker.Stop()

	connected := false
	probe := func() {
		up, err := e.linkUp(e.opts.TunName)
		if err != nil {
			log.Debugf("Failed to probe %s: %v", e.opts.TunName, err)
			return
		}
		switch {
		case up && !connected:
			connected = true
			report(StatusConnected)
		case !up && connected:
			connected = false
			log.Warnf("Interface %s went down", e.opts.TunName)
			report(StatusReasserting)
		}
	}
	probe()

	for {
		select {
		case err := <-exited:
			if ctx.Err() != nil {
				return nil
			}
			if err == nil {
				return fmt.Errorf("engine exited")
			}
			return fmt.Errorf("engine exited: %w", err)
		case <-ticker.C:
			probe()
		}
	}
}

func (e *ProcessEngine) writeRules() error {
	if e.opts.Rules == nil || e.opts.ConfigPath == "" {
		return nil
	}

	data, err := e.opts.Rules()
	if err != nil {
		return fmt.Errorf("failed to render engine rules: %w", err)
	}
	sum := hashing.Checksum(data)
	if existing, err := hashing.FileChecksum(e.opts.ConfigPath); err == nil && existing == sum {
		log.Debugf("Engine rules at %s are up to date (md5 %s)", e.opts.ConfigPath, sum)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(e.opts.ConfigPath), 0755); err != nil {
		return fmt.Errorf("failed to create engine config directory: %w", err)
	}
	if err := os.WriteFile(e.opts.ConfigPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write engine rules: %w", err)
	}
	log.Debugf("Engine rules written to %s (md5 %s)", e.opts.ConfigPath, sum)
	return nil
}

func (e *ProcessEngine) warnAboutOrphans(program string) {
	orphans, err := FindProcesses(e.processes, program)
	if err != nil {
		log.Debugf("Failed to list processes: %v", err)
		return
	}
	for _, p := range orphans {
		log.Warnf("Engine process %s (pid %d) is already running and may hold %s", p.Name, p.PID, e.opts.TunName)
	}
}

// logWriter forwards engine output to the debug log line by line.
type logWriter struct {
	pw   *io.PipeWriter
	done chan struct{}
}

func newLogWriter(prefix string) *logWriter {
	pr, pw := io.Pipe()
	w := &logWriter{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			log.Debugf("[%s] %s", prefix, scanner.Text())
		}
		_ = pr.Close()
	}()
	return w
}

func (w *logWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *logWriter) Close() {
	_ = w.pw.Close()
	<-w.done
}
