package session

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestProcessEngine_CommandLine(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
		wantErr bool
	}{
		{"config and tun", "sing-box run -c {{config}} --iface {{tun}}", []string{"sing-box", "run", "-c", "/tmp/rules.json", "--iface", "tun7"}, false},
		{"no variables", "engine --static", []string{"engine", "--static"}, false},
		{"unknown variable", "engine {{file}}", nil, true},
		{"unclosed tag", "engine {{config", nil, true},
		{"empty", "   ", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewProcessEngine(EngineOptions{Command: tt.command, ConfigPath: "/tmp/rules.json", TunName: "tun7"})
			got, err := e.CommandLine()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CommandLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("CommandLine() = %v, want %v", got, tt.want)
			}
		})
	}
}

type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
	signal   chan Status
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{signal: make(chan Status, 16)}
}

func (r *statusRecorder) report(s Status) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
	r.signal <- s
}

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s is not available", name)
	}
}

func TestProcessEngine_Run(t *testing.T) {
	requireBinary(t, "sleep")

	rulesPath := filepath.Join(t.TempDir(), "engine", "rules.json")
	e := NewProcessEngine(EngineOptions{
		Command:       "sleep 30",
		ConfigPath:    rulesPath,
		TunName:       "tun-test",
		ProbeInterval: 10 * time.Millisecond,
		StopTimeout:   time.Second,
		Rules:         func() ([]byte, error) { return []byte(`{"rules":[]}`), nil },
	})
	e.processes = func() ([]ProcessInfo, error) { return nil, nil }

	var mu sync.Mutex
	up := true
	e.linkUp = func(string) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		return up, nil
	}

	recorder := newStatusRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- e.Run(ctx, recorder.report) }()

	expect := func(want Status) {
		t.Helper()
		select {
		case got := <-recorder.signal:
			if got != want {
				t.Fatalf("Expected %s, got %s", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for %s", want)
		}
	}

	expect(StatusConnected)

	content, err := os.ReadFile(rulesPath)
	if err != nil || string(content) != `{"rules":[]}` {
		t.Errorf("Expected rules to be written before start, got %q, %v", content, err)
	}

	mu.Lock()
	up = false
	mu.Unlock()
	expect(StatusReasserting)

	mu.Lock()
	up = true
	mu.Unlock()
	expect(StatusConnected)

	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Errorf("Expected clean stop, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Engine did not stop after cancel")
	}
}

func TestProcessEngine_UnexpectedExit(t *testing.T) {
	requireBinary(t, "false")

	e := NewProcessEngine(EngineOptions{Command: "false", TunName: "tun-test", ProbeInterval: 10 * time.Millisecond})
	e.processes = func() ([]ProcessInfo, error) { return nil, nil }
	e.linkUp = func(string) (bool, error) { return false, nil }

	if err := e.Run(context.Background(), func(Status) {}); err == nil {
		t.Error("Expected error when the engine exits on its own")
	}
}

func TestProcessEngine_RulesError(t *testing.T) {
	e := NewProcessEngine(EngineOptions{
		Command:    "engine -c {{config}}",
		ConfigPath: filepath.Join(t.TempDir(), "rules.json"),
		Rules:      func() ([]byte, error) { return nil, errors.New("store unavailable") },
	})

	if err := e.Run(context.Background(), func(Status) {}); err == nil {
		t.Error("Expected rules error to abort the start")
	}
}

func TestProcessEngine_WriteRulesKeepsUnchangedFile(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "engine", "rules.json")
	content := []byte(`{"rules":[{"outbound_tag":"proxy"}]}`)
	e := NewProcessEngine(EngineOptions{
		Command:    "engine -c {{config}}",
		ConfigPath: rulesPath,
		Rules:      func() ([]byte, error) { return content, nil },
	})

	if err := e.writeRules(); err != nil {
		t.Fatalf("writeRules failed: %v", err)
	}
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(rulesPath, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	if err := e.writeRules(); err != nil {
		t.Fatalf("writeRules failed: %v", err)
	}
	info, err := os.Stat(rulesPath)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.ModTime().Equal(old) {
		t.Error("Expected unchanged rules file not to be rewritten")
	}

	content = []byte(`{"rules":[]}`)
	if err := e.writeRules(); err != nil {
		t.Fatalf("writeRules failed: %v", err)
	}
	got, _ := os.ReadFile(rulesPath)
	if string(got) != string(content) {
		t.Errorf("Expected rewritten rules, got %s", got)
	}
}

func TestFindProcesses(t *testing.T) {
	lister := func() ([]ProcessInfo, error) {
		return []ProcessInfo{
			{PID: 10, Name: "xray"},
			{PID: 11, Name: "sing-box"},
			{PID: 12, Name: "a-very-long-eng"},
			{PID: os.Getpid(), Name: "xray"},
		}, nil
	}

	found, err := FindProcesses(lister, "/usr/bin/xray")
	if err != nil {
		t.Fatalf("FindProcesses failed: %v", err)
	}
	if len(found) != 1 || found[0].PID != 10 {
		t.Errorf("Expected only pid 10, got %v", found)
	}

	found, _ = FindProcesses(lister, "a-very-long-engine-name")
	if len(found) != 1 || found[0].PID != 12 {
		t.Errorf("Expected truncated name to match, got %v", found)
	}

	_, err = FindProcesses(func() ([]ProcessInfo, error) { return nil, errors.New("denied") }, "xray")
	if err == nil {
		t.Error("Expected lister error to be returned")
	}
}
