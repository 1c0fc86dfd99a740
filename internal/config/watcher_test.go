package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linguaweave/linguaweave/internal/config"
)

const watcherValidYAML = `
server:
  log_level: info
providers:
  text:
    name: openai
  speech:
    name: elevenlabs
flows:
  temperature: 0.2
`

const watcherUpdatedYAML = `
server:
  log_level: debug
providers:
  text:
    name: openai
  speech:
    name: elevenlabs
flows:
  temperature: 0.9
`

const watcherInvalidYAML = `
server:
  log_level: bananas
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

// withListenAddr adds server.listen_addr to a config document.
func withListenAddr(doc, addr string) string {
	return strings.Replace(doc, "server:\n", "server:\n  listen_addr: \""+addr+"\"\n", 1)
}

// start runs w until the test ends.
func start(t *testing.T, w *config.Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	w, err := config.NewWatcher(cfgPath, nil, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := w.Current()
	if cfg == nil {
		t.Fatal("Current() returned nil after initial load")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
}

// recorder collects delivered changes.
type recorder struct {
	mu      sync.Mutex
	changes []config.Change
	signal  chan struct{}
}

func newRecorder() *recorder { return &recorder{signal: make(chan struct{}, 8)} }

func (r *recorder) record(c config.Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *recorder) all() []config.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]config.Change(nil), r.changes...)
}

func (r *recorder) wait(t *testing.T) config.Change {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered within timeout")
	}
	all := r.all()
	return all[len(all)-1]
}

func TestWatcher_DeliversDiff(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	rec := newRecorder()
	w, err := config.NewWatcher(cfgPath, rec.record, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start(t, w)

	time.Sleep(50 * time.Millisecond)
	writeFile(t, cfgPath, watcherUpdatedYAML)
	ch := rec.wait(t)

	if ch.Old.Server.LogLevel != config.LogInfo || ch.New.Server.LogLevel != config.LogDebug {
		t.Errorf("log levels = %q -> %q", ch.Old.Server.LogLevel, ch.New.Server.LogLevel)
	}
	if !ch.Diff.LogLevelChanged || !ch.Diff.FlowsChanged || ch.Diff.ProvidersChanged() {
		t.Errorf("unexpected diff: %+v", ch.Diff)
	}
	if ch.New.Server.ListenAddr != config.DefaultListenAddr {
		t.Errorf("delivered config should carry defaults, listen_addr = %q", ch.New.Server.ListenAddr)
	}
	if cur := w.Current(); cur.Server.LogLevel != config.LogDebug {
		t.Errorf("Current() log_level = %q, want debug", cur.Server.LogLevel)
	}
}

func TestWatcher_CosmeticEditIsAbsorbed(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	rec := newRecorder()
	w, err := config.NewWatcher(cfgPath, rec.record, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start(t, w)

	// Same settings: a comment, plus listen_addr spelled out at its default.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, cfgPath, "# tuned for class use\n"+withListenAddr(watcherValidYAML, ":8080"))
	time.Sleep(200 * time.Millisecond)

	if got := rec.all(); len(got) != 0 {
		t.Errorf("cosmetic edit delivered %d changes", len(got))
	}
}

func TestWatcher_RestartOnlyChangeIsDelivered(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	rec := newRecorder()
	w, err := config.NewWatcher(cfgPath, rec.record, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start(t, w)

	time.Sleep(50 * time.Millisecond)
	writeFile(t, cfgPath, withListenAddr(watcherValidYAML, ":9090"))
	ch := rec.wait(t)

	if len(ch.Diff.RestartRequired) != 1 || ch.Diff.RestartRequired[0] != "server.listen_addr" {
		t.Errorf("RestartRequired = %v", ch.Diff.RestartRequired)
	}
}

func TestWatcher_InvalidFileKeepsOldConfig(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	rec := newRecorder()
	w, err := config.NewWatcher(cfgPath, rec.record, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start(t, w)

	time.Sleep(50 * time.Millisecond)
	writeFile(t, cfgPath, watcherInvalidYAML)
	time.Sleep(200 * time.Millisecond)

	if got := rec.all(); len(got) != 0 {
		t.Errorf("invalid config delivered %d changes", len(got))
	}
	if cur := w.Current(); cur.Server.LogLevel != config.LogInfo {
		t.Errorf("Current() should keep the previous config, log_level = %q", cur.Server.LogLevel)
	}

	// Fixing the file resumes delivery.
	writeFile(t, cfgPath, watcherUpdatedYAML)
	if ch := rec.wait(t); ch.Old.Server.LogLevel != config.LogInfo {
		t.Errorf("recovered change should diff against the last valid config, old = %q", ch.Old.Server.LogLevel)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	_, err := config.NewWatcher("/nonexistent/path.yaml", nil)
	if err == nil {
		t.Fatal("expected error for non-existent file, got nil")
	}
}

func TestWatcher_RunReturnsOnCancel(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	w, err := config.NewWatcher(cfgPath, nil, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_TouchWithoutContentChange(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	rec := newRecorder()
	w, err := config.NewWatcher(cfgPath, rec.record, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start(t, w)

	time.Sleep(50 * time.Millisecond)
	later := time.Now().Add(time.Second)
	if err := os.Chtimes(cfgPath, later, later); err != nil {
		t.Fatalf("failed to touch file: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := rec.all(); len(got) != 0 {
		t.Errorf("touch-only delivered %d changes", len(got))
	}
}
