package config

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultWatchInterval is how often a [Watcher] polls when no interval is set.
const DefaultWatchInterval = 5 * time.Second

// Change is a validated config edit delivered by a [Watcher]. Old and New
// have defaults applied, so removing a key that held its default value is not
// a change.
type Change struct {
	Old, New *Config
	Diff     ConfigDiff
}

// Watcher polls a config file and reports edits that change the effective
// configuration. An invalid file is logged and the previous config stays
// current; edits that only touch comments, ordering or formatting are
// absorbed silently.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(Change)

	mu      sync.Mutex
	current *Config
	mtime   time.Time
	hash    [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. Non-positive values keep
// [DefaultWatchInterval].
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads path once and returns a Watcher for it. Polling starts
// with [Watcher.Run]; onChange may be nil.
func NewWatcher(path string, onChange func(Change), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: DefaultWatchInterval,
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}

	snap, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w.current, w.mtime, w.hash = snap.cfg, snap.mtime, snap.hash
	return w, nil
}

// Current returns the most recently loaded valid config, with defaults
// applied.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls the config file until ctx is cancelled. It always returns nil
// so it can run under an errgroup.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.poll()
		}
	}
}

// snapshot is one successful read of the watched file.
type snapshot struct {
	cfg   *Config
	mtime time.Time
	hash  [sha256.Size]byte
}

func (w *Watcher) read() (snapshot, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return snapshot{}, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return snapshot{}, err
	}
	cfg, err := loadBytes(data)
	if err != nil {
		return snapshot{}, err
	}
	full := cfg.WithDefaults()
	return snapshot{cfg: &full, mtime: info.ModTime(), hash: sha256.Sum256(data)}, nil
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot stat file", "path", w.path, "err", err)
		return
	}
	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.mtime)
	w.mu.Unlock()
	if unchanged {
		return
	}

	snap, err := w.read()
	if err != nil {
		slog.Warn("config watcher: invalid config, keeping previous", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if snap.hash == w.hash {
		w.mtime = snap.mtime
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current, w.mtime, w.hash = snap.cfg, snap.mtime, snap.hash
	w.mu.Unlock()

	d := Diff(old, snap.cfg)
	if d.Empty() && len(d.RestartRequired) == 0 {
		slog.Debug("config watcher: file changed without effect", "path", w.path)
		return
	}
	slog.Info("config watcher: configuration changed", "path", w.path,
		"log_level", d.LogLevelChanged,
		"providers", d.ProvidersChanged(),
		"restart_required", d.RestartRequired,
	)
	if w.onChange != nil {
		w.onChange(Change{Old: old, New: snap.cfg, Diff: d})
	}
}
