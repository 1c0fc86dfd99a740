package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linguaweave/linguaweave/internal/observe"
)

// Default limits used when a ManagerConfig field is zero.
const (
	DefaultMaxSessions   = 1000
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// ManagerConfig holds the dependencies of a [Manager].
type ManagerConfig struct {
	// Flows runs the AI flows for every session. Required.
	Flows Flows

	// Catalog lists the selectable options. Zero means [DefaultCatalog].
	Catalog Catalog

	// MaxSessions bounds the number of live sessions.
	MaxSessions int

	// IdleTimeout is how long a session may stay inactive before Sweep
	// removes it.
	IdleTimeout time.Duration

	// SweepInterval is the period of the Run loop.
	SweepInterval time.Duration

	// Metrics receives session gauges and counters. Nil uses
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Manager owns the live sessions. All exported methods are safe for
// concurrent use.
type Manager struct {
	flows    Flows
	catalog  Catalog
	metrics  *observe.Metrics
	now      func() time.Time
	interval time.Duration

	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
	idleTimeout time.Duration
}

// NewManager creates a Manager. It panics if cfg.Flows is nil.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Flows == nil {
		panic("session: ManagerConfig.Flows must not be nil")
	}
	if len(cfg.Catalog.Languages) == 0 {
		cfg.Catalog = DefaultCatalog
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		flows:       cfg.Flows,
		catalog:     cfg.Catalog,
		metrics:     cfg.Metrics,
		now:         cfg.Now,
		interval:    cfg.SweepInterval,
		sessions:    make(map[string]*Session),
		maxSessions: cfg.MaxSessions,
		idleTimeout: cfg.IdleTimeout,
	}
}

// Catalog returns the selectable options.
func (m *Manager) Catalog() Catalog { return m.catalog }

// Create starts a new session with the catalog defaults.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("%w (limit %d)", ErrTooManySessions, m.maxSessions)
	}
	s := newSession(uuid.NewString(), m.flows, m.catalog, m.metrics, m.now)
	m.sessions[s.id] = s
	m.metrics.ActiveSessions.Add(ctx, 1)

	slog.Debug("session created", "session_id", s.id, "active", len(m.sessions))
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes the session with the given ID. In-flight flows of the
// removed session still complete but their results are not reachable.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(m.sessions, id)
	m.metrics.ActiveSessions.Add(ctx, -1)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SetLimits changes the session limit and idle timeout. Zero values keep the
// current setting. Existing sessions above a lowered limit are kept.
func (m *Manager) SetLimits(maxSessions int, idleTimeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if maxSessions > 0 {
		m.maxSessions = maxSessions
	}
	if idleTimeout > 0 {
		m.idleTimeout = idleTimeout
	}
}

// Sweep removes sessions idle for at least the idle timeout and returns how
// many were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.idle(now, m.idleTimeout) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.metrics.RecordEvictions(ctx, removed)
		slog.Info("expired idle sessions", "removed", removed, "active", len(m.sessions))
	}
	return removed
}

// Run sweeps idle sessions every SweepInterval until ctx is cancelled. It
// always returns nil so it can run under an errgroup.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}
