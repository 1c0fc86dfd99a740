// Package app wires all LinguaWeave subsystems into a running application.
//
// The App struct owns the full lifecycle: New builds the flow invoker, the
// session manager and the HTTP API; Run serves until the context is
// cancelled and then shuts down gracefully. Config changes picked up by the
// watcher are applied by Reload without a restart.
//
// For testing, inject a listener, metrics and a provider registry via
// functional options.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linguaweave/linguaweave/internal/config"
	"github.com/linguaweave/linguaweave/internal/flow"
	"github.com/linguaweave/linguaweave/internal/health"
	"github.com/linguaweave/linguaweave/internal/observe"
	"github.com/linguaweave/linguaweave/internal/session"
	"github.com/linguaweave/linguaweave/internal/web"
	"github.com/linguaweave/linguaweave/pkg/audio"
)

// App owns all subsystem lifetimes.
type App struct {
	cfg config.Config

	reg      *config.Registry
	level    *slog.LevelVar
	metrics  *observe.Metrics
	scrape   http.Handler
	listener net.Listener

	configPath     string
	reloadInterval time.Duration
	watcher        *config.Watcher

	inv      *flow.Invoker
	flows    *flow.Registry
	sessions *session.Manager
	handler  http.Handler
	server   *http.Server
}

// Option is a functional option for New.
type Option func(*App)

// WithRegistry sets the provider registry used to rebuild backends when the
// provider configuration changes on reload. Without it provider changes
// need a restart.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.reg = r }
}

// WithLevelVar sets the level variable that Reload updates when
// server.log_level changes.
func WithLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.level = v }
}

// WithMetrics injects the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler sets the handler behind GET /metrics, normally
// [observe.Telemetry.Handler]. Default: promhttp.Handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.scrape = h }
}

// WithListener makes Run serve on l instead of listening on
// server.listen_addr.
func WithListener(l net.Listener) Option {
	return func(a *App) { a.listener = l }
}

// WithConfigWatch makes Run poll the config file at path and apply changes
// through Reload.
func WithConfigWatch(path string, interval time.Duration) Option {
	return func(a *App) {
		a.configPath = path
		a.reloadInterval = interval
	}
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from cfg and the initial flow backends (built by
// [BuildBackends] in main).
func New(cfg *config.Config, backends flow.Backends, opts ...Option) (*App, error) {
	a := &App{cfg: cfg.WithDefaults()}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Flows ─────────────────────────────────────────────────────────
	flows, err := flow.NewRegistry(flow.Builtin()...)
	if err != nil {
		return nil, fmt.Errorf("app: build flow registry: %w", err)
	}
	a.flows = flows
	a.inv = flow.NewInvoker(backends,
		flow.WithMetrics(a.metrics),
		flow.WithSettings(settingsFrom(a.cfg)),
	)

	// ── 2. Sessions ──────────────────────────────────────────────────────
	a.sessions = session.NewManager(session.ManagerConfig{
		Flows:         flow.NewClient(a.inv, a.flows),
		MaxSessions:   a.cfg.Sessions.MaxSessions,
		IdleTimeout:   a.cfg.Sessions.IdleTimeout.Std(),
		SweepInterval: a.cfg.Sessions.SweepInterval.Std(),
		Metrics:       a.metrics,
	})

	// ── 3. HTTP API ──────────────────────────────────────────────────────
	hc := health.New(
		health.Configured("text", func() bool { return a.inv.Backends().Text != nil }),
		health.Soft(health.Configured("speech", func() bool { return a.inv.Backends().Speech != nil })),
		health.Soft(health.Configured("image", func() bool { return a.inv.Backends().Image != nil })),
	)
	a.handler = web.New(web.Config{
		Invoker:        a.inv,
		Flows:          a.flows,
		Sessions:       a.sessions,
		Health:         hc,
		Metrics:        a.metrics,
		MetricsHandler: a.scrape,
	})
	a.server = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ── 4. Config watcher ────────────────────────────────────────────────
	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath, a.Reload, config.WithInterval(a.reloadInterval))
		if err != nil {
			return nil, fmt.Errorf("app: watch config: %w", err)
		}
		a.watcher = w
	}

	return a, nil
}

// Handler returns the HTTP API handler.
func (a *App) Handler() http.Handler { return a.handler }

// Invoker returns the flow invoker.
func (a *App) Invoker() *flow.Invoker { return a.inv }

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager { return a.sessions }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves the HTTP API, sweeps idle sessions and watches the config file
// until ctx is cancelled. The server then drains in-flight requests for at
// most server.shutdown_timeout. Run returns nil after a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if a.listener != nil {
			err = a.server.Serve(a.listener)
		} else {
			err = a.server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: http server: %w", err)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: shutdown http server: %w", err)
		}
		return nil
	})

	g.Go(func() error { return a.sessions.Run(gctx) })

	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(gctx) })
	}

	slog.Info("app running",
		"listen_addr", a.addr(),
		"flows", len(a.flows.List()),
	)
	return g.Wait()
}

func (a *App) addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.cfg.Server.ListenAddr
}

// ─── Reload ──────────────────────────────────────────────────────────────────

// Reload applies the hot-reloadable part of a config change. A provider that
// fails to build leaves all backends unchanged.
func (a *App) Reload(ch config.Change) {
	d, next := ch.Diff, ch.New.WithDefaults()

	for _, field := range d.RestartRequired {
		slog.Warn("config change takes effect after restart", "field", field)
	}

	if d.LogLevelChanged && a.level != nil {
		a.level.Set(next.Server.LogLevel.SlogLevel())
		slog.Info("log level changed", "level", next.Server.LogLevel)
	}

	if d.ProvidersChanged() {
		if err := a.rebuildBackends(next, d); err != nil {
			slog.Error("provider reload failed, keeping previous backends", "err", err)
		}
	}

	if d.AudioChanged || d.FlowsChanged {
		a.inv.SetSettings(settingsFrom(next))
		slog.Info("flow settings changed", "temperature", next.Flows.Temperature, "voice", next.Flows.Voice)
	}

	if d.SessionsChanged {
		a.sessions.SetLimits(next.Sessions.MaxSessions, next.Sessions.IdleTimeout.Std())
		slog.Info("session limits changed",
			"max_sessions", next.Sessions.MaxSessions,
			"idle_timeout", next.Sessions.IdleTimeout.Std(),
		)
	}
}

func (a *App) rebuildBackends(cfg config.Config, d config.ConfigDiff) error {
	if a.reg == nil {
		return errors.New("app: no provider registry")
	}
	b := a.inv.Backends()
	var errs []error
	if d.TextChanged {
		p, err := buildText(a.reg, cfg.Providers.Text)
		errs = append(errs, err)
		b.Text, b.TextName = p, cfg.Providers.Text.Name
	}
	if d.SpeechChanged {
		p, err := buildSpeech(a.reg, cfg.Providers.Speech)
		errs = append(errs, err)
		b.Speech, b.SpeechName = p, cfg.Providers.Speech.Name
	}
	if d.ImageChanged {
		p, err := buildImage(a.reg, cfg.Providers.Image)
		errs = append(errs, err)
		b.Image, b.ImageName = p, cfg.Providers.Image.Name
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.inv.SetBackends(b)
	slog.Info("flow backends reloaded", "text", b.TextName, "speech", b.SpeechName, "image", b.ImageName)
	return nil
}

// settingsFrom derives invoker settings from cfg.
func settingsFrom(cfg config.Config) flow.Settings {
	s := flow.Settings{
		Temperature: cfg.Flows.Temperature,
		Voice:       cfg.Flows.Voice,
	}
	if cfg.Audio.SampleRate > 0 {
		s.AudioFormat = audio.Format{SampleRate: cfg.Audio.SampleRate, Channels: cfg.Audio.Channels, BitDepth: 16}
	}
	return s
}
