// Command linguaweave serves the LinguaWeave language-learning API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linguaweave/linguaweave/internal/app"
	"github.com/linguaweave/linguaweave/internal/config"
	"github.com/linguaweave/linguaweave/internal/observe"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	watch := flag.Duration("watch", 5*time.Second, "config file poll interval for hot reload (0 disables)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	loaded, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "linguaweave: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "linguaweave: %v\n", err)
		}
		return 1
	}
	cfg := loaded.WithDefaults()

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	level.Set(cfg.Server.LogLevel.SlogLevel())
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	slog.Info("linguaweave starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version, Global: true})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	app.RegisterProviders(ctx, reg)
	for kind, names := range reg.Names() {
		slog.Debug("registered providers", "kind", kind, "names", names)
	}

	backends, err := app.BuildBackends(&cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}
	slog.Info("providers ready",
		"text", backends.TextName,
		"speech", backends.SpeechName,
		"image", backends.ImageName,
	)

	// ── Application ───────────────────────────────────────────────────────────
	opts := []app.Option{
		app.WithRegistry(reg),
		app.WithLevelVar(&level),
		app.WithMetrics(tel.Metrics),
		app.WithMetricsHandler(tel.Handler()),
	}
	if *watch > 0 {
		opts = append(opts, app.WithConfigWatch(*configPath, *watch))
	}
	application, err := app.New(&cfg, backends, opts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}
