// Package config provides the configuration schema, loader, provider
// registry and hot-reload watcher for the LinguaWeave server.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to the slog level. Unknown values map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Duration is a time.Duration that unmarshals from Go duration strings such
// as "30s" or "15m".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Defaults applied by [Config.WithDefaults].
const (
	DefaultListenAddr      = ":8080"
	DefaultShutdownTimeout = Duration(15 * time.Second)
	DefaultIdleTimeout     = Duration(30 * time.Minute)
	DefaultSweepInterval   = Duration(time.Minute)
	DefaultMaxSessions     = 1000
)

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Audio     AudioConfig     `yaml:"audio"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Flows     FlowsConfig     `yaml:"flows"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP API listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. It can be changed without a restart.
	LogLevel LogLevel `yaml:"log_level"`

	// ShutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// ProvidersConfig selects the backend for each flow modality. Each entry
// names a provider registered in the [Registry]. An entry with an empty name
// leaves that modality without a backend; its flows fail with a remote
// service error.
type ProvidersConfig struct {
	Text   ProviderEntry `yaml:"text"`
	Speech ProviderEntry `yaml:"speech"`
	Image  ProviderEntry `yaml:"image"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "gemini").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// AudioConfig sets the output format of synthesized speech. Zero values
// keep the provider's native format.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
}

// SessionsConfig bounds the learner sessions held in memory.
type SessionsConfig struct {
	IdleTimeout   Duration `yaml:"idle_timeout"`
	MaxSessions   int      `yaml:"max_sessions"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// FlowsConfig holds defaults applied to flows that do not set their own.
type FlowsConfig struct {
	// Temperature is the sampling temperature for text flows. 0 leaves the
	// model default.
	Temperature float64 `yaml:"temperature"`

	// Voice is the default speech voice. Empty uses the provider default.
	Voice string `yaml:"voice"`
}

// WithDefaults returns a copy of cfg with zero values replaced by defaults.
func (cfg Config) WithDefaults() Config {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Sessions.IdleTimeout == 0 {
		cfg.Sessions.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Sessions.SweepInterval == 0 {
		cfg.Sessions.SweepInterval = DefaultSweepInterval
	}
	if cfg.Sessions.MaxSessions == 0 {
		cfg.Sessions.MaxSessions = DefaultMaxSessions
	}
	return cfg
}
