package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"text":   {"openai", "gemini", "anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"speech": {"openai", "gemini", "elevenlabs", "coqui"},
	"image":  {"openai", "gemini"},
}

// UnmarshalYAML parses a Go duration string such as "90s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML renders d as a Go duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadBytes parses and validates an in-memory config.
func loadBytes(data []byte) (*Config, error) {
	return LoadFromReader(bytes.NewReader(data))
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", cfg.Server.ShutdownTimeout.Std()))
	}

	// Providers
	validateProviderName("text", cfg.Providers.Text.Name)
	validateProviderName("speech", cfg.Providers.Speech.Name)
	validateProviderName("image", cfg.Providers.Image.Name)
	if cfg.Providers.Text.Name == "" {
		slog.Warn("providers.text is not configured; grammar, vocabulary and conversation flows will fail")
	}

	// Audio
	if cfg.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must not be negative", cfg.Audio.SampleRate))
	}
	if cfg.Audio.Channels < 0 || cfg.Audio.Channels > 2 {
		errs = append(errs, fmt.Errorf("audio.channels %d is invalid; valid values: 1, 2", cfg.Audio.Channels))
	}
	if (cfg.Audio.SampleRate == 0) != (cfg.Audio.Channels == 0) {
		errs = append(errs, errors.New("audio.sample_rate and audio.channels must be set together"))
	}

	// Sessions
	if cfg.Sessions.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("sessions.idle_timeout %s must not be negative", cfg.Sessions.IdleTimeout.Std()))
	}
	if cfg.Sessions.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("sessions.sweep_interval %s must not be negative", cfg.Sessions.SweepInterval.Std()))
	}
	if cfg.Sessions.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("sessions.max_sessions %d must not be negative", cfg.Sessions.MaxSessions))
	}

	// Flows
	if t := cfg.Flows.Temperature; t < 0 || t > 2 {
		errs = append(errs, fmt.Errorf("flows.temperature %.2f is out of range [0, 2]", t))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name; may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
