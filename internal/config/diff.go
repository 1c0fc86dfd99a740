package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; listen address
// and shutdown timeout changes need a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// TextChanged, SpeechChanged and ImageChanged report a provider entry
	// that must be rebuilt.
	TextChanged   bool
	SpeechChanged bool
	ImageChanged  bool

	AudioChanged    bool
	FlowsChanged    bool
	SessionsChanged bool

	// RestartRequired lists changed fields that only take effect after a
	// restart.
	RestartRequired []string
}

// ProvidersChanged reports whether any provider entry changed.
func (d ConfigDiff) ProvidersChanged() bool {
	return d.TextChanged || d.SpeechChanged || d.ImageChanged
}

// Empty reports whether nothing hot-reloadable changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.ProvidersChanged() && !d.AudioChanged && !d.FlowsChanged && !d.SessionsChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Server.ShutdownTimeout != new.Server.ShutdownTimeout {
		d.RestartRequired = append(d.RestartRequired, "server.shutdown_timeout")
	}
	if old.Sessions.SweepInterval != new.Sessions.SweepInterval {
		d.RestartRequired = append(d.RestartRequired, "sessions.sweep_interval")
	}

	d.TextChanged = !entryEqual(old.Providers.Text, new.Providers.Text)
	d.SpeechChanged = !entryEqual(old.Providers.Speech, new.Providers.Speech)
	d.ImageChanged = !entryEqual(old.Providers.Image, new.Providers.Image)

	d.AudioChanged = old.Audio != new.Audio
	d.FlowsChanged = old.Flows != new.Flows
	d.SessionsChanged = old.Sessions.IdleTimeout != new.Sessions.IdleTimeout ||
		old.Sessions.MaxSessions != new.Sessions.MaxSessions

	return d
}

// entryEqual compares two provider entries including their options.
func entryEqual(a, b ProviderEntry) bool {
	if a.Name != b.Name || a.APIKey != b.APIKey || a.BaseURL != b.BaseURL || a.Model != b.Model {
		return false
	}
	return valueEqual(a.Options, b.Options)
}

// valueEqual compares decoded YAML values. A nil map equals an empty one.
func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok && b != nil {
			return false
		}
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !valueEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case nil:
		if bm, ok := b.(map[string]any); ok {
			return len(bm) == 0
		}
		return b == nil
	default:
		return a == b
	}
}
