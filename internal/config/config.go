// Package config provides the configuration schema, loader, and provider
// registry for the voxprep interview coach.
package config

// LogLevel controls log verbosity.
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

// Config is the root configuration structure for voxprep.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Interview InterviewConfig `yaml:"interview"`
	History   HistoryConfig   `yaml:"history"`
}

// ServerConfig holds logging and metrics settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address the Prometheus metrics endpoint listens
	// on (e.g., "localhost:9090"). Empty disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr"`
}

// ProvidersConfig declares which provider implementation to use for each
// collaborator. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM                 ProviderEntry `yaml:"llm"`
	Transcriber         ProviderEntry `yaml:"transcriber"`
	TranscriberFallback ProviderEntry `yaml:"transcriber_fallback"`
	Capture             ProviderEntry `yaml:"capture"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "openai", "whisper", "deepgram").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gpt-4o", "nova-3", a whisper.cpp model file path).
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// InterviewConfig holds interview session defaults.
type InterviewConfig struct {
	// QuestionCount is how many questions an interview generates.
	// Zero means the built-in default of 5.
	QuestionCount int `yaml:"question_count"`

	// Language is the BCP-47 language hint forwarded to transcription
	// (e.g., "en", "de"). Empty means the provider default.
	Language string `yaml:"language"`

	// WantVideo requests camera capture alongside audio. Camera absence
	// degrades to audio-only recording.
	WantVideo bool `yaml:"want_video"`
}

// HistoryConfig holds settings for the local interview history.
type HistoryConfig struct {
	// Path is the history file location. Empty means ~/.voxprep/history.json.
	Path string `yaml:"path"`
}
