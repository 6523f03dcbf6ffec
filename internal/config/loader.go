package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":         {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"transcriber": {"whisper", "whisper-native", "deepgram"},
	"capture":     {"ffmpeg"},
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
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation, warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("transcriber", cfg.Providers.Transcriber.Name)
	validateProviderName("transcriber", cfg.Providers.TranscriberFallback.Name)
	validateProviderName("capture", cfg.Providers.Capture.Name)

	// Collaborator availability
	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required; question generation and evaluation need an LLM"))
	}
	if cfg.Providers.Transcriber.Name == "" {
		errs = append(errs, errors.New("providers.transcriber.name is required; recorded answers need transcription"))
	}
	if cfg.Providers.TranscriberFallback.Name != "" && cfg.Providers.TranscriberFallback.Name == cfg.Providers.Transcriber.Name {
		slog.Warn("transcriber fallback is the same provider as the primary",
			"provider", cfg.Providers.Transcriber.Name)
	}
	if cfg.Providers.Capture.Name == "" {
		slog.Warn("providers.capture is not configured; recording will be unavailable and answers must be typed")
	}

	// Interview
	if cfg.Interview.QuestionCount < 0 {
		errs = append(errs, fmt.Errorf("interview.question_count %d must not be negative", cfg.Interview.QuestionCount))
	}
	if cfg.Interview.QuestionCount > 20 {
		errs = append(errs, fmt.Errorf("interview.question_count %d is out of range [0, 20]", cfg.Interview.QuestionCount))
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
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
