// Command voxprep runs a local AI mock-interview coach in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/voxprep/voxprep/internal/config"
	"github.com/voxprep/voxprep/internal/flows"
	"github.com/voxprep/voxprep/internal/health"
	"github.com/voxprep/voxprep/internal/history"
	"github.com/voxprep/voxprep/internal/interview"
	"github.com/voxprep/voxprep/internal/observe"
	"github.com/voxprep/voxprep/internal/resilience"
	"github.com/voxprep/voxprep/pkg/capture"
	"github.com/voxprep/voxprep/pkg/capture/ffmpeg"
	"github.com/voxprep/voxprep/pkg/provider/llm"
	"github.com/voxprep/voxprep/pkg/provider/llm/anyllm"
	oaillm "github.com/voxprep/voxprep/pkg/provider/llm/openai"
	"github.com/voxprep/voxprep/pkg/provider/stt"
	"github.com/voxprep/voxprep/pkg/provider/stt/deepgram"
	"github.com/voxprep/voxprep/pkg/provider/stt/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	resumePath := flag.String("resume", "", "grade the resume text file at this path instead of running an interview")
	flag.Parse()

	// A .env next to the binary supplies API keys during development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "voxprep: load .env: %v\n", err)
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxprep: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxprep: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxprep starting",
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
		"metrics_addr", cfg.Server.MetricsAddr,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "voxprep"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	llmProvider, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		slog.Error("failed to create llm provider", "name", cfg.Providers.LLM.Name, "err", err)
		return 1
	}
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name, "model", cfg.Providers.LLM.Model)

	// ── Resume grading mode ───────────────────────────────────────────────────
	if *resumePath != "" {
		return gradeResume(ctx, llmProvider, *resumePath)
	}

	transcriber, err := buildTranscriber(cfg, reg)
	if err != nil {
		slog.Error("failed to create transcriber", "err", err)
		return 1
	}

	var platform capture.Platform
	if name := cfg.Providers.Capture.Name; name != "" {
		platform, err = reg.CreateCapture(cfg.Providers.Capture)
		if err != nil {
			slog.Warn("capture platform unavailable, answers must be typed", "name", name, "err", err)
			platform = nil
		} else {
			slog.Info("provider created", "kind", "capture", "name", name)
		}
	}

	// ── History store ─────────────────────────────────────────────────────────
	historyPath := cfg.History.Path
	if historyPath == "" {
		historyPath, err = history.DefaultPath()
		if err != nil {
			slog.Error("failed to resolve history path", "err", err)
			return 1
		}
	}
	store := history.NewFileStore(historyPath)

	// ── Orchestrator ──────────────────────────────────────────────────────────
	orch, err := interview.New(interview.Collaborators{
		Questions:   flows.NewQuestionFlow(llmProvider),
		Transcriber: transcriber,
		Evaluator:   flows.NewEvaluateFlow(llmProvider),
		Comparator:  flows.NewCompareFlow(llmProvider),
		History:     store,
		Capture:     platform,
	},
		interview.WithQuestionCount(cfg.Interview.QuestionCount),
		interview.WithLanguage(cfg.Interview.Language),
		interview.WithStreamConfig(capture.StreamConfig{WantVideo: cfg.Interview.WantVideo}),
		interview.WithNotifier(interview.NotifierFunc(func(message string) {
			fmt.Printf("\n  » %s\n", message)
		})),
	)
	if err != nil {
		slog.Error("failed to initialise orchestrator", "err", err)
		return 1
	}
	defer orch.Close()

	// ── Serve metrics and run the UI loop ─────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if addr := cfg.Server.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		health.New(
			health.Checker{Name: "llm", Check: func(_ context.Context) error {
				_, err := llmProvider.CountTokens([]llm.Message{{Role: "user", Content: "ping"}})
				return err
			}},
			health.Checker{Name: "history", Check: func(_ context.Context) error {
				_, err := store.Load()
				return err
			}},
		).Register(mux)

		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			slog.Info("metrics endpoint listening", "addr", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		// Ending the UI loop ends the process; cancel the signal context so
		// the metrics server shuts down too.
		defer stop()
		return runUI(gctx, orch, store, os.Stdin, os.Stdout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// gradeResume runs the standalone resume grading flow and prints the report.
func gradeResume(ctx context.Context, provider llm.Provider, path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read resume file", "path", path, "err", err)
		return 1
	}

	grade, err := flows.NewResumeFlow(provider).Grade(ctx, string(data))
	if err != nil {
		slog.Error("failed to grade resume", "err", err)
		return 1
	}

	fmt.Printf("ATS Score: %.0f/100\n\n%s\n", grade.Score, grade.Report)
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// The OpenAI SDK backend handles "openai"; everything else goes through
	// the any-llm multiplexer.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, oaillm.WithOrganization(org))
		}
		return oaillm.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── Transcribers ──────────────────────────────────────────────────────────

	reg.RegisterTranscriber("whisper", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterTranscriber("whisper-native", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterTranscriber("deepgram", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	// ── Capture ───────────────────────────────────────────────────────────────

	reg.RegisterCapture("ffmpeg", func(entry config.ProviderEntry) (capture.Platform, error) {
		command := optString(entry.Options, "command")
		if command == "" {
			command = "ffmpeg"
		}
		return ffmpeg.New(command), nil
	})
}

// buildTranscriber creates the primary transcriber, wrapped in a
// circuit-breaking fallback chain when a fallback is configured.
func buildTranscriber(cfg *config.Config, reg *config.Registry) (stt.Transcriber, error) {
	primary, err := reg.CreateTranscriber(cfg.Providers.Transcriber)
	if err != nil {
		return nil, fmt.Errorf("create transcriber %q: %w", cfg.Providers.Transcriber.Name, err)
	}
	slog.Info("provider created", "kind", "transcriber", "name", cfg.Providers.Transcriber.Name)

	fallbackName := cfg.Providers.TranscriberFallback.Name
	if fallbackName == "" {
		return primary, nil
	}

	fallback, err := reg.CreateTranscriber(cfg.Providers.TranscriberFallback)
	if err != nil {
		return nil, fmt.Errorf("create fallback transcriber %q: %w", fallbackName, err)
	}

	chain := resilience.NewTranscriberFallback(primary, cfg.Providers.Transcriber.Name, resilience.FallbackConfig{})
	chain.AddFallback(fallbackName, fallback)
	slog.Info("transcriber fallback enabled", "primary", cfg.Providers.Transcriber.Name, "fallback", fallbackName)
	return chain, nil
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
