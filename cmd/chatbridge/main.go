// ABOUTME: Entry point for the chatbridge turn-processing server
// ABOUTME: Bridges channel webhooks to a model-backed responder

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/chatbridge/internal/auth"
	"github.com/2389/chatbridge/internal/bot"
	"github.com/2389/chatbridge/internal/config"
	"github.com/2389/chatbridge/internal/dedupe"
	"github.com/2389/chatbridge/internal/model"
	"github.com/2389/chatbridge/internal/planner"
	"github.com/2389/chatbridge/internal/prompt"
	"github.com/2389/chatbridge/internal/responder"
	"github.com/2389/chatbridge/internal/server"
	"github.com/2389/chatbridge/internal/state"
)

// version is set via ldflags at build time.
var version = "dev"

const banner = `
      _           _   _          _     _
  ___| |__   __ _| |_| |__  _ __(_) __| | __ _  ___
 / __| '_ \ / _' | __| '_ \| '__| |/ _' |/ _' |/ _ \
| (__| | | | (_| | |_| |_) | |  | | (_| | (_| |  __/
 \___|_| |_|\__,_|\__|_.__/|_|  |_|\__,_|\__, |\___|
                                         |___/
`

// getConfigPath returns the path to the chatbridge config file.
// Priority: CHATBRIDGE_CONFIG env var > XDG_CONFIG_HOME/chatbridge/chatbridge.yaml > ~/.config/chatbridge/chatbridge.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CHATBRIDGE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "chatbridge.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "chatbridge", "chatbridge.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: chatbridge <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve     Start the webhook server")
		fmt.Println("  health    Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Model:    %s\n", cfg.Model.Model)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	logger.Info("starting chatbridge",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	storage, err := state.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer storage.Close()

	prompts := prompt.NewManager(cfg.Prompts.Dir, logger)

	factory := func(ctx context.Context, instruction string) (planner.TextResponder, error) {
		client, err := model.NewGeminiClient(ctx, model.GeminiConfig{
			APIKey:          cfg.Model.APIKey,
			Model:           cfg.Model.Model,
			Temperature:     cfg.Model.Temperature,
			MaxOutputTokens: cfg.Model.MaxOutputTokens,
		})
		if err != nil {
			return nil, err
		}
		return responder.New(client, instruction, logger), nil
	}

	turnPlanner := planner.New(prompts, cfg.Prompts.Default, cfg.Prompts.MaxInputTokens, factory, logger)

	cache := dedupe.New(cfg.Dedupe.TTL, cfg.Dedupe.MaxEntries)
	defer cache.Close()

	b := bot.New(storage, turnPlanner, cache, logger)

	var verifier auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	} else {
		logger.Warn("auth.jwt_secret not set, webhook authentication disabled")
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.New(b, verifier, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
