// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultql/internal/api"
	"github.com/starford/vaultql/internal/mcpserver"
	"github.com/starford/vaultql/internal/notes"
	"github.com/starford/vaultql/internal/noteservice"
	"github.com/starford/vaultql/internal/parser"
	"github.com/starford/vaultql/internal/sse"
	"github.com/starford/vaultql/internal/store"
	"github.com/starford/vaultql/internal/vtab"
	"github.com/starford/vaultql/internal/watch"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{
		mode: ModeServe,
		out:  os.Stdout,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	cfg := app.config

	// Query and MCP modes own stdout.
	logOut := os.Stderr
	if app.mode == ModeServe {
		logOut = os.Stdout
	}
	logger := newLogger(logOut, cfg.App)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", string(app.mode)),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("extension", cfg.Vault.Extension),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("table", cfg.SQLite.Table),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(ctx, store.Config{
		DSN:     cfg.SQLite.Path,
		Table:   cfg.SQLite.Table,
		Dirname: cfg.Vault.Path,
	}, vtabOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	svc := noteservice.NewService(db)

	switch app.mode {
	case ModeQuery:
		return app.runQuery(ctx, svc, logger)
	case ModeMCP:
		logger.Info("MCP server starting on stdio")
		return mcpserver.New(svc, vtab.Version()).ServeStdio()
	case ModeServe:
		return app.runServe(ctx, svc, logger)
	default:
		return fmt.Errorf("unknown mode %q", app.mode)
	}
}

func newLogger(f *os.File, cfg ApplicationConfig) *slog.Logger {
	if cfg.LogFormat == LogFormatText {
		return slog.New(tint.NewHandler(colorable.NewColorable(f), &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: "15:04:05.000",
			NoColor:    !isatty.IsTerminal(f.Fd()),
		}))
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

func vtabOptions(cfg *Config, logger *slog.Logger) []vtab.Option {
	opts := []vtab.Option{
		vtab.WithExtension(cfg.Vault.Extension),
		vtab.WithLogger(logger),
	}
	if cfg.Vault.Frontmatter {
		opts = append(opts, vtab.WithExtractor(parser.Extractor{}))
	}
	if len(cfg.Vault.Properties) > 0 {
		opts = append(opts, vtab.WithProperties(cfg.Vault.Properties))
	}
	return opts
}

func (a *application) matcher() watch.Matcher {
	return notes.NewScanner(notes.WithExtension(a.config.Vault.Extension))
}

// runQuery prints every row as one JSON object per line. With watch enabled
// the query is re-run after each note change until ctx is cancelled.
func (a *application) runQuery(ctx context.Context, svc *noteservice.Service, logger *slog.Logger) error {
	if err := a.printQuery(ctx, svc); err != nil {
		return err
	}
	if !a.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changed := make(chan struct{}, 1)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watch.Watch(gCtx, a.config.Vault.Path, a.matcher(), logger, func(kind, path string) {
			logger.Debug("note changed", slog.String("kind", kind), slog.String("path", path))
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	})

	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-changed:
				if err := a.printQuery(gCtx, svc); err != nil {
					logger.Error("query failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	return g.Wait()
}

func (a *application) printQuery(ctx context.Context, svc *noteservice.Service) error {
	res, err := svc.Query(ctx, a.query)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.out)
	for _, rec := range res.Records() {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func (a *application) runServe(ctx context.Context, svc *noteservice.Service, logger *slog.Logger) error {
	cfg := a.config

	// SSE broker.
	broker := sse.NewBroker(sse.WithThrottle(2 * time.Second))
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker,
		api.WithQueryRate(cfg.App.HTTP.QueryRate, cfg.App.HTTP.QueryBurst))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Describe(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := watch.Watch(gCtx, cfg.Vault.Path, a.matcher(), logger, broker.PublishVaultEvent)
		if err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		cancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
