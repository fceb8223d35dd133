// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/linkgraph/internal/api"
	"github.com/starford/linkgraph/internal/graphservice"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/mcpserver"
	"github.com/starford/linkgraph/internal/pipeline"
	"github.com/starford/linkgraph/internal/sse"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{
		version: "dev",
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger writes JSON to stderr. Stdout is reserved for resolved edges and
// for the MCP stdio transport.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run resolves the configured dumps once. Resolved edges go to the configured
// output; when an SQLite path is set the run is exported as well.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := app.logger()

	var db *index.DB
	if cfg.SQLite.Enabled() {
		if db, err = index.Open(cfg.SQLite.Path); err != nil {
			return fmt.Errorf("init index: %w", err)
		}
		defer db.Close()
	}

	_, err = app.resolve(ctx, db, cfg.Inputs.Output, logger)
	return err
}

func (a *application) resolve(ctx context.Context, db *index.DB, output string, logger *slog.Logger) (pipeline.Summary, error) {
	out, err := pipeline.OpenOutput(output, a.stdout)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("open output: %w", err)
	}
	defer out.Abort()

	sum, err := pipeline.Run(ctx, a.config.Inputs.Inputs, pipeline.Options{
		Output: out,
		Export: db,
		Logger: logger,
	})
	if err != nil {
		return sum, err
	}
	if err := out.Commit(); err != nil {
		return sum, fmt.Errorf("publish output: %w", err)
	}
	return sum, nil
}

// Serve builds the export from the configured dumps, then serves the HTTP API.
// With watch enabled, changed dumps trigger a rebuild and an SSE event.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SQLite.RequirePath(); err != nil {
		return err
	}
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("pages", cfg.Inputs.Pages),
		slog.String("redirects", cfg.Inputs.Redirects),
		slog.String("links", cfg.Inputs.Links),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// In server mode stdout is not a useful destination for edges.
	output := cfg.Inputs.Output
	if output == "" || output == "-" {
		app.stdout = io.Discard
	}
	rebuild := func(ctx context.Context) {
		sum, err := app.resolve(ctx, db, output, logger)
		if err != nil {
			logger.Error("rebuild failed", slog.String("error", err.Error()))
		}
		broker.PublishRebuild(sum, err)
	}

	rebuild(ctx)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: newRouter(cfg, db, broker),
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Watch.Enabled {
		g.Go(func() error {
			return index.Watch(gCtx, cfg.Inputs.Files(), cfg.Watch.Debounce, logger,
				func(ctx context.Context, changed []string) {
					logger.Info("inputs changed, rebuilding", slog.Any("files", changed))
					rebuild(ctx)
				})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP serves the read-only graph tools over stdio against an existing export.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	if err := cfg.SQLite.RequirePath(); err != nil {
		return err
	}
	logger := app.logger()

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	logger.Info("MCP server starting", slog.String("sqlite_path", cfg.SQLite.Path))
	return mcpserver.New(graphservice.NewService(db), app.version).ServeStdio()
}

// newRouter mounts the health probes and the authenticated API.
func newRouter(cfg *Config, db *index.DB, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", health(nil))
	r.Get("/health/ready", health(db.Ping))

	svc := graphservice.NewService(db)
	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))
	return r
}

// health answers a probe. A nil check always reports ok.
func health(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
