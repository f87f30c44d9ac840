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

	"github.com/charmbracelet/glamour"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/nodeforge/internal/api"
	"github.com/starford/nodeforge/internal/catalog"
	"github.com/starford/nodeforge/internal/graphstore"
	"github.com/starford/nodeforge/internal/graphstore/redis"
	"github.com/starford/nodeforge/internal/graphstore/sqlite"
	"github.com/starford/nodeforge/internal/mcpserver"
	"github.com/starford/nodeforge/internal/metrics"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/nodeview"
	"github.com/starford/nodeforge/internal/optionsrc"
	"github.com/starford/nodeforge/internal/pipelineservice"
	"github.com/starford/nodeforge/internal/sse"
)

type closableStore interface {
	graphstore.Store
	io.Closer
}

// runtime holds the components shared by every command.
type runtime struct {
	cfg     *Config
	logger  *slog.Logger
	store   closableStore
	options *optionsrc.Source
	metrics *metrics.Metrics
	service *pipelineservice.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func openStore(cfg StoreConfig) (closableStore, error) {
	switch cfg.Driver {
	case StoreDriverRedis:
		return redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithPrefix(cfg.Redis.Prefix)), nil
	case StoreDriverSQLite, "":
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newRuntime(cfg *Config, logger *slog.Logger, events pipelineservice.Events) (*runtime, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	options, err := optionsrc.Open(cfg.Options.Path)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}

	store, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	svcOpts := []pipelineservice.Option{
		pipelineservice.WithMetrics(m),
		pipelineservice.WithLogger(logger),
	}
	if events != nil {
		svcOpts = append(svcOpts, pipelineservice.WithEvents(events))
	}
	svc, err := pipelineservice.New(store, cat, options, svcOpts...)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init service: %w", err)
	}

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		options: options,
		metrics: m,
		service: svc,
	}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("options_path", cfg.Options.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := newRuntime(cfg, logger, broker)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	apiRouter := api.NewRouter(rt.service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := rt.store.List(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", rt.metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the option file and tell clients when the snapshot changes.
	g.Go(func() error {
		err := rt.options.Watch(gCtx, logger, func(*models.ParameterValueOptions) {
			rt.metrics.OptionReloads.Inc()
			broker.OptionsUpdated(rt.options.Checksum())
		})
		if err != nil {
			logger.Warn("option watcher stopped", slog.String("error", err.Error()))
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

		// Ends open SSE streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the option watcher returns once the
// server is down.
var errShutdown = errors.New("shutdown")

// RunMCP serves the editor tools over stdio. Logs go to stderr because
// stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)
	slog.SetDefault(logger)

	rt, err := newRuntime(app.config, logger, nil)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	logger.Info("MCP server starting", slog.String("store_driver", app.config.Store.Driver))
	if err := mcpserver.New(rt.service).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// Inspect renders the view of one node as terminal markdown.
func Inspect(ctx context.Context, id string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := newRuntime(app.config, newLogger(app.config, os.Stderr), nil)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	v, err := rt.service.View(ctx, id)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", id, err)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("inspect: init renderer: %w", err)
	}
	out, err := renderer.Render(nodeview.Markdown(v))
	if err != nil {
		return fmt.Errorf("inspect: render: %w", err)
	}
	_, err = io.WriteString(app.out, out)
	return err
}

// ExportDOT writes the pipeline as a Graphviz digraph.
func ExportDOT(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := newRuntime(app.config, newLogger(app.config, os.Stderr), nil)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	out, err := rt.service.DOT(ctx)
	if err != nil {
		return fmt.Errorf("export dot: %w", err)
	}
	_, err = io.WriteString(app.out, out)
	return err
}
