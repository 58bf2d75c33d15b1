package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	swhttp "github.com/switchboard-orch/switchboard/internal/adapter/http"
	"github.com/switchboard-orch/switchboard/internal/adapter/mcp"
	swnats "github.com/switchboard-orch/switchboard/internal/adapter/nats"
	"github.com/switchboard-orch/switchboard/internal/adapter/otel"
	"github.com/switchboard-orch/switchboard/internal/adapter/postgres"
	"github.com/switchboard-orch/switchboard/internal/adapter/ristretto"
	"github.com/switchboard-orch/switchboard/internal/adapter/ws"
	"github.com/switchboard-orch/switchboard/internal/config"
	"github.com/switchboard-orch/switchboard/internal/logger"
	"github.com/switchboard-orch/switchboard/internal/middleware"
	"github.com/switchboard-orch/switchboard/internal/resilience"
	"github.com/switchboard-orch/switchboard/internal/service"
)

const version = "0.1.0"

func main() {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(flags); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(flags config.CLIFlags) error {
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"max_team_size", cfg.Engine.MaxTeamSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	shutdownOtel, err := otel.Init(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := swnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	scoreCache, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer scoreCache.Close()

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	engineSvc := service.NewEngineService(store, queue, breaker, hub)
	engineSvc.SetScoreCache(scoreCache, cfg.Cache.ScoreTTL)
	engineSvc.SetMetrics(metrics)

	forceSvc := service.NewTaskForceService(store, queue, breaker, hub,
		cfg.Engine.MaxTeamSize, cfg.Engine.AgentIDPrefix)
	forceSvc.SetMetrics(metrics)

	orchSvc := service.NewOrchestratorService(engineSvc, forceSvc, queue, breaker, hub)
	orchSvc.SetMetrics(metrics)

	// --- HTTP ---
	handlers := &swhttp.Handlers{
		Orchestrator: orchSvc,
		Engine:       engineSvc,
		Forces:       forceSvc,
		ReadyCheck:   pool.Ping,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(swhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(swhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(swhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Handler)
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}

	// WebSocket stays outside the request timeout group.
	r.Get("/ws", hub.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		swhttp.MountRoutes(r, handlers)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// --- MCP ---
	mcpSrv := mcp.NewServer(
		mcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "switchboard",
			Version: version,
			APIKey:  cfg.MCP.APIKey,
		},
		mcp.ServerDeps{
			Orchestrator: orchSvc,
			Decisions:    engineSvc,
			Forces:       forceSvc,
		},
	)
	if err := mcpSrv.Start(); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := mcpSrv.Stop(shutdownCtx); err != nil {
			slog.Warn("mcp shutdown", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
