package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jgirmay/privacy-tower/internal/app"
	"github.com/jgirmay/privacy-tower/internal/health"
	"github.com/jgirmay/privacy-tower/pkg/apps/tower"
	"github.com/jgirmay/privacy-tower/pkg/config"
	"github.com/jgirmay/privacy-tower/pkg/database"
	"github.com/jgirmay/privacy-tower/pkg/logging"
	"github.com/jgirmay/privacy-tower/pkg/metrics"
	"github.com/jgirmay/privacy-tower/pkg/repository"
	"github.com/jgirmay/privacy-tower/pkg/services/events"
	"github.com/jgirmay/privacy-tower/pkg/services/sessions"
	"github.com/jgirmay/privacy-tower/pkg/services/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "privacy-tower: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	LogConfiguration(logger, cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database.Type, cfg.Database.DSN, logger)
	if err != nil {
		return err
	}

	repos := repository.NewRegistry(db)
	if err := repos.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize repository registry: %w", err)
	}
	defer repos.Close()
	logger.Info("repository registry initialized")

	bank, tuning, err := loadGame(cfg.Game, logger)
	if err != nil {
		return err
	}

	bus := events.NewSimpleBus(1024, 1000)
	gameMetrics := metrics.New()
	bus.Subscribe(gameMetrics)

	manager, err := sessions.NewManager(bank,
		sessions.WithConfig(sessions.Config{
			MaxSessions:   cfg.Sessions.MaxSessions,
			IdleTimeout:   cfg.Sessions.IdleTimeout,
			SweepInterval: cfg.Sessions.SweepInterval,
		}),
		sessions.WithEngineOptions(tuningOptions(tuning, logger)...),
		sessions.WithBus(bus),
		sessions.WithRepositories(repos.GameSnapshotRepository, repos.PlayerProfileRepository),
		sessions.WithSessionGauge(gameMetrics.SetActiveSessions),
		sessions.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	manager.Start(ctx)

	towerApp := tower.NewTowerApp(db, manager, repos.PlayerProfileRepository, tuning.Achievements, logger)
	bus.Subscribe(towerApp)

	apps := app.NewRegistry(logger)
	if err := apps.Register(app.AppConfig{Name: tower.AppName, Instance: towerApp, DB: db}); err != nil {
		return err
	}

	hub := websocket.NewHub(manager, websocket.Config{
		MessagesPerSecond: cfg.WebSocket.MessagesPerSecond,
		Burst:             cfg.WebSocket.Burst,
	}, logger)
	bus.Subscribe(hub)

	engineRouter := gin.New()
	engineRouter.Use(gin.Recovery())
	apiGroup := engineRouter.Group("/api")
	apps.RegisterRoutes(apiGroup)
	apiGroup.GET("/apps", apps.AppsEndpoint())
	apiGroup.GET("/stats/:appName/:player", apps.StatsEndpoint())
	health.NewHealthHandler(health.NewHealthChecker(db, apps, manager)).RegisterRoutes(engineRouter)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Mount("/api", engineRouter)
	router.Mount("/health", engineRouter)
	router.Handle("/metrics", gameMetrics.Handler())
	router.Get("/ws/tower/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, chi.URLParam(r, "sessionID"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server startup error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}
	hub.Close()
	manager.Close(shutdownCtx)
	bus.Close()

	logger.Info("graceful shutdown complete")
	return nil
}
