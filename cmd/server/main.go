package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusdesk/internal/app"
	"focusdesk/internal/handler"
	"focusdesk/internal/httpserver"
	"focusdesk/pkg/config"
	"focusdesk/pkg/logger"
	"focusdesk/pkg/otel"
)

func main() {
	env := config.GetConfigEnv()
	cfg, err := config.Load(env, config.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting focusdesk server...",
		zap.String("env", env),
		zap.String("backend", cfg.Store.Backend),
		zap.String("port", cfg.Server.Port),
	)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	shutdownTracing, err := otel.Init(rootCtx, cfg.OTel, log)
	if err != nil {
		log.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}

	a, err := app.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}

	// Streak refresher - runs every runner.interval
	go a.Refresher.Run(rootCtx)

	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:   handler.NewAuthHandler(a.Auth, log),
		Habit:  handler.NewHabitHandler(a.Habits, a.Clock, log),
		Task:   handler.NewTaskHandler(a.Tasks, log),
		Note:   handler.NewNoteHandler(a.Notes, log),
		Stats:  handler.NewStatsHandler(a.Stats, log),
		Timer:  handler.NewTimerHandler(rootCtx, a.Timer, log),
		Prefs:  handler.NewPrefsHandler(a.Prefs, log),
		Backup: handler.NewBackupHandler(a.Backup, log),
	}, a.Auth, a.Store, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("focusdesk server is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down focusdesk server gracefully...")
	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	a.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to shutdown TracerProvider", zap.Error(err))
	}
	log.Info("focusdesk server shutdown complete")
}
