package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"focusdesk/internal/app"
	"focusdesk/internal/service"
	"focusdesk/pkg/config"
	"focusdesk/pkg/logger"
	"focusdesk/pkg/otel"
)

// runner recomputes streaks against a shared remote store for deployments
// where no server process is always up.
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

	log.Info("Starting focusdesk runner...",
		zap.String("env", env),
		zap.String("backend", cfg.Store.Backend),
		zap.Duration("interval", cfg.Runner.Interval),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := otel.Init(ctx, cfg.OTel, log)
	if err != nil {
		log.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}

	a, err := app.New(ctx, cfg, log, app.WithRefresherOptions(service.WithReload()))
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Refresher.Run(ctx)
	}()

	// HTTP Server (for health checks)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		pingCtx, pingCancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer pingCancel()
		if err := a.Store.Ping(pingCtx); err != nil {
			c.JSON(500, gin.H{"status": "store_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := config.GetEnv("RUNNER_PORT", "8084")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down focusdesk runner gracefully...")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	a.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to shutdown TracerProvider", zap.Error(err))
	}
	log.Info("focusdesk runner shutdown complete")
}
