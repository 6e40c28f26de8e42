package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/landsync/internal/app"
	"github.com/stwalsh4118/landsync/internal/config"
	"github.com/stwalsh4118/landsync/internal/handlers"
	"github.com/stwalsh4118/landsync/internal/logger"
	"github.com/stwalsh4118/landsync/internal/metrics"
	"github.com/stwalsh4118/landsync/internal/middleware"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from .env and environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env, cfg.Log.Level)
	log.Info("Starting landsync API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize backends", err, map[string]interface{}{
			"db_enabled": cfg.Database.Enabled,
			"redis_addr": cfg.Redis.Addr,
		})
	}
	defer a.Close()

	if err := a.Migrate(ctx); err != nil {
		log.Fatal("Failed to apply schema", err, nil)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(a)

	srv := newServer(fmt.Sprintf(":%s", cfg.Server.Port), router, log)

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// newServer builds the HTTP server. Connection-level errors from net/http go to the
// application log.
func newServer(addr string, handler http.Handler, log *logger.Logger) *http.Server {
	errLog := log.GetZerolog().With().Str("component", "http").Logger()
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          stdlog.New(&errLog, "", 0),
	}
}

// newRouter registers middleware and routes.
func newRouter(a *app.App) *gin.Engine {
	cfg := a.Config
	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> CORS -> BodyLimit
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.Log))
	router.Use(middleware.Recovery(a.Log))
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(middleware.BodyLimit(cfg.Server.MaxUploadMB << 20))

	var db, lockBackend handlers.Pinger
	if a.DB != nil {
		db = a.DB
	}
	if a.Redis != nil {
		lockBackend = a.Redis
	}
	healthHandler := handlers.NewHealthHandler(db, lockBackend, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	parcelHandler := handlers.NewParcelHandler(a.ParcelService())
	batchHandler := handlers.NewBatchHandler(a.ImportService(), a.DedupeService(), a.SheetOptions())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", healthHandler.Info)
		v1.GET("/parcels/:code", parcelHandler.GetParcel)
		v1.GET("/landholders/:code", parcelHandler.GetLandholder)
		v1.POST("/imports", batchHandler.Import)
		v1.POST("/remediations", batchHandler.Remediate)
		v1.POST("/geometry/audit", batchHandler.AuditGeometry)
	}

	return router
}
