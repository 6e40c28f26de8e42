// Package app wires configuration into the storage, locking and service layers shared by
// the HTTP server and the command-line tool.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/stwalsh4118/landsync/internal/config"
	"github.com/stwalsh4118/landsync/internal/database"
	"github.com/stwalsh4118/landsync/internal/geodesy"
	"github.com/stwalsh4118/landsync/internal/ingest"
	"github.com/stwalsh4118/landsync/internal/lock"
	"github.com/stwalsh4118/landsync/internal/logger"
	"github.com/stwalsh4118/landsync/internal/reconcile"
	"github.com/stwalsh4118/landsync/internal/repository"
	"github.com/stwalsh4118/landsync/internal/services"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	DB     *database.Database // nil when DB_ENABLED=false
	Store  repository.TxRunner
	Locker lock.Locker
	Redis  *lock.RedisLock // nil when REDIS_ADDR is empty

	redisClient *redis.Client
}

// New connects to the configured backends. With the database disabled every component
// shares one in-memory store; without a Redis address run locking is disabled.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Locker: lock.NoopLock{}}

	if cfg.Database.Enabled {
		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		a.Store = repository.NewPostgresStore(db)
		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
	} else {
		a.Store = repository.NewMemoryStore()
		log.Warn("Database disabled, records are kept in memory only", nil)
	}

	if cfg.Redis.Addr != "" {
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rl := lock.NewRedisLock(a.redisClient, cfg.Redis.LockTTL)
		if err := rl.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Locker = rl
		a.Redis = rl
		log.Info("Run lock enabled", map[string]interface{}{
			"addr": cfg.Redis.Addr,
			"ttl":  cfg.Redis.LockTTL.String(),
		})
	}

	return a, nil
}

// Migrate applies the schema when a database is configured.
func (a *App) Migrate(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Migrate(ctx)
}

// Engine builds a reconciliation engine for the configured projection.
func (a *App) Engine() *reconcile.Engine {
	return reconcile.NewEngine(reconcile.Config{
		Zone:       a.Config.Import.UTMZone,
		Hemisphere: geodesy.ParseHemisphere(a.Config.Import.UTMHemisphere),
	})
}

// SheetOptions returns the workbook reader settings.
func (a *App) SheetOptions() ingest.Options {
	return ingest.Options{HeaderScanRows: a.Config.Import.HeaderScanRows}
}

// ImportService builds the import batch service.
func (a *App) ImportService() services.ImportService {
	return services.NewImportService(a.Store, a.Engine(), a.Locker, a.Log)
}

// DedupeService builds the duplicate remediation service.
func (a *App) DedupeService() services.DedupeService {
	return services.NewDedupeService(a.Store, a.Locker, a.Log)
}

// ParcelService builds the lookup service.
func (a *App) ParcelService() services.ParcelService {
	return services.NewParcelService(a.Store.Parcels(), a.Store.Landholders(), a.Log)
}

// Close releases every connection.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Log.Warn("Failed to close redis client", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
