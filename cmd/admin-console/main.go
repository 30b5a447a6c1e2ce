// Command admin-console runs the admin console API: session management for
// console operators plus the content surfaces they edit.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/nanolancers/admin-console/config"
	"github.com/nanolancers/admin-console/internal/bootstrap"
	"github.com/nanolancers/admin-console/internal/data"
	httpx "github.com/nanolancers/admin-console/internal/http"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting admin console",
		"session_backend", cfg.Auth.Backend,
		"session_cache", cfg.Auth.SessionCache,
		"http_addr", cfg.HTTP.Addr)

	db, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close database failed", "error", cerr)
			}
		}()
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	auth, err := bootstrap.BuildAuth(ctx, bootstrap.AuthDeps{
		Auth:        cfg.Auth,
		SQLite:      cfg.SQLite,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := auth.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close session store failed", "error", cerr)
		}
	}()

	// Restore any persisted session before the first request arrives.
	auth.Manager.CheckAuth(ctx)

	services := httpx.RouterServices{
		Auth:   auth.Manager,
		Logger: logger,
	}
	if db != nil {
		services.Catalog = data.NewCatalogRepo(db)
		services.AdminUsers = data.NewAdminUserRepo(db)
	}

	server := bootstrap.StartHTTPServer(bootstrap.HTTPServerConfig{
		HTTP:     cfg.HTTP,
		Services: services,
		Logger:   logger,
	})

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		return auth.Reaper.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return bootstrap.ShutdownHTTPServer(ctx, server, cfg.HTTP.ShutdownTimeout, logger)
	})

	return group.Wait()
}

// initInfrastructure connects shared dependencies used by the service
// runtime. PostgreSQL is skipped entirely when the SQLite session backend is
// selected and Redis is only dialed when the session cache needs it.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, *redis.Client, error) {
	var db *sql.DB
	if cfg.Auth.Backend == config.SessionBackendPostgres {
		var err error
		db, err = bootstrap.ConnectDB(cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}

		if cfg.Postgres.RunMigrationsOnStart {
			if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
				closeDB(db, logger)
				return nil, nil, err
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
	}

	var redisClient *redis.Client
	if cfg.Auth.SessionCache {
		var err error
		redisClient, err = bootstrap.ConnectRedis(cfg.Redis, logger)
		if err != nil {
			closeDB(db, logger)
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	return db, redisClient, nil
}

func closeDB(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if cerr := db.Close(); cerr != nil {
		logger.Error("close database failed", "error", cerr)
	}
}
