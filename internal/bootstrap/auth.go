package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nanolancers/admin-console/config"
	"github.com/nanolancers/admin-console/internal/adapters/credentials"
	"github.com/nanolancers/admin-console/internal/adapters/postgres"
	"github.com/nanolancers/admin-console/internal/adapters/rediscache"
	"github.com/nanolancers/admin-console/internal/adapters/sqlite"
	"github.com/nanolancers/admin-console/internal/adapters/token"
	"github.com/nanolancers/admin-console/internal/adapters/tokenvault"
	"github.com/nanolancers/admin-console/internal/ports"
	"github.com/nanolancers/admin-console/internal/service"
)

// AuthDeps contains the inputs for building the session manager.
type AuthDeps struct {
	Auth   config.AuthConfig
	SQLite config.SQLiteConfig

	// DB is the PostgreSQL handle. Required when Backend is postgres.
	DB *sql.DB

	// RedisClient backs the optional session cache. Ignored unless
	// Auth.SessionCache is set.
	RedisClient redis.UniversalClient

	Logger *slog.Logger
}

// AuthComponents is the assembled auth subsystem.
type AuthComponents struct {
	Manager *service.SessionManager
	Store   ports.SessionStore
	Reaper  *service.SessionReaper

	// Close releases backend-specific resources (the SQLite handle).
	Close func() error
}

// BuildAuth wires the configured session store, credential verifier, token
// issuer, and token vault into a SessionManager and its reaper.
func BuildAuth(ctx context.Context, deps AuthDeps) (*AuthComponents, error) {
	store, closeStore, err := buildSessionStore(ctx, deps)
	if err != nil {
		return nil, err
	}

	if deps.Auth.SessionCache {
		if deps.RedisClient == nil {
			return nil, fmt.Errorf("session cache enabled but no redis client configured")
		}
		store = rediscache.NewSessionCache(store, deps.RedisClient, deps.Logger)
	}

	vault, err := tokenvault.NewFileVault(deps.Auth.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("open token vault: %w", err)
	}

	manager := service.NewSessionManager(service.SessionManagerOptions{
		Store:     store,
		Verifier:  credentials.BcryptVerifier{AllowPlaintextFallback: deps.Auth.AllowPlaintextFallback},
		Issuer:    token.NewIssuer(deps.Auth.SessionLifetime),
		Vault:     vault,
		Logger:    deps.Logger,
		OpTimeout: deps.Auth.OpTimeout,
	})

	reaper, err := service.NewSessionReaper(service.SessionReaperOptions{
		Store:    store,
		Interval: deps.Auth.ReapInterval,
		Logger:   deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build session reaper: %w", err)
	}

	return &AuthComponents{
		Manager: manager,
		Store:   store,
		Reaper:  reaper,
		Close:   closeStore,
	}, nil
}

func buildSessionStore(ctx context.Context, deps AuthDeps) (ports.SessionStore, func() error, error) {
	noop := func() error { return nil }

	switch deps.Auth.Backend {
	case config.SessionBackendPostgres:
		if deps.DB == nil {
			return nil, nil, fmt.Errorf("postgres session backend requires a database connection")
		}
		return postgres.NewSessionStore(deps.DB), noop, nil

	case config.SessionBackendSQLite:
		store, err := sqlite.Open(ctx, deps.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", deps.Auth.Backend)
	}
}
