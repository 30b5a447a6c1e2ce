package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nanolancers/admin-console/internal/ports"
)

// SessionReaperOptions groups dependencies for SessionReaper.
type SessionReaperOptions struct {
	Store    ports.SessionStore
	Interval time.Duration
	Logger   *slog.Logger
}

// SessionReaper periodically deletes expired session rows. Expired sessions
// are already invalid for restoration; the reaper only keeps the table from
// accumulating dead rows.
type SessionReaper struct {
	store    ports.SessionStore
	interval time.Duration
	logger   *slog.Logger
}

// NewSessionReaper constructs a SessionReaper.
func NewSessionReaper(opts SessionReaperOptions) (*SessionReaper, error) {
	if opts.Store == nil {
		return nil, errors.New("SessionStore is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionReaper{
		store:    opts.Store,
		interval: interval,
		logger:   logger.With("component", "session_reaper"),
	}, nil
}

// Run purges expired sessions at the configured interval until the context
// is cancelled. Returns nil on graceful shutdown.
func (r *SessionReaper) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "session reaper started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.purge(ctx)
		}
	}
}

func (r *SessionReaper) purge(ctx context.Context) {
	n, err := r.store.PurgeExpiredSessions(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "purge expired sessions failed", "error", err)
		return
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "purged expired sessions", "count", n)
	}
}
