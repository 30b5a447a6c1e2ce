// Package postgres implements the session store against PostgreSQL, the
// console's hosted backend.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nanolancers/admin-console/internal/data/pgxutil"
	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
	"github.com/nanolancers/admin-console/internal/ports"
)

// Ensure the contract is satisfied.
var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore persists identities and sessions in PostgreSQL.
type SessionStore struct {
	DB *sql.DB
}

// NewSessionStore creates a PostgreSQL-backed session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{DB: db}
}

const identityColumns = `
	au.id, au.email, au.full_name, au.password_hash, au.is_active,
	au.last_login, au.created_at, au.role_id,
	ur.name, ur.permissions`

// scanIdentity reads one identity row with its (possibly absent) role.
// Extra destinations receive any columns selected after identityColumns.
func scanIdentity(row pgx.Row, extra ...any) (*domainauth.Identity, error) {
	var (
		id          domainauth.Identity
		roleName    *string
		permissions []byte
	)
	dest := []any{
		&id.ID, &id.Email, &id.FullName, &id.PasswordHash, &id.Active,
		&id.LastLogin, &id.CreatedAt, &id.RoleID,
		&roleName, &permissions,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}

	if roleName != nil {
		role := &domainauth.Role{ID: id.RoleID, Name: *roleName}
		if len(permissions) > 0 {
			if jsonErr := json.Unmarshal(permissions, &role.Permissions); jsonErr != nil {
				return nil, fmt.Errorf("decode role permissions: %w", jsonErr)
			}
		}
		id.Role = role
	}
	return &id, nil
}

func (s *SessionStore) FindActiveIdentityByEmail(ctx context.Context, email string) (*domainauth.Identity, error) {
	const query = `
		SELECT ` + identityColumns + `
		FROM admin_users au
		LEFT JOIN user_roles ur ON ur.id = au.role_id
		WHERE lower(au.email) = lower($1) AND au.is_active`

	var identity *domainauth.Identity
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		var scanErr error
		identity, scanErr = scanIdentity(conn.QueryRow(ctx, query, email))
		return scanErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return identity, nil
}

func (s *SessionStore) CreateSession(ctx context.Context, sess domainauth.Session) error {
	const query = `
		INSERT INTO user_sessions (user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, query, sess.IdentityID, sess.Token, sess.ExpiresAt, sess.CreatedAt)
		return execErr
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("session token already exists: %w", err)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, token string) error {
	const query = `DELETE FROM user_sessions WHERE token = $1`

	// Deleting a token that does not exist is not an error.
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, query, token)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) FindValidSession(ctx context.Context, token string) (*domainauth.Identity, time.Time, error) {
	// Missing and expired sessions fall into the same no-rows path; callers
	// cannot tell the two apart.
	const query = `
		SELECT ` + identityColumns + `, us.expires_at
		FROM user_sessions us
		JOIN admin_users au ON au.id = us.user_id
		LEFT JOIN user_roles ur ON ur.id = au.role_id
		WHERE us.token = $1 AND us.expires_at > $2 AND au.is_active`

	var (
		identity  *domainauth.Identity
		expiresAt time.Time
	)
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		var scanErr error
		identity, scanErr = scanIdentity(conn.QueryRow(ctx, query, token, time.Now()), &expiresAt)
		return scanErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, ports.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("find session by token: %w", err)
	}
	return identity, expiresAt, nil
}

func (s *SessionStore) TouchLastLogin(ctx context.Context, identityID string) error {
	const query = `UPDATE admin_users SET last_login = now() WHERE id = $1`

	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, query, identityID)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (s *SessionStore) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	const query = `DELETE FROM user_sessions WHERE expires_at <= $1`

	var purged int64
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, query, time.Now())
		if execErr != nil {
			return execErr
		}
		purged = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return purged, nil
}
