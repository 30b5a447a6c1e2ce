// Package sqlite implements the session store against a local SQLite
// database, the console's direct-database backend. It owns its schema;
// timestamps are stored as unix milliseconds.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
	"github.com/nanolancers/admin-console/internal/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore persists identities and sessions in SQLite.
type SessionStore struct {
	DB *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*SessionStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids lock contention.
	db.SetMaxOpenConns(1)

	store := &SessionStore{DB: db}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *SessionStore) Close() error { return s.DB.Close() }

func (s *SessionStore) ensureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS user_roles (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			permissions TEXT NOT NULL DEFAULT '{}'
		);
		CREATE TABLE IF NOT EXISTS admin_users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
			full_name     TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			is_active     INTEGER NOT NULL DEFAULT 1,
			last_login    INTEGER,
			created_at    INTEGER NOT NULL,
			role_id       TEXT REFERENCES user_roles(id)
		);
		CREATE TABLE IF NOT EXISTS user_sessions (
			token      TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES admin_users(id),
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_user_sessions_expires_at
			ON user_sessions(expires_at);`

	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return nil
}

const identityColumns = `
	au.id, au.email, au.full_name, au.password_hash, au.is_active,
	au.last_login, au.created_at, au.role_id,
	ur.name, ur.permissions`

// scanIdentity reads one identity row with its (possibly absent) role.
// Extra destinations receive any columns selected after identityColumns.
func scanIdentity(row *sql.Row, extra ...any) (*domainauth.Identity, error) {
	var (
		id          domainauth.Identity
		lastLogin   sql.NullInt64
		createdAt   int64
		roleID      sql.NullString
		roleName    sql.NullString
		permissions sql.NullString
	)
	dest := []any{
		&id.ID, &id.Email, &id.FullName, &id.PasswordHash, &id.Active,
		&lastLogin, &createdAt, &roleID,
		&roleName, &permissions,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}

	id.CreatedAt = time.UnixMilli(createdAt)
	if lastLogin.Valid {
		t := time.UnixMilli(lastLogin.Int64)
		id.LastLogin = &t
	}
	if roleID.Valid {
		id.RoleID = roleID.String
	}
	if roleName.Valid {
		role := &domainauth.Role{ID: id.RoleID, Name: roleName.String}
		if permissions.Valid && permissions.String != "" {
			if jsonErr := json.Unmarshal([]byte(permissions.String), &role.Permissions); jsonErr != nil {
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
		WHERE lower(au.email) = lower(?) AND au.is_active = 1`

	identity, err := scanIdentity(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return identity, nil
}

func (s *SessionStore) CreateSession(ctx context.Context, sess domainauth.Session) error {
	const query = `
		INSERT INTO user_sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`

	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.DB.ExecContext(ctx, query,
		sess.Token, sess.IdentityID, sess.ExpiresAt.UnixMilli(), createdAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, token string) error {
	const query = `DELETE FROM user_sessions WHERE token = ?`

	if _, err := s.DB.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) FindValidSession(ctx context.Context, token string) (*domainauth.Identity, time.Time, error) {
	const query = `
		SELECT ` + identityColumns + `, us.expires_at
		FROM user_sessions us
		JOIN admin_users au ON au.id = us.user_id
		LEFT JOIN user_roles ur ON ur.id = au.role_id
		WHERE us.token = ? AND us.expires_at > ? AND au.is_active = 1`

	var expiresMillis int64
	identity, err := scanIdentity(s.DB.QueryRowContext(ctx, query, token, time.Now().UnixMilli()), &expiresMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ports.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("find session by token: %w", err)
	}
	return identity, time.UnixMilli(expiresMillis), nil
}

func (s *SessionStore) TouchLastLogin(ctx context.Context, identityID string) error {
	const query = `UPDATE admin_users SET last_login = ? WHERE id = ?`

	if _, err := s.DB.ExecContext(ctx, query, time.Now().UnixMilli(), identityID); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (s *SessionStore) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	const query = `DELETE FROM user_sessions WHERE expires_at <= ?`

	res, err := s.DB.ExecContext(ctx, query, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return purged, nil
}

// SeedIdentity inserts a role and identity, used by dev setup and tests.
func (s *SessionStore) SeedIdentity(ctx context.Context, identity *domainauth.Identity) error {
	if identity.Role != nil {
		permissions, err := json.Marshal(identity.Role.Permissions)
		if err != nil {
			return fmt.Errorf("encode role permissions: %w", err)
		}
		const roleQuery = `
			INSERT INTO user_roles (id, name, permissions) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, permissions = excluded.permissions`
		if _, err := s.DB.ExecContext(ctx, roleQuery, identity.Role.ID, identity.Role.Name, string(permissions)); err != nil {
			return fmt.Errorf("insert role: %w", err)
		}
	}

	var lastLogin any
	if identity.LastLogin != nil {
		lastLogin = identity.LastLogin.UnixMilli()
	}
	createdAt := identity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var roleID any
	if identity.RoleID != "" {
		roleID = identity.RoleID
	}

	const userQuery = `
		INSERT INTO admin_users (id, email, full_name, password_hash, is_active, last_login, created_at, role_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.DB.ExecContext(ctx, userQuery,
		identity.ID, identity.Email, identity.FullName, identity.PasswordHash,
		identity.Active, lastLogin, createdAt.UnixMilli(), roleID)
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}
