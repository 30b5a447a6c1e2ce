package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nanolancers/admin-console/internal/adapters/credentials"
	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
)

// ErrEmailExists is returned when creating an admin user with an email that
// is already registered.
var ErrEmailExists = errors.New("email already exists")

// AdminUserRepo manages the console's own operator accounts and roles.
// Password hashes never leave this package through List.
type AdminUserRepo struct {
	DB *sql.DB
}

// NewAdminUserRepo creates an AdminUserRepo.
func NewAdminUserRepo(db *sql.DB) *AdminUserRepo {
	return &AdminUserRepo{DB: db}
}

// adminUserRow is the flat shape List collects before mapping to the domain.
type adminUserRow struct {
	ID              string
	Email           string
	FullName        string
	IsActive        bool
	LastLogin       *time.Time
	CreatedAt       time.Time
	RoleID          *string
	RoleName        *string
	RolePermissions []byte
}

func (row adminUserRow) toIdentity() (domainauth.Identity, error) {
	identity := domainauth.Identity{
		ID:        row.ID,
		Email:     row.Email,
		FullName:  row.FullName,
		Active:    row.IsActive,
		LastLogin: row.LastLogin,
		CreatedAt: row.CreatedAt,
	}
	if row.RoleID != nil {
		identity.RoleID = *row.RoleID
	}
	if row.RoleName != nil {
		role := &domainauth.Role{ID: identity.RoleID, Name: *row.RoleName}
		if len(row.RolePermissions) > 0 {
			if err := json.Unmarshal(row.RolePermissions, &role.Permissions); err != nil {
				return identity, fmt.Errorf("decode role permissions: %w", err)
			}
		}
		identity.Role = role
	}
	return identity, nil
}

// List returns every admin user with its role, newest first.
func (r *AdminUserRepo) List(ctx context.Context) ([]domainauth.Identity, error) {
	const query = `
		SELECT
			au.id, au.email, au.full_name, au.is_active,
			au.last_login, au.created_at, au.role_id,
			ur.name AS role_name, ur.permissions AS role_permissions
		FROM admin_users au
		LEFT JOIN user_roles ur ON ur.id = au.role_id
		ORDER BY au.created_at DESC`

	rows, err := collectRows[adminUserRow](ctx, r.DB, query)
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}

	identities := make([]domainauth.Identity, 0, len(rows))
	for _, row := range rows {
		identity, mapErr := row.toIdentity()
		if mapErr != nil {
			return nil, mapErr
		}
		identities = append(identities, identity)
	}
	return identities, nil
}

// CreateAdminUserRequest carries the fields for a new operator account.
type CreateAdminUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"`
}

// Validate checks required fields.
func (req CreateAdminUserRequest) Validate() error {
	if req.Email == "" {
		return errors.New("email is required")
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// Create inserts a new active admin user with a bcrypt-hashed credential.
func (r *AdminUserRepo) Create(ctx context.Context, req CreateAdminUserRequest) (*domainauth.Identity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := credentials.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity := domainauth.Identity{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FullName:  req.FullName,
		Active:    true,
		CreatedAt: time.Now(),
		RoleID:    req.RoleID,
	}

	const query = `
		INSERT INTO admin_users (id, email, full_name, password_hash, is_active, created_at, role_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`
	_, err = execAffected(ctx, r.DB, query,
		identity.ID, identity.Email, identity.FullName, hash,
		identity.Active, identity.CreatedAt, identity.RoleID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create admin user: %w", err)
	}
	return &identity, nil
}

// SetActive flips an admin user's active flag. Deactivation invalidates
// future logins and restorations immediately.
func (r *AdminUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	return execOne(ctx, r.DB, "set admin user active",
		`UPDATE admin_users SET is_active = $2 WHERE id = $1`, id, active)
}

// AssignRole changes an admin user's role.
func (r *AdminUserRepo) AssignRole(ctx context.Context, id, roleID string) error {
	return execOne(ctx, r.DB, "assign role",
		`UPDATE admin_users SET role_id = $2 WHERE id = $1`, id, roleID)
}
