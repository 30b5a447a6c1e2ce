// Package auth contains domain-level types for identities, roles, and sessions.
package auth

import (
	"encoding/json"
	"strings"
	"time"
)

// Identity represents an administrative user account.
// Role is populated by store lookups (joined in); a nil Role denies everything.
type Identity struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"`
	Active       bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	RoleID       string     `json:"role_id"`
	Role         *Role      `json:"role,omitempty"`
}

// Role is a named permission bundle assigned to an Identity.
type Role struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Permissions Permissions `json:"permissions"`
}

// Permissions maps resource names to action grants, with an optional
// wildcard "all" flag that grants everything.
//
// The stored JSON form is {"all": true} or {"users": {"write": true}, ...};
// both shapes may appear in the same document.
type Permissions struct {
	All    bool
	Grants map[string]map[string]bool
}

// Allows reports whether the given resource/action pair is granted.
// Missing resources or actions deny; they are never an error.
func (p Permissions) Allows(resource, action string) bool {
	if p.All {
		return true
	}
	return p.Grants[resource][action]
}

// AllowsKey evaluates a "resource.action" permission key.
// Malformed keys deny.
func (p Permissions) AllowsKey(key string) bool {
	if p.All {
		return true
	}
	resource, action, ok := strings.Cut(key, ".")
	if !ok {
		return false
	}
	return p.Allows(resource, action)
}

// UnmarshalJSON accepts the stored permission document shape, where "all"
// is a top-level boolean and every other key maps to an action grant object.
func (p *Permissions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.All = false
	p.Grants = make(map[string]map[string]bool, len(raw))
	for resource, v := range raw {
		if resource == "all" {
			var all bool
			if err := json.Unmarshal(v, &all); err != nil {
				return err
			}
			p.All = all
			continue
		}
		var actions map[string]bool
		if err := json.Unmarshal(v, &actions); err != nil {
			return err
		}
		p.Grants[resource] = actions
	}
	return nil
}

// MarshalJSON emits the same document shape UnmarshalJSON accepts.
func (p Permissions) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(p.Grants)+1)
	if p.All {
		doc["all"] = true
	}
	for resource, actions := range p.Grants {
		doc[resource] = actions
	}
	return json.Marshal(doc)
}

// Session is the server-side record that proves one authenticated console
// session. Token is opaque and unguessable; a session is valid strictly
// before ExpiresAt.
type Session struct {
	Token      string    `json:"token"`
	IdentityID string    `json:"identity_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Valid reports whether the session has not yet expired at the given instant.
// An expiry exactly equal to now counts as expired.
func (s Session) Valid(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// Credentials carry a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthState is the process-local snapshot of the current authentication
// status. It is owned by the session manager; consumers only ever see copies.
type AuthState struct {
	Identity      *Identity `json:"user"`
	Authenticated bool      `json:"is_authenticated"`
	Loading       bool      `json:"is_loading"`
}
