// Package tokenvault persists the operator's session token across console
// restarts. One key, one value; absence means unauthenticated.
package tokenvault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileVault stores the session token in a single file, created with 0600.
type FileVault struct {
	Path string
}

// NewFileVault creates a FileVault at the given path. An empty path defaults
// to "admin-console/session.token" under the user config directory.
func NewFileVault(path string) (*FileVault, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "admin-console", "session.token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	return &FileVault{Path: path}, nil
}

// Load returns the persisted token, or "" when none is stored.
func (v *FileVault) Load() (string, error) {
	data, err := os.ReadFile(v.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Store writes the token, replacing any previous one.
func (v *FileVault) Store(token string) error {
	if err := os.WriteFile(v.Path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the persisted token. Clearing an empty vault is a no-op.
func (v *FileVault) Clear() error {
	err := os.Remove(v.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
