package tokenvault

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) *FileVault {
	t.Helper()
	v, err := NewFileVault(filepath.Join(t.TempDir(), "session.token"))
	require.NoError(t, err)
	return v
}

func TestFileVault_LoadEmpty(t *testing.T) {
	v := newTestVault(t)

	token, err := v.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileVault_StoreAndLoad(t *testing.T) {
	v := newTestVault(t)

	require.NoError(t, v.Store("tok-abc"))

	token, err := v.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestFileVault_StoreReplaces(t *testing.T) {
	v := newTestVault(t)

	require.NoError(t, v.Store("first"))
	require.NoError(t, v.Store("second"))

	token, err := v.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestFileVault_Clear(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Store("tok"))

	require.NoError(t, v.Clear())

	token, err := v.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	// Clearing again is a no-op.
	require.NoError(t, v.Clear())
}
