package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
	mocks "github.com/nanolancers/admin-console/internal/mocks/auth"
)

func TestNewSessionReaper_RequiresStore(t *testing.T) {
	_, err := NewSessionReaper(SessionReaperOptions{})
	assert.Error(t, err)
}

func TestSessionReaper_PurgeRemovesOnlyExpired(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	ctx := context.Background()
	require.NoError(t, store.CreateSession(ctx, domainauth.Session{Token: "dead", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, store.CreateSession(ctx, domainauth.Session{Token: "live", ExpiresAt: time.Now().Add(time.Hour)}))

	reaper, err := NewSessionReaper(SessionReaperOptions{Store: store, Interval: time.Hour})
	require.NoError(t, err)

	reaper.purge(ctx)
	assert.Equal(t, 1, store.SessionCount())
}

func TestSessionReaper_RunStopsOnCancel(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	reaper, err := NewSessionReaper(SessionReaperOptions{Store: store, Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reaper.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case runErr := <-done:
		assert.NoError(t, runErr)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop on cancel")
	}
}
