package oauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftfc/crm/internal/infrastructure/cache"
)

func TestStateManager_OneTimeUse(t *testing.T) {
	ctx := context.Background()
	sm := NewStateManager(cache.NewMemoryStore())

	state, err := sm.GenerateState(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	ok, err := sm.ValidateState(ctx, state)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = sm.ValidateState(ctx, state)
	require.NoError(t, err)
	assert.False(t, ok, "state must not validate twice")
}

func TestStateManager_UnknownState(t *testing.T) {
	ctx := context.Background()
	sm := NewStateManager(cache.NewMemoryStore())

	ok, err := sm.ValidateState(ctx, "forged")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = sm.ValidateState(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGoogleProvider_AuthURLRequestsOfflineDriveAccess(t *testing.T) {
	p := NewGoogleProvider("client-id", "secret", "http://localhost/cb")

	u := p.GetAuthURL("state-123")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "prompt=consent")
	assert.Contains(t, u, "state=state-123")
	assert.Contains(t, u, "drive.metadata.readonly")
	assert.Contains(t, u, "documents.readonly")
	assert.Equal(t, "client-id", p.ClientID())
}
