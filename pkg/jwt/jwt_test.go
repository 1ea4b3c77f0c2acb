package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Minute)
	id := uuid.New()

	token, err := m.GenerateAccessToken(id, "alice@ftfc.com", "staff")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.MemberID)
	assert.Equal(t, "alice@ftfc.com", claims.Email)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Minute)

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewManager("other", time.Minute).GenerateAccessToken(uuid.New(), "a@b.co", "staff")
		require.NoError(t, err)
		_, err = m.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewManager("secret", -time.Minute).GenerateAccessToken(uuid.New(), "a@b.co", "staff")
		require.NoError(t, err)
		_, err = m.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateAccessToken("not-a-token")
		assert.Error(t, err)
	})
}
