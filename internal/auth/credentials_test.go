package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/auth"
)

func TestCredentials(t *testing.T) {
	tokens, err := auth.NewPasetoService(testKey)
	require.NoError(t, err)
	creds := auth.NewCredentials(newTestHasher(), tokens, time.Hour)

	hash, err := creds.HashPassword("secret1")
	require.NoError(t, err)

	ok, err := creds.VerifyPassword("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = creds.VerifyPassword("secret1", "not-a-hash")
	assert.True(t, apperror.Is(err, apperror.CodeCrypto))

	userID := uuid.New()
	token, err := creds.IssueToken(userID, "ana@x.com")
	require.NoError(t, err)

	claims, err := tokens.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}
