package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/places-api/internal/auth"
)

var (
	testKey  = []byte("0123456789abcdef0123456789abcdef")
	otherKey = []byte("fedcba9876543210fedcba9876543210")
)

func tokenServices(t *testing.T, key []byte) map[string]auth.TokenService {
	t.Helper()

	pasetoService, err := auth.NewPasetoService(key)
	require.NoError(t, err)
	jwtService, err := auth.NewJWTService(key)
	require.NoError(t, err)

	return map[string]auth.TokenService{
		"paseto": pasetoService,
		"jwt":    jwtService,
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	for name, svc := range tokenServices(t, testKey) {
		t.Run(name, func(t *testing.T) {
			userID := uuid.New()

			token, err := svc.CreateToken(userID, "ana@x.com", time.Hour)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, userID.String(), claims.UserID)
			assert.Equal(t, "ana@x.com", claims.Email)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	for name, svc := range tokenServices(t, testKey) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateToken(uuid.New(), "ana@x.com", -time.Minute)
			require.NoError(t, err)

			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, auth.ErrExpiredToken)
		})
	}
}

func TestTokenService_RejectsForeignKeyAndGarbage(t *testing.T) {
	others := tokenServices(t, otherKey)

	for name, svc := range tokenServices(t, testKey) {
		t.Run(name, func(t *testing.T) {
			token, err := others[name].CreateToken(uuid.New(), "ana@x.com", time.Hour)
			require.NoError(t, err)

			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)

			_, err = svc.VerifyToken("not-a-token")
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestNewTokenServices_RejectShortKeys(t *testing.T) {
	_, err := auth.NewPasetoService([]byte("short"))
	assert.Error(t, err)

	_, err = auth.NewJWTService([]byte("short"))
	assert.Error(t, err)
}

func TestNewTokenService(t *testing.T) {
	for _, tokenType := range []string{"paseto", "jwt"} {
		svc, err := auth.NewTokenService(tokenType, testKey)
		require.NoError(t, err, tokenType)
		assert.NotNil(t, svc)
	}

	_, err := auth.NewTokenService("saml", testKey)
	assert.Error(t, err)
}
