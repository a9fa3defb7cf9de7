package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error on a
	// malformed hash.
	Verify(password, hash string) (bool, error)
}

// NewTokenService returns the implementation named by tokenType, "paseto" or
// "jwt".
func NewTokenService(tokenType string, secret []byte) (TokenService, error) {
	switch tokenType {
	case "paseto":
		s, err := NewPasetoService(secret)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "jwt":
		s, err := NewJWTService(secret)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported token type %q", tokenType)
	}
}
