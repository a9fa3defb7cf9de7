package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/places-api/internal/apperror"
)

// Credentials bundles password hashing and session token issuance.
type Credentials struct {
	hasher   PasswordHasher
	tokens   TokenService
	tokenTTL time.Duration
}

func NewCredentials(hasher PasswordHasher, tokens TokenService, tokenTTL time.Duration) *Credentials {
	return &Credentials{
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

// HashPassword returns a one-way hash of plaintext.
func (c *Credentials) HashPassword(plaintext string) (string, error) {
	hash, err := c.hasher.Hash(plaintext)
	if err != nil {
		return "", apperror.Crypto("Could not process password.", err)
	}
	return hash, nil
}

// VerifyPassword reports whether plaintext matches hash. A mismatch is not an
// error.
func (c *Credentials) VerifyPassword(plaintext, hash string) (bool, error) {
	ok, err := c.hasher.Verify(plaintext, hash)
	if err != nil {
		return false, apperror.Crypto("Could not verify credentials.", err)
	}
	return ok, nil
}

// IssueToken creates a session token for the user with the configured TTL.
func (c *Credentials) IssueToken(userID uuid.UUID, email string) (string, error) {
	token, err := c.tokens.CreateToken(userID, email, c.tokenTTL)
	if err != nil {
		return "", apperror.Crypto("Could not issue session token.", err)
	}
	return token, nil
}
