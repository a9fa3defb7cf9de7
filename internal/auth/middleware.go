package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey    ContextKey = "user_id"
	UserEmailContextKey ContextKey = "user_email"
)

const authFailedMessage = "Authentication failed!"

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth is a middleware that validates the bearer token and stores the
// requester in the request context
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Preflight requests never carry credentials
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		ctx, err := m.authenticate(r)
		if err != nil {
			httputil.RespondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticate(r *http.Request) (context.Context, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, apperror.Unauthorized(authFailedMessage)
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, apperror.Unauthorized(authFailedMessage)
	}

	claims, err := m.tokenService.VerifyToken(parts[1])
	if err != nil {
		if err == ErrExpiredToken {
			return nil, apperror.Unauthorized("Session has expired, please log in again.")
		}
		return nil, apperror.Unauthorized(authFailedMessage)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperror.Unauthorized(authFailedMessage)
	}

	ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
	ctx = context.WithValue(ctx, UserEmailContextKey, claims.Email)
	return ctx, nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmailFromContext extracts the user email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailContextKey).(string)
	return email, ok
}
