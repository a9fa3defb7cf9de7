// Package user implements account listing, signup and login.
package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/auth"
	"github.com/redmonkez12/places-api/internal/logging"
	"github.com/redmonkez12/places-api/internal/metrics"
	"github.com/redmonkez12/places-api/internal/store"
	"github.com/redmonkez12/places-api/internal/upload"
)

const (
	invalidCredentialsMessage = "Invalid credentials, could not log you in."
	userExistsMessage         = "User exists already, please login instead."
	signupFailedMessage       = "Signing up failed, please try again later."
	loginFailedMessage        = "Logging in failed, please try again later."
)

// SignupInput holds the fields of a new account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Token  string    `json:"token"`
}

// Service handles user business logic
type Service struct {
	store        store.Store
	credentials  *auth.Credentials
	images       upload.Store
	metrics      *metrics.Metrics
	logger       *logging.Logger
	defaultImage string
}

func NewService(
	st store.Store,
	credentials *auth.Credentials,
	images upload.Store,
	m *metrics.Metrics,
	logger *logging.Logger,
	defaultImage string,
) *Service {
	return &Service{
		store:        st,
		credentials:  credentials,
		images:       images,
		metrics:      m,
		logger:       logger,
		defaultImage: defaultImage,
	}
}

// ListUsers returns every user. Password hashes never leave the service
// through JSON.
func (s *Service) ListUsers(ctx context.Context) ([]*store.User, error) {
	users, err := s.store.Users().Find(ctx, store.UserFilter{})
	if err != nil {
		return nil, apperror.Store("Fetching users failed, please try again later.", err)
	}
	return users, nil
}

// Signup creates an account and logs it in. img may be nil, in which case
// the default image is used.
func (s *Service) Signup(ctx context.Context, in SignupInput, img *upload.Image) (*AuthResult, error) {
	exists, err := s.store.Users().Exists(ctx, store.UserFilter{Email: in.Email})
	if err != nil {
		return nil, apperror.Store(signupFailedMessage, err)
	}
	if exists {
		return nil, apperror.Conflict(userExistsMessage)
	}

	passwordHash, err := s.credentials.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	image := s.defaultImage
	if img != nil {
		image, err = s.images.Save(ctx, img.Key(), img)
		if err != nil {
			return nil, apperror.Store(signupFailedMessage, err)
		}
	}

	u := &store.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Image:        image,
		PlaceIDs:     []uuid.UUID{},
	}

	if err := s.store.Users().Create(ctx, u); err != nil {
		if img != nil {
			s.discardImage(ctx, image)
		}
		// lost the race against a concurrent signup
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, apperror.Conflict(userExistsMessage)
		}
		return nil, apperror.Store(signupFailedMessage, err)
	}

	token, err := s.credentials.IssueToken(u.ID, u.Email)
	if err != nil {
		return nil, err
	}

	s.metrics.Signup()
	return &AuthResult{UserID: u.ID, Email: u.Email, Token: token}, nil
}

// Login checks the credentials and issues a token. An unknown email and a
// wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	// an empty filter would match any user
	if email == "" {
		s.metrics.Login(false)
		return nil, apperror.Unauthorized(invalidCredentialsMessage)
	}

	u, err := s.store.Users().FindOne(ctx, store.UserFilter{Email: email})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.Login(false)
			return nil, apperror.Unauthorized(invalidCredentialsMessage)
		}
		return nil, apperror.Store(loginFailedMessage, err)
	}

	ok, err := s.credentials.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.Login(false)
		return nil, apperror.Unauthorized(invalidCredentialsMessage)
	}

	token, err := s.credentials.IssueToken(u.ID, u.Email)
	if err != nil {
		return nil, err
	}

	s.metrics.Login(true)
	return &AuthResult{UserID: u.ID, Email: u.Email, Token: token}, nil
}

func (s *Service) discardImage(ctx context.Context, ref string) {
	if err := s.images.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.logger.WithFields(map[string]any{"image": ref}).LogError("failed to remove orphaned user image", err)
	}
}
