package user_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/auth"
	"github.com/redmonkez12/places-api/internal/logging"
	"github.com/redmonkez12/places-api/internal/store/memstore"
	"github.com/redmonkez12/places-api/internal/upload"
	"github.com/redmonkez12/places-api/internal/user"
)

const defaultImage = "uploads/images/default-user.png"

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeImages struct {
	saved   []string
	deleted []string
}

func (f *fakeImages) Save(ctx context.Context, key string, img *upload.Image) (string, error) {
	ref := "uploads/images/" + key
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *fakeImages) Delete(ctx context.Context, ref string) error {
	f.deleted = append(f.deleted, ref)
	return nil
}

type fixture struct {
	store  *memstore.Store
	images *fakeImages
	tokens auth.TokenService
	svc    *user.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := auth.NewPasetoService(testKey)
	require.NoError(t, err)

	st := memstore.New()
	images := &fakeImages{}
	creds := auth.NewCredentials(auth.NewArgon2idHasher(1, 1024, 1), tokens, time.Hour)
	logger := logging.New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &fixture{
		store:  st,
		images: images,
		tokens: tokens,
		svc:    user.NewService(st, creds, images, nil, logger, defaultImage),
	}
}

var ana = user.SignupInput{Name: "Ana", Email: "ana@x.com", Password: "secret1"}

func pngImage() *upload.Image {
	return &upload.Image{Data: []byte("\x89PNG\r\n\x1a\n"), ContentType: "image/png"}
}

func TestSignupThenLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	signup, err := f.svc.Signup(ctx, ana, pngImage())
	require.NoError(t, err)
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "ana@x.com", signup.Email)

	claims, err := f.tokens.VerifyToken(signup.Token)
	require.NoError(t, err)
	assert.Equal(t, signup.UserID.String(), claims.UserID)

	login, err := f.svc.Login(ctx, "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, signup.UserID, login.UserID)
	assert.NotEmpty(t, login.Token)

	_, err = f.svc.Login(ctx, "ana@x.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, 401, apperror.Status(err))
}

func TestSignup_StoresUserWithoutPlaces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.Signup(ctx, ana, pngImage())
	require.NoError(t, err)

	u, err := f.store.Users().FindByID(ctx, res.UserID)
	require.NoError(t, err)
	assert.Empty(t, u.PlaceIDs)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.Equal(t, f.images.saved[0], u.Image)
}

func TestSignup_DefaultImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.Signup(ctx, ana, nil)
	require.NoError(t, err)

	u, err := f.store.Users().FindByID(ctx, res.UserID)
	require.NoError(t, err)
	assert.Equal(t, defaultImage, u.Image)
	assert.Empty(t, f.images.saved)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Signup(ctx, ana, nil)
	require.NoError(t, err)

	_, err = f.svc.Signup(ctx, ana, pngImage())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeConflict))
	assert.Equal(t, 422, apperror.Status(err))
	assert.Equal(t, "User exists already, please login instead.", apperror.Message(err))
	assert.Empty(t, f.images.saved, "no image is stored for a rejected signup")
}

func TestSignup_StoreFaultRemovesImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.FailOn("users.create", errors.New("connection reset"))

	_, err := f.svc.Signup(ctx, ana, pngImage())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeStore))
	assert.NotContains(t, apperror.Message(err), "connection reset")
	assert.Equal(t, f.images.saved, f.images.deleted)
}

func TestLogin_UnknownEmailMatchesWrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, ana, nil)
	require.NoError(t, err)

	_, unknownErr := f.svc.Login(ctx, "nobody@x.com", "secret1")
	_, wrongErr := f.svc.Login(ctx, "ana@x.com", "secret2")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, apperror.Status(unknownErr), apperror.Status(wrongErr))
	assert.Equal(t, apperror.Message(unknownErr), apperror.Message(wrongErr))
	assert.Equal(t, "Invalid credentials, could not log you in.", apperror.Message(wrongErr))
}

func TestLogin_EmptyEmailNeverMatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, ana, nil)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "", ana.Password)
	require.Error(t, err)
	assert.Equal(t, 401, apperror.Status(err))
	assert.Equal(t, "Invalid credentials, could not log you in.", apperror.Message(err))
}

func TestListUsers_OmitsPasswordHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, ana, nil)
	require.NoError(t, err)

	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	data, err := json.Marshal(users)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "argon2id")
	assert.NotContains(t, string(data), "password")
}

func TestListUsers_RepeatedCallsMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, ana, nil)
	require.NoError(t, err)
	_, err = f.svc.Signup(ctx, user.SignupInput{Name: "Bob", Email: "bob@x.com", Password: "secret2"}, pngImage())
	require.NoError(t, err)

	first, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	second, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)

	// callers cannot change what later calls see
	first[0].Name = "Changed"
	first[0].PlaceIDs = append(first[0].PlaceIDs, first[1].ID)
	third, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func TestListUsers_StoreFault(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("users.find", errors.New("db down"))

	_, err := f.svc.ListUsers(context.Background())
	require.Error(t, err)
	assert.Equal(t, 500, apperror.Status(err))
}
