package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/places-api/internal/auth"
	"github.com/redmonkez12/places-api/internal/config"
	"github.com/redmonkez12/places-api/internal/logging"
	"github.com/redmonkez12/places-api/internal/metrics"
	"github.com/redmonkez12/places-api/internal/place"
	"github.com/redmonkez12/places-api/internal/store"
	"github.com/redmonkez12/places-api/internal/store/memstore"
	"github.com/redmonkez12/places-api/internal/upload"
	"github.com/redmonkez12/places-api/internal/user"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type testApp struct {
	router   *chi.Mux
	store    *memstore.Store
	places   *place.Service
	imageDir string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	imageDir := filepath.Join(t.TempDir(), "images")
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "prod", APIPrefix: "/api", TrustedOrigins: []string{"*"}},
		Uploads: config.UploadConfig{
			Driver:           config.UploadDriverLocal,
			Dir:              imageDir,
			MaxBytes:         500 * 1024,
			DefaultUserImage: "uploads/images/default-user.png",
		},
		Places: config.PlacesConfig{EmptyUserPlacesNotFound: true},
	}

	logger := logging.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	tokens, err := auth.NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	images, err := upload.NewLocalStore(imageDir)
	require.NoError(t, err)

	st := memstore.New()
	m := metrics.New()
	creds := auth.NewCredentials(auth.NewArgon2idHasher(1, 1024, 1), tokens, time.Hour)
	geocoder := place.StaticGeocoder{Location: store.Location{Lat: 48.8584, Lng: 2.2945}}

	placeService := place.NewService(st, images, nil, geocoder, m, logger, cfg.Places)
	t.Cleanup(placeService.Close)
	userService := user.NewService(st, creds, images, m, logger, cfg.Uploads.DefaultUserImage)

	router := NewRouter(cfg, Handlers{
		Places: place.NewHandler(placeService, cfg.Uploads.MaxBytes),
		Users:  user.NewHandler(userService, cfg.Uploads.MaxBytes),
		Auth:   auth.NewMiddleware(tokens),
	}, m, logger)

	return &testApp{router: router, store: st, places: placeService, imageDir: imageDir}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func jsonRequest(method, target, body, token string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type authBody struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type placeBody struct {
	Place struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Image   string `json:"image"`
		Creator string `json:"creator"`
	} `json:"place"`
}

func (a *testApp) signup(t *testing.T, name, email string) authBody {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{"name": name, "email": email, "password": "secret1"}, pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", body)
	req.Header.Set("Content-Type", contentType)

	rec := a.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](t, rec)
}

func (a *testApp) createPlace(t *testing.T, creator, description string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"title":       "Eiffel Tower",
		"description": description,
		"address":     "Champ de Mars, Paris",
		"creator":     creator,
	}, pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/places", body)
	req.Header.Set("Content-Type", contentType)
	return a.do(req)
}

func TestSignupAndLogin(t *testing.T) {
	app := newTestApp(t)

	signup := app.signup(t, "Ana", "Ana@X.com")
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "ana@x.com", signup.Email)

	rec := app.do(jsonRequest(http.MethodPost, "/api/users/login", `{"email":"ana@x.com","password":"secret1"}`, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[authBody](t, rec)
	assert.Equal(t, signup.UserID, login.UserID)
	assert.NotEmpty(t, login.Token)

	for _, password := range []string{"wrong", "wrong-password", ""} {
		rec = app.do(jsonRequest(http.MethodPost, "/api/users/login", `{"email":"ana@x.com","password":"`+password+`"}`, ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, password)
		assert.Equal(t, "Invalid credentials, could not log you in.", decode[map[string]any](t, rec)["message"])
	}

	for _, email := range []string{"nobody@x.com", "not-an-email", ""} {
		rec = app.do(jsonRequest(http.MethodPost, "/api/users/login", `{"email":"`+email+`","password":"wrong"}`, ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, email)
		assert.Equal(t, "Invalid credentials, could not log you in.", decode[map[string]any](t, rec)["message"])
	}

	rec = app.do(jsonRequest(http.MethodPost, "/api/users/login", `{"email":"  ANA@x.com ","password":"secret1"}`, ""))
	assert.Equal(t, http.StatusOK, rec.Code, "login email is normalized")

	body, contentType := multipartBody(t, map[string]string{"name": "Ana", "email": "ana@x.com", "password": "secret1"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", body)
	req.Header.Set("Content-Type", contentType)
	rec = app.do(req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), "ana@x.com")
}

func TestCreateAndListByUser(t *testing.T) {
	app := newTestApp(t)
	ana := app.signup(t, "Ana", "ana@x.com")

	rec := app.createPlace(t, ana.UserID, "A landmark tower")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[placeBody](t, rec)
	assert.Equal(t, ana.UserID, created.Place.Creator)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/api/places/user/"+ana.UserID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.Place.ID)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/api/places/"+created.Place.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Eiffel Tower", decode[placeBody](t, rec).Place.Title)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/"+created.Place.Image, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.Bytes())
}

func TestCreatePlace_ShortDescriptionCreatesNothing(t *testing.T) {
	app := newTestApp(t)
	ana := app.signup(t, "Ana", "ana@x.com")

	rec := app.createPlace(t, ana.UserID, "four")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Invalid inputs passed, please check your data.", body["message"])

	places, err := app.store.Places().Find(context.Background(), store.PlaceFilter{})
	require.NoError(t, err)
	assert.Empty(t, places)

	users, err := app.store.Users().Find(context.Background(), store.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PlaceIDs)

	entries, err := os.ReadDir(app.imageDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the avatar was stored")
}

func TestCreatePlace_UnknownCreator(t *testing.T) {
	app := newTestApp(t)

	rec := app.createPlace(t, "0b6f6f7e-7c1d-4a57-9d61-4c0a2f8c6a10", "A landmark tower")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndDelete_Ownership(t *testing.T) {
	app := newTestApp(t)
	ana := app.signup(t, "Ana", "ana@x.com")
	bob := app.signup(t, "Bob", "bob@x.com")

	rec := app.createPlace(t, ana.UserID, "A landmark tower")
	require.Equal(t, http.StatusCreated, rec.Code)
	p := decode[placeBody](t, rec).Place
	target := "/api/places/" + p.ID

	rec = app.do(jsonRequest(http.MethodPatch, target, `{"title":"Mine now","description":"Stolen tower"}`, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "no token")

	rec = app.do(jsonRequest(http.MethodPatch, target, `{"title":"Mine now","description":"Stolen tower"}`, bob.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(jsonRequest(http.MethodDelete, target, "", bob.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code, "place survives a foreign delete")

	rec = app.do(jsonRequest(http.MethodPatch, target, `{"title":"Tour Eiffel","description":"Iron lattice tower"}`, ana.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Tour Eiffel", decode[placeBody](t, rec).Place.Title)

	rec = app.do(jsonRequest(http.MethodDelete, target, "", ana.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted place.", decode[map[string]any](t, rec)["message"])

	rec = app.do(httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	app.places.Close()
	_, err := os.Stat(filepath.Join(app.imageDir, filepath.Base(p.Image)))
	assert.True(t, os.IsNotExist(err), "place image is removed")
}

func TestUpdatePlace_NonCreatorUnauthorizedBeforeValidation(t *testing.T) {
	app := newTestApp(t)
	ana := app.signup(t, "Ana", "ana@x.com")
	bob := app.signup(t, "Bob", "bob@x.com")

	rec := app.createPlace(t, ana.UserID, "A landmark tower")
	require.Equal(t, http.StatusCreated, rec.Code)
	target := "/api/places/" + decode[placeBody](t, rec).Place.ID

	rec = app.do(jsonRequest(http.MethodPatch, target, `{"title":"","description":"abc"}`, bob.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "You are not allowed to edit this place.", decode[map[string]any](t, rec)["message"])

	rec = app.do(jsonRequest(http.MethodPatch, target, `{"title":"","description":"abc"}`, ana.Token))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "the creator still goes through validation")

	rec = app.do(jsonRequest(http.MethodPatch, "/api/places/0b6f6f7e-7c1d-4a57-9d61-4c0a2f8c6a10", `{"title":"","description":"abc"}`, bob.Token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePlace_RejectsNonFiniteCoordinates(t *testing.T) {
	app := newTestApp(t)
	ana := app.signup(t, "Ana", "ana@x.com")

	for _, coords := range [][2]string{{"NaN", "Inf"}, {"91", "2.29"}, {"48.85", "-181"}} {
		body, contentType := multipartBody(t, map[string]string{
			"title":       "Eiffel Tower",
			"description": "A landmark tower",
			"address":     "Champ de Mars, Paris",
			"creator":     ana.UserID,
			"lat":         coords[0],
			"lng":         coords[1],
		}, pngBytes)
		req := httptest.NewRequest(http.MethodPost, "/api/places", body)
		req.Header.Set("Content-Type", contentType)

		rec := app.do(req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, coords)
	}

	rec := app.do(httptest.NewRequest(http.MethodGet, "/api/places", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[struct {
		Places []json.RawMessage `json:"places"`
	}](t, rec)
	assert.Empty(t, listed.Places)
}

func TestGetPlacesByUser_NoPlaces(t *testing.T) {
	app := newTestApp(t)
	ana := app.signup(t, "Ana", "ana@x.com")

	rec := app.do(httptest.NewRequest(http.MethodGet, "/api/places/user/"+ana.UserID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/nothing", nil),
		httptest.NewRequest(http.MethodPut, "/api/places", nil),
	} {
		rec := app.do(req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Could not find this route.", decode[map[string]any](t, rec)["message"])
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map write")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"An unknown error occurred!"}`, rec.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/images/a.png", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "cross-origin", rec.Header().Get("Cross-Origin-Resource-Policy"))
}
