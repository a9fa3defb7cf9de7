package user

import (
	"errors"
	"net/http"

	"github.com/redmonkez12/places-api/internal/httputil"
	"github.com/redmonkez12/places-api/internal/logging"
	"github.com/redmonkez12/places-api/internal/store"
	"github.com/redmonkez12/places-api/internal/upload"
	"github.com/redmonkez12/places-api/internal/validate"
)

// Handler contains HTTP handlers for user endpoints
type Handler struct {
	service       *Service
	maxImageBytes int64
}

func NewHandler(service *Service, maxImageBytes int64) *Handler {
	return &Handler{service: service, maxImageBytes: maxImageBytes}
}

// UsersResponse wraps the user list
type UsersResponse struct {
	Users []*store.User `json:"users"`
}

// Validation rules of the user routes.
var (
	SignupSchema = validate.Schema{
		validate.F("name", validate.NotEmpty()),
		validate.F("email", validate.NormalizeEmail(), validate.IsEmail()),
		validate.F("password", validate.MinLength(6)),
	}

	// Login only normalizes: every wrong email or password answers the same
	// 401 from the credential check.
	LoginSchema = validate.Schema{
		validate.F("email", validate.NormalizeEmail()),
		validate.F("password"),
	}
)

// ListUsers returns every user without password hashes
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200 {object} UsersResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		return err
	}

	httputil.RespondJSON(w, UsersResponse{Users: users}, http.StatusOK)
	return nil
}

// Signup handles account creation
// @Summary      Sign up
// @Description  Create an account and receive a session token.
// @Tags         users
// @Accept       mpfd
// @Produce      json
// @Param        name     formData string true  "Name"
// @Param        email    formData string true  "Email"
// @Param        password formData string true  "Password (min 6 characters)"
// @Param        image    formData file   false "PNG or JPEG avatar"
// @Success      201 {object} AuthResult
// @Failure      422 {object} httputil.ErrorResponse "Invalid inputs or email taken"
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /users/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) error {
	values := validate.ValuesFrom(r.Context())

	img, err := upload.ReadImage(r, "image", h.maxImageBytes)
	if err != nil && !errors.Is(err, upload.ErrNoImage) {
		return err
	}

	result, err := h.service.Signup(r.Context(), SignupInput{
		Name:     values.Get("name"),
		Email:    values.Get("email"),
		Password: values.Get("password"),
	}, img)
	if err != nil {
		return err
	}

	logging.GetLoggerFromContext(r.Context()).Info("user signed up", "user_id", result.UserID)
	httputil.RespondJSON(w, result, http.StatusCreated)
	return nil
}

// Login handles credential checks
// @Summary      Log in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body object{email=string,password=string} true "Credentials"
// @Success      200 {object} AuthResult
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Router       /users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	values := validate.ValuesFrom(r.Context())

	result, err := h.service.Login(r.Context(), values.Get("email"), values.Get("password"))
	if err != nil {
		return err
	}

	httputil.RespondJSON(w, result, http.StatusOK)
	return nil
}
