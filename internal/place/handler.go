package place

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/auth"
	"github.com/redmonkez12/places-api/internal/httputil"
	"github.com/redmonkez12/places-api/internal/logging"
	"github.com/redmonkez12/places-api/internal/store"
	"github.com/redmonkez12/places-api/internal/upload"
	"github.com/redmonkez12/places-api/internal/validate"
)

// Handler contains HTTP handlers for place endpoints
type Handler struct {
	service       *Service
	maxImageBytes int64
}

func NewHandler(service *Service, maxImageBytes int64) *Handler {
	return &Handler{service: service, maxImageBytes: maxImageBytes}
}

// PlaceResponse wraps a single place
type PlaceResponse struct {
	Place *store.Place `json:"place"`
}

// PlacesResponse wraps a list of places
type PlacesResponse struct {
	Places []*store.Place `json:"places"`
}

// Validation rules of the place routes.
var (
	CreateSchema = validate.Schema{
		validate.F("title", validate.NotEmpty()),
		validate.F("description", validate.MinLength(5)),
		validate.F("address", validate.NotEmpty()),
		validate.F("creator", validate.IsUUID()),
		validate.F("lat", validate.Optional(validate.IsNumber(), validate.InRange(-90, 90))),
		validate.F("lng", validate.Optional(validate.IsNumber(), validate.InRange(-180, 180))),
	}

	UpdateSchema = validate.Schema{
		validate.F("title", validate.NotEmpty()),
		validate.F("description", validate.MinLength(5)),
	}
)

// ListPlaces returns every place
// @Summary      List places
// @Tags         places
// @Produce      json
// @Success      200 {object} PlacesResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /places [get]
func (h *Handler) ListPlaces(w http.ResponseWriter, r *http.Request) error {
	places, err := h.service.ListPlaces(r.Context())
	if err != nil {
		return err
	}

	httputil.RespondJSON(w, PlacesResponse{Places: places}, http.StatusOK)
	return nil
}

// GetPlace returns a place by id
// @Summary      Get a place
// @Tags         places
// @Produce      json
// @Param        pid path string true "Place ID"
// @Success      200 {object} PlaceResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /places/{pid} [get]
func (h *Handler) GetPlace(w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		return apperror.NotFound("Could not find place for the provided id.")
	}

	p, err := h.service.GetPlace(r.Context(), id)
	if err != nil {
		return err
	}

	httputil.RespondJSON(w, PlaceResponse{Place: p}, http.StatusOK)
	return nil
}

// GetPlacesByUser returns the places created by a user
// @Summary      List the places of a user
// @Tags         places
// @Produce      json
// @Param        uid path string true "User ID"
// @Success      200 {object} PlacesResponse
// @Failure      404 {object} httputil.ErrorResponse "User has no places"
// @Router       /places/user/{uid} [get]
func (h *Handler) GetPlacesByUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := uuid.Parse(chi.URLParam(r, "uid"))
	if err != nil {
		return apperror.NotFound("Could not find places for the provided user id.")
	}

	places, err := h.service.GetPlacesByUser(r.Context(), userID)
	if err != nil {
		return err
	}

	httputil.RespondJSON(w, PlacesResponse{Places: places}, http.StatusOK)
	return nil
}

// CreatePlace handles place creation
// @Summary      Create a place
// @Tags         places
// @Accept       mpfd
// @Produce      json
// @Param        title       formData string true  "Title"
// @Param        description formData string true  "Description (min 5 characters)"
// @Param        address     formData string true  "Address"
// @Param        creator     formData string true  "Creator user ID"
// @Param        lat         formData number false "Latitude"
// @Param        lng         formData number false "Longitude"
// @Param        image       formData file   true  "PNG or JPEG image"
// @Success      201 {object} PlaceResponse
// @Failure      404 {object} httputil.ErrorResponse "Creator not found"
// @Failure      422 {object} httputil.ErrorResponse "Invalid inputs"
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /places [post]
func (h *Handler) CreatePlace(w http.ResponseWriter, r *http.Request) error {
	values := validate.ValuesFrom(r.Context())
	creatorID, err := uuid.Parse(values.Get("creator"))
	if err != nil {
		return apperror.Validation(map[string][]string{"creator": {"must be a valid id"}})
	}

	img, err := upload.ReadImage(r, "image", h.maxImageBytes)
	if err != nil {
		if errors.Is(err, upload.ErrNoImage) {
			return apperror.Validation(map[string][]string{"image": {"is required"}})
		}
		return err
	}

	in := CreateInput{
		Title:       values.Get("title"),
		Description: values.Get("description"),
		Address:     values.Get("address"),
		CreatorID:   creatorID,
		Location:    locationFrom(values),
	}

	p, err := h.service.CreatePlace(r.Context(), in, img)
	if err != nil {
		return err
	}

	logging.GetLoggerFromContext(r.Context()).Info("place created", "place_id", p.ID, "creator_id", p.CreatorID)
	httputil.RespondJSON(w, PlaceResponse{Place: p}, http.StatusCreated)
	return nil
}

// UpdatePlace handles title and description changes
// @Summary      Update a place
// @Tags         places
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        pid     path string true "Place ID"
// @Param        request body object{title=string,description=string} true "New title and description"
// @Success      200 {object} PlaceResponse
// @Failure      401 {object} httputil.ErrorResponse "Not the creator"
// @Failure      404 {object} httputil.ErrorResponse
// @Failure      422 {object} httputil.ErrorResponse "Invalid inputs"
// @Router       /places/{pid} [patch]
func (h *Handler) UpdatePlace(w http.ResponseWriter, r *http.Request) error {
	requesterID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		return apperror.Unauthorized("Authentication failed!")
	}

	id, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		return apperror.NotFound("Could not find place for the provided id.")
	}

	values := validate.ValuesFrom(r.Context())
	p, err := h.service.UpdatePlace(r.Context(), id, values.Get("title"), values.Get("description"), requesterID)
	if err != nil {
		return err
	}

	httputil.RespondJSON(w, PlaceResponse{Place: p}, http.StatusOK)
	return nil
}

// RequireCreator rejects edits by anyone but the creator of the place in the
// "pid" URL parameter. It runs before body validation.
func (h *Handler) RequireCreator(next http.Handler) http.Handler {
	return httputil.Handle(func(w http.ResponseWriter, r *http.Request) error {
		requesterID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			return apperror.Unauthorized("Authentication failed!")
		}

		id, err := uuid.Parse(chi.URLParam(r, "pid"))
		if err != nil {
			return apperror.NotFound("Could not find place for the provided id.")
		}

		if err := h.service.AuthorizeEdit(r.Context(), id, requesterID); err != nil {
			return err
		}

		next.ServeHTTP(w, r)
		return nil
	})
}

// DeletePlace handles place deletion
// @Summary      Delete a place
// @Tags         places
// @Produce      json
// @Security     BearerAuth
// @Param        pid path string true "Place ID"
// @Success      200 {object} httputil.MessageResponse
// @Failure      401 {object} httputil.ErrorResponse "Not the creator"
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /places/{pid} [delete]
func (h *Handler) DeletePlace(w http.ResponseWriter, r *http.Request) error {
	requesterID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		return apperror.Unauthorized("Authentication failed!")
	}

	id, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		return apperror.NotFound("Could not find place for this id.")
	}

	if err := h.service.DeletePlace(r.Context(), id, requesterID); err != nil {
		return err
	}

	httputil.RespondMessage(w, "Deleted place.", http.StatusOK)
	return nil
}

// locationFrom returns the coordinates sent with the form, or nil when they
// are incomplete.
func locationFrom(values validate.Values) *store.Location {
	if !values.Has("lat") || !values.Has("lng") {
		return nil
	}
	lat, latErr := strconv.ParseFloat(values.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(values.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		return nil
	}
	return &store.Location{Lat: lat, Lng: lng}
}
