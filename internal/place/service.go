// Package place implements the places domain: lookup, creation, update and
// deletion of places while keeping every creator's place list in sync.
package place

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/config"
	"github.com/redmonkez12/places-api/internal/logging"
	"github.com/redmonkez12/places-api/internal/metrics"
	"github.com/redmonkez12/places-api/internal/store"
	"github.com/redmonkez12/places-api/internal/upload"
)

const (
	imageCleanupRetries = 3
	imageCleanupBackoff = 100 * time.Millisecond
)

// CreateInput holds the fields of a new place. A nil Location is resolved
// from Address.
type CreateInput struct {
	Title       string
	Description string
	Address     string
	CreatorID   uuid.UUID
	Location    *store.Location
}

// Service handles place business logic
type Service struct {
	store    store.Store
	images   upload.Store
	cache    Cache
	geocoder Geocoder
	metrics  *metrics.Metrics
	logger   *logging.Logger

	emptyUserPlacesNotFound bool

	cleanups sync.WaitGroup
}

func NewService(
	st store.Store,
	images upload.Store,
	cache Cache,
	geocoder Geocoder,
	m *metrics.Metrics,
	logger *logging.Logger,
	cfg config.PlacesConfig,
) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		store:                   st,
		images:                  images,
		cache:                   cache,
		geocoder:                geocoder,
		metrics:                 m,
		logger:                  logger,
		emptyUserPlacesNotFound: cfg.EmptyUserPlacesNotFound,
	}
}

// GetPlace returns the place with the given id.
func (s *Service) GetPlace(ctx context.Context, id uuid.UUID) (*store.Place, error) {
	cached, err := s.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("place cache read failed", "place_id", id, "error", err.Error())
	}

	lease, err := s.cache.Lease(ctx, id)
	if err != nil {
		s.logger.Warn("place cache lease failed", "place_id", id, "error", err.Error())
	}

	p, err := s.store.Places().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("Could not find place for the provided id.")
		}
		return nil, apperror.Store("Something went wrong, could not find a place.", err)
	}

	if err := s.cache.Set(ctx, p, lease); err != nil {
		s.logger.Warn("place cache write failed", "place_id", id, "error", err.Error())
	}
	return p, nil
}

// GetPlacesByUser returns the places created by userID. With the default
// policy an empty result is reported as not found.
func (s *Service) GetPlacesByUser(ctx context.Context, userID uuid.UUID) ([]*store.Place, error) {
	places, err := s.store.Places().Find(ctx, store.PlaceFilter{CreatorID: &userID})
	if err != nil {
		return nil, apperror.Store("Fetching places failed, please try again later.", err)
	}

	if len(places) == 0 && s.emptyUserPlacesNotFound {
		return nil, apperror.NotFound("Could not find places for the provided user id.")
	}
	return places, nil
}

// ListPlaces returns every place.
func (s *Service) ListPlaces(ctx context.Context) ([]*store.Place, error) {
	places, err := s.store.Places().Find(ctx, store.PlaceFilter{})
	if err != nil {
		return nil, apperror.Store("Fetching places failed, please try again later.", err)
	}
	return places, nil
}

// CreatePlace stores img, inserts the place and appends it to the creator's
// places in one transaction. When anything fails after the image was stored,
// the image is removed again in the background.
func (s *Service) CreatePlace(ctx context.Context, in CreateInput, img *upload.Image) (*store.Place, error) {
	location, err := s.resolveLocation(ctx, in)
	if err != nil {
		return nil, err
	}

	imageRef, err := s.images.Save(ctx, img.Key(), img)
	if err != nil {
		return nil, apperror.Store("Creating place failed, please try again.", err)
	}

	p := &store.Place{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		Location:    location,
		Image:       imageRef,
		CreatorID:   in.CreatorID,
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		creator, err := tx.Users().FindByID(ctx, in.CreatorID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperror.NotFound("Could not find user for provided id.")
			}
			return err
		}

		if err := tx.Places().Create(ctx, p); err != nil {
			return err
		}

		creator.AddPlace(p.ID)
		return tx.Users().Save(ctx, creator)
	})
	if err != nil {
		s.removeImage(ctx, imageRef)
		return nil, apperror.Store("Creating place failed, please try again.", err)
	}

	s.metrics.PlaceWritten("create")
	return p, nil
}

func (s *Service) resolveLocation(ctx context.Context, in CreateInput) (store.Location, error) {
	if in.Location != nil {
		return *in.Location, nil
	}

	location, err := s.geocoder.Coordinates(ctx, in.Address)
	if err != nil {
		s.logger.Warn("geocoding failed", "address", in.Address, "error", err.Error())
		return store.Location{}, apperror.Validation(map[string][]string{
			"address": {"could not be resolved to a location"},
		})
	}
	return location, nil
}

// AuthorizeEdit reports whether requesterID may edit the place. UpdatePlace
// checks again when it writes.
func (s *Service) AuthorizeEdit(ctx context.Context, id, requesterID uuid.UUID) error {
	p, err := s.store.Places().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Could not find place for the provided id.")
		}
		return apperror.Store("Something went wrong, could not update place.", err)
	}

	if p.CreatorID != requesterID {
		return apperror.Unauthorized("You are not allowed to edit this place.")
	}
	return nil
}

// UpdatePlace changes the title and description of a place owned by
// requesterID.
func (s *Service) UpdatePlace(ctx context.Context, id uuid.UUID, title, description string, requesterID uuid.UUID) (*store.Place, error) {
	p, err := s.store.Places().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("Could not find place for the provided id.")
		}
		return nil, apperror.Store("Something went wrong, could not update place.", err)
	}

	if p.CreatorID != requesterID {
		return nil, apperror.Unauthorized("You are not allowed to edit this place.")
	}

	p.Title = title
	p.Description = description

	if err := s.store.Places().Save(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("Could not find place for the provided id.")
		}
		return nil, apperror.Store("Something went wrong, could not update place.", err)
	}

	s.evict(ctx, id)
	s.metrics.PlaceWritten("update")
	return p, nil
}

// DeletePlace removes a place owned by requesterID together with its entry
// in the creator's places. The stored image is removed in the background.
func (s *Service) DeletePlace(ctx context.Context, id uuid.UUID, requesterID uuid.UUID) error {
	p, err := s.store.Places().FindByIDWithCreator(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Could not find place for this id.")
		}
		return apperror.Store("Something went wrong, could not delete place.", err)
	}

	if p.Creator == nil {
		return apperror.Store("Something went wrong, could not delete place.", fmt.Errorf("creator %s of place %s is missing", p.CreatorID, p.ID))
	}
	if p.Creator.ID != requesterID {
		return apperror.Unauthorized("You are not allowed to delete this place.")
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		creator, err := tx.Users().FindByID(ctx, p.Creator.ID)
		if err != nil {
			return err
		}

		if err := tx.Places().Delete(ctx, p.ID); err != nil {
			return err
		}

		creator.RemovePlace(p.ID)
		return tx.Users().Save(ctx, creator)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Could not find place for this id.")
		}
		return apperror.Store("Something went wrong, could not delete place.", err)
	}

	s.evict(ctx, id)
	s.metrics.PlaceWritten("delete")
	s.removeImage(ctx, p.Image)
	return nil
}

// Close waits for scheduled image removals to finish.
func (s *Service) Close() {
	s.cleanups.Wait()
}

func (s *Service) evict(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("place cache eviction failed", "place_id", id, "error", err.Error())
	}
}

// removeImage deletes ref in the background, retrying with exponential
// backoff. The outcome is only logged and counted.
func (s *Service) removeImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}

	ctx = context.WithoutCancel(ctx)
	s.cleanups.Add(1)
	go func() {
		defer s.cleanups.Done()

		backoff := retry.WithMaxRetries(imageCleanupRetries, retry.NewExponential(imageCleanupBackoff))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := s.images.Delete(ctx, ref); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})

		s.metrics.ImageCleanup(err)
		if err != nil {
			s.logger.WithFields(map[string]any{"image": ref}).LogError("failed to remove place image", err)
		}
	}()
}
