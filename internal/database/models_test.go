package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/places-api/internal/store"
)

func TestUserModel_RoundTrip(t *testing.T) {
	u := &store.User{
		ID:           uuid.New(),
		Name:         "Ana",
		Email:        "ana@x.com",
		PasswordHash: "$argon2id$...",
		Image:        "uploads/images/ana.png",
		PlaceIDs:     []uuid.UUID{uuid.New(), uuid.New()},
		CreatedAt:    time.Now().Add(-time.Hour),
		UpdatedAt:    time.Now(),
	}

	m := toUserModel(u)
	assert.Len(t, m.PlaceIDs, 2)
	assert.Equal(t, u.PlaceIDs[0].String(), m.PlaceIDs[0])

	back, err := mapDBUserToModel(m)
	require.NoError(t, err)
	assert.Equal(t, u, back)
}

func TestUserModel_RejectsCorruptPlaceID(t *testing.T) {
	_, err := mapDBUserToModel(&userModel{ID: uuid.New(), PlaceIDs: []string{"not-a-uuid"}})
	assert.Error(t, err)
}

func TestPlaceModel_RoundTripWithCreator(t *testing.T) {
	creatorID := uuid.New()
	m := &placeModel{
		ID:          uuid.New(),
		Title:       "Eiffel Tower",
		Description: "A landmark tower",
		Address:     "Champ de Mars, Paris",
		Lat:         48.8584,
		Lng:         2.2945,
		CreatorID:   creatorID,
		Creator:     &userModel{ID: creatorID, Email: "ana@x.com"},
	}

	p, err := mapDBPlaceToModel(m)
	require.NoError(t, err)
	assert.Equal(t, store.Location{Lat: 48.8584, Lng: 2.2945}, p.Location)
	require.NotNil(t, p.Creator)
	assert.Equal(t, "ana@x.com", p.Creator.Email)

	back := toPlaceModel(p)
	assert.Equal(t, m.Lat, back.Lat)
	assert.Nil(t, back.Creator)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}

	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("duplicate key value violates unique constraint")))
}
