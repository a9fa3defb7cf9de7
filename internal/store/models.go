package store

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// User is an account. PlaceIDs mirrors the creator of every place the user
// owns and is only changed by place create/delete.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // Never expose password hash in JSON
	Image        string      `json:"image"`
	PlaceIDs     []uuid.UUID `json:"places"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// AddPlace records id as owned by u. Adding an id twice is a no-op.
func (u *User) AddPlace(id uuid.UUID) {
	if !slices.Contains(u.PlaceIDs, id) {
		u.PlaceIDs = append(u.PlaceIDs, id)
	}
}

// RemovePlace drops id from the places owned by u.
func (u *User) RemovePlace(id uuid.UUID) {
	u.PlaceIDs = slices.DeleteFunc(u.PlaceIDs, func(p uuid.UUID) bool { return p == id })
}

// Location is a geographic coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a user-created point of interest.
type Place struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Location    Location  `json:"location"`
	Image       string    `json:"image"`
	CreatorID   uuid.UUID `json:"creator"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Creator is only set by FindByIDWithCreator.
	Creator *User `json:"-"`
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	c.PlaceIDs = slices.Clone(u.PlaceIDs)
	return &c
}

// Clone returns a deep copy of p without the populated creator.
func (p *Place) Clone() *Place {
	c := *p
	c.Creator = nil
	return &c
}
