// Package store defines the persistence contract for users and places.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserFilter selects users. Zero fields match everything.
type UserFilter struct {
	Email string
	IDs   []uuid.UUID
}

// PlaceFilter selects places. A nil CreatorID matches every creator.
type PlaceFilter struct {
	CreatorID *uuid.UUID
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindOne(ctx context.Context, filter UserFilter) (*User, error)
	Find(ctx context.Context, filter UserFilter) ([]*User, error)
	Create(ctx context.Context, u *User) error
	Save(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, filter UserFilter) (bool, error)
}

type PlaceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Place, error)
	// FindByIDWithCreator loads the place with its Creator populated.
	FindByIDWithCreator(ctx context.Context, id uuid.UUID) (*Place, error)
	FindOne(ctx context.Context, filter PlaceFilter) (*Place, error)
	Find(ctx context.Context, filter PlaceFilter) ([]*Place, error)
	Create(ctx context.Context, p *Place) error
	Save(ctx context.Context, p *Place) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, filter PlaceFilter) (bool, error)
}

// Store gives access to the repositories. Writes made through the Store
// passed to fn in RunInTx become visible together when fn returns nil, and
// not at all otherwise. Users read through a transaction are locked until it
// ends.
type Store interface {
	Users() UserRepository
	Places() PlaceRepository
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
