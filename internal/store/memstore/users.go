package memstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/redmonkez12/places-api/internal/store"
)

type userRepository struct {
	view *view
}

func matchUser(u *store.User, filter store.UserFilter) bool {
	if filter.Email != "" && u.Email != filter.Email {
		return false
	}
	if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, u.ID) {
		return false
	}
	return true
}

func emailTaken(d *data, email string, except uuid.UUID) bool {
	for _, u := range d.users {
		if u.ID != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	if err := r.view.s.fault("users.find_by_id"); err != nil {
		return nil, err
	}

	var found *store.User
	err := r.view.read(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return store.ErrNotFound
		}
		found = u.Clone()
		return nil
	})
	return found, err
}

func (r *userRepository) FindOne(ctx context.Context, filter store.UserFilter) (*store.User, error) {
	if err := r.view.s.fault("users.find_one"); err != nil {
		return nil, err
	}

	users, err := r.find(filter)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, store.ErrNotFound
	}
	return users[0], nil
}

func (r *userRepository) Find(ctx context.Context, filter store.UserFilter) ([]*store.User, error) {
	if err := r.view.s.fault("users.find"); err != nil {
		return nil, err
	}
	return r.find(filter)
}

func (r *userRepository) find(filter store.UserFilter) ([]*store.User, error) {
	users := []*store.User{}
	err := r.view.read(func(d *data) error {
		for _, u := range d.users {
			if matchUser(u, filter) {
				users = append(users, u.Clone())
			}
		}
		return nil
	})
	sortUsers(users)
	return users, err
}

func (r *userRepository) Create(ctx context.Context, u *store.User) error {
	if err := r.view.s.fault("users.create"); err != nil {
		return err
	}

	return r.view.write(func(d *data) error {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		if _, ok := d.users[u.ID]; ok {
			return fmt.Errorf("memstore: user %s already exists", u.ID)
		}
		if emailTaken(d, u.Email, u.ID) {
			return store.ErrDuplicateEmail
		}

		now := r.view.s.now()
		u.CreatedAt, u.UpdatedAt = now, now
		if u.PlaceIDs == nil {
			u.PlaceIDs = []uuid.UUID{}
		}
		d.users[u.ID] = u.Clone()
		return nil
	})
}

func (r *userRepository) Save(ctx context.Context, u *store.User) error {
	if err := r.view.s.fault("users.save"); err != nil {
		return err
	}

	return r.view.write(func(d *data) error {
		if _, ok := d.users[u.ID]; !ok {
			return store.ErrNotFound
		}
		if emailTaken(d, u.Email, u.ID) {
			return store.ErrDuplicateEmail
		}

		u.UpdatedAt = r.view.s.now()
		d.users[u.ID] = u.Clone()
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.view.s.fault("users.delete"); err != nil {
		return err
	}

	return r.view.write(func(d *data) error {
		if _, ok := d.users[id]; !ok {
			return store.ErrNotFound
		}
		for _, p := range d.places {
			if p.CreatorID == id {
				return fmt.Errorf("memstore: user %s still owns place %s", id, p.ID)
			}
		}
		delete(d.users, id)
		return nil
	})
}

func (r *userRepository) Exists(ctx context.Context, filter store.UserFilter) (bool, error) {
	if err := r.view.s.fault("users.exists"); err != nil {
		return false, err
	}

	users, err := r.find(filter)
	return len(users) > 0, err
}
