package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/places-api/internal/store"
)

type userRepository struct {
	db       bun.IDB
	lockRows bool
}

func (r *userRepository) selectUsers(filter store.UserFilter) *bun.SelectQuery {
	q := r.db.NewSelect().Model((*userModel)(nil))
	if filter.Email != "" {
		q = q.Where("u.email = ?", filter.Email)
	}
	if len(filter.IDs) > 0 {
		q = q.Where("u.id IN (?)", bun.In(filter.IDs))
	}
	return q
}

// FindByID retrieves a user by ID
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	m := new(userModel)
	q := r.db.NewSelect().Model(m).Where("u.id = ?", id)
	if r.lockRows {
		q = q.For("UPDATE")
	}

	if err := q.Scan(ctx); err != nil {
		if notFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(m)
}

func (r *userRepository) FindOne(ctx context.Context, filter store.UserFilter) (*store.User, error) {
	m := new(userModel)
	err := r.selectUsers(filter).
		Model(m).
		OrderExpr("u.created_at ASC, u.id ASC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if notFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return mapDBUserToModel(m)
}

func (r *userRepository) Find(ctx context.Context, filter store.UserFilter) ([]*store.User, error) {
	var models []userModel
	err := r.selectUsers(filter).
		Model(&models).
		OrderExpr("u.created_at ASC, u.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*store.User, 0, len(models))
	for i := range models {
		u, err := mapDBUserToModel(&models[i])
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *store.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	m := toUserModel(u)
	_, err := r.db.NewInsert().
		Model(m).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if u.PlaceIDs == nil {
		u.PlaceIDs = make([]uuid.UUID, 0)
	}
	u.CreatedAt, u.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *userRepository) Save(ctx context.Context, u *store.User) error {
	m := toUserModel(u)
	m.UpdatedAt = time.Now()

	res, err := r.db.NewUpdate().
		Model(m).
		Column("name", "email", "password_hash", "image", "place_ids", "updated_at").
		WherePK().
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if err := affectedOne(res); err != nil {
		return err
	}

	u.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*userModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return affectedOne(res)
}

func (r *userRepository) Exists(ctx context.Context, filter store.UserFilter) (bool, error) {
	exists, err := r.selectUsers(filter).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
