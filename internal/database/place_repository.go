package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/places-api/internal/store"
)

type placeRepository struct {
	db bun.IDB
}

func (r *placeRepository) selectPlaces(filter store.PlaceFilter) *bun.SelectQuery {
	q := r.db.NewSelect().Model((*placeModel)(nil))
	if filter.CreatorID != nil {
		q = q.Where("p.creator_id = ?", *filter.CreatorID)
	}
	return q
}

func (r *placeRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Place, error) {
	m := new(placeModel)
	err := r.db.NewSelect().
		Model(m).
		Where("p.id = ?", id).
		Scan(ctx)

	if err != nil {
		if notFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get place by id: %w", err)
	}

	return mapDBPlaceToModel(m)
}

func (r *placeRepository) FindByIDWithCreator(ctx context.Context, id uuid.UUID) (*store.Place, error) {
	m := new(placeModel)
	err := r.db.NewSelect().
		Model(m).
		Relation("Creator").
		Where("p.id = ?", id).
		Scan(ctx)

	if err != nil {
		if notFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get place with creator: %w", err)
	}

	return mapDBPlaceToModel(m)
}

func (r *placeRepository) FindOne(ctx context.Context, filter store.PlaceFilter) (*store.Place, error) {
	m := new(placeModel)
	err := r.selectPlaces(filter).
		Model(m).
		OrderExpr("p.created_at ASC, p.id ASC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if notFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get place: %w", err)
	}

	return mapDBPlaceToModel(m)
}

func (r *placeRepository) Find(ctx context.Context, filter store.PlaceFilter) ([]*store.Place, error) {
	var models []placeModel
	err := r.selectPlaces(filter).
		Model(&models).
		OrderExpr("p.created_at ASC, p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}

	places := make([]*store.Place, 0, len(models))
	for i := range models {
		p, err := mapDBPlaceToModel(&models[i])
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, nil
}

func (r *placeRepository) Create(ctx context.Context, p *store.Place) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	m := toPlaceModel(p)
	_, err := r.db.NewInsert().
		Model(m).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to create place: %w", err)
	}

	p.CreatedAt, p.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

// Save persists the mutable fields of p. The creator is never rewritten.
func (r *placeRepository) Save(ctx context.Context, p *store.Place) error {
	m := toPlaceModel(p)
	m.UpdatedAt = time.Now()

	res, err := r.db.NewUpdate().
		Model(m).
		Column("title", "description", "address", "lat", "lng", "image", "updated_at").
		WherePK().
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}

	if err := affectedOne(res); err != nil {
		return err
	}

	p.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *placeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*placeModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}

	return affectedOne(res)
}

func (r *placeRepository) Exists(ctx context.Context, filter store.PlaceFilter) (bool, error) {
	exists, err := r.selectPlaces(filter).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check place existence: %w", err)
	}
	return exists, nil
}
