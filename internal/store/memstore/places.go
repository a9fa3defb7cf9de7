package memstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/redmonkez12/places-api/internal/store"
)

type placeRepository struct {
	view *view
}

func matchPlace(p *store.Place, filter store.PlaceFilter) bool {
	return filter.CreatorID == nil || p.CreatorID == *filter.CreatorID
}

func (r *placeRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Place, error) {
	if err := r.view.s.fault("places.find_by_id"); err != nil {
		return nil, err
	}

	var found *store.Place
	err := r.view.read(func(d *data) error {
		p, ok := d.places[id]
		if !ok {
			return store.ErrNotFound
		}
		found = p.Clone()
		return nil
	})
	return found, err
}

func (r *placeRepository) FindByIDWithCreator(ctx context.Context, id uuid.UUID) (*store.Place, error) {
	if err := r.view.s.fault("places.find_by_id_with_creator"); err != nil {
		return nil, err
	}

	var found *store.Place
	err := r.view.read(func(d *data) error {
		p, ok := d.places[id]
		if !ok {
			return store.ErrNotFound
		}
		found = p.Clone()
		if creator, ok := d.users[p.CreatorID]; ok {
			found.Creator = creator.Clone()
		}
		return nil
	})
	return found, err
}

func (r *placeRepository) FindOne(ctx context.Context, filter store.PlaceFilter) (*store.Place, error) {
	if err := r.view.s.fault("places.find_one"); err != nil {
		return nil, err
	}

	places, err := r.find(filter)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, store.ErrNotFound
	}
	return places[0], nil
}

func (r *placeRepository) Find(ctx context.Context, filter store.PlaceFilter) ([]*store.Place, error) {
	if err := r.view.s.fault("places.find"); err != nil {
		return nil, err
	}
	return r.find(filter)
}

func (r *placeRepository) find(filter store.PlaceFilter) ([]*store.Place, error) {
	places := []*store.Place{}
	err := r.view.read(func(d *data) error {
		for _, p := range d.places {
			if matchPlace(p, filter) {
				places = append(places, p.Clone())
			}
		}
		return nil
	})
	sortPlaces(places)
	return places, err
}

func (r *placeRepository) Create(ctx context.Context, p *store.Place) error {
	if err := r.view.s.fault("places.create"); err != nil {
		return err
	}

	return r.view.write(func(d *data) error {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if _, ok := d.places[p.ID]; ok {
			return fmt.Errorf("memstore: place %s already exists", p.ID)
		}
		if _, ok := d.users[p.CreatorID]; !ok {
			return fmt.Errorf("memstore: creator %s does not exist", p.CreatorID)
		}

		now := r.view.s.now()
		p.CreatedAt, p.UpdatedAt = now, now
		d.places[p.ID] = p.Clone()
		return nil
	})
}

func (r *placeRepository) Save(ctx context.Context, p *store.Place) error {
	if err := r.view.s.fault("places.save"); err != nil {
		return err
	}

	return r.view.write(func(d *data) error {
		existing, ok := d.places[p.ID]
		if !ok {
			return store.ErrNotFound
		}
		if existing.CreatorID != p.CreatorID {
			return fmt.Errorf("memstore: creator of place %s cannot change", p.ID)
		}

		p.UpdatedAt = r.view.s.now()
		d.places[p.ID] = p.Clone()
		return nil
	})
}

func (r *placeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.view.s.fault("places.delete"); err != nil {
		return err
	}

	return r.view.write(func(d *data) error {
		if _, ok := d.places[id]; !ok {
			return store.ErrNotFound
		}
		delete(d.places, id)
		return nil
	})
}

func (r *placeRepository) Exists(ctx context.Context, filter store.PlaceFilter) (bool, error) {
	if err := r.view.s.fault("places.exists"); err != nil {
		return false, err
	}

	places, err := r.find(filter)
	return len(places) > 0, err
}
