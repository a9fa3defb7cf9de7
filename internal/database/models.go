package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/places-api/internal/store"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Image        string    `bun:"image,notnull"`
	PlaceIDs     []string  `bun:"place_ids,array,type:uuid[]"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type placeModel struct {
	bun.BaseModel `bun:"table:places,alias:p"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description,notnull"`
	Address     string    `bun:"address,notnull"`
	Lat         float64   `bun:"lat,notnull"`
	Lng         float64   `bun:"lng,notnull"`
	Image       string    `bun:"image,notnull"`
	CreatorID   uuid.UUID `bun:"creator_id,type:uuid,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	Creator *userModel `bun:"rel:belongs-to,join:creator_id=id"`
}

func toUserModel(u *store.User) *userModel {
	placeIDs := make([]string, 0, len(u.PlaceIDs))
	for _, id := range u.PlaceIDs {
		placeIDs = append(placeIDs, id.String())
	}

	return &userModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Image:        u.Image,
		PlaceIDs:     placeIDs,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(m *userModel) (*store.User, error) {
	placeIDs := make([]uuid.UUID, 0, len(m.PlaceIDs))
	for _, raw := range m.PlaceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		placeIDs = append(placeIDs, id)
	}

	return &store.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Image:        m.Image,
		PlaceIDs:     placeIDs,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func toPlaceModel(p *store.Place) *placeModel {
	return &placeModel{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Address:     p.Address,
		Lat:         p.Location.Lat,
		Lng:         p.Location.Lng,
		Image:       p.Image,
		CreatorID:   p.CreatorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func mapDBPlaceToModel(m *placeModel) (*store.Place, error) {
	p := &store.Place{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Address:     m.Address,
		Location:    store.Location{Lat: m.Lat, Lng: m.Lng},
		Image:       m.Image,
		CreatorID:   m.CreatorID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	if m.Creator != nil {
		creator, err := mapDBUserToModel(m.Creator)
		if err != nil {
			return nil, err
		}
		p.Creator = creator
	}
	return p, nil
}
