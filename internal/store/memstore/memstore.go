// Package memstore is an in-process store.Store used for local development
// and tests.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/places-api/internal/store"
)

type data struct {
	users  map[uuid.UUID]*store.User
	places map[uuid.UUID]*store.Place
}

func newData() *data {
	return &data{
		users:  map[uuid.UUID]*store.User{},
		places: map[uuid.UUID]*store.Place{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for id, u := range d.users {
		c.users[id] = u.Clone()
	}
	for id, p := range d.places {
		c.places[id] = p.Clone()
	}
	return c
}

// Store keeps every record in memory. Writers are serialized; a transaction
// works on a private copy that replaces the shared state on commit.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	data    *data

	faultMu sync.Mutex
	faults  map[string]error

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		data:   newData(),
		faults: map[string]error{},
		now:    time.Now,
	}
}

// FailOn makes every later call of op return err. Ops are named
// "<users|places>.<method>", e.g. "users.save" or "places.delete".
func (s *Store) FailOn(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

// ClearFaults removes every injected failure.
func (s *Store) ClearFaults() {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	clear(s.faults)
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if err, ok := s.faults[op]; ok {
		return fmt.Errorf("memstore: %s: %w", op, err)
	}
	return nil
}

func (s *Store) Users() store.UserRepository {
	return &userRepository{view: &view{s: s}}
}

func (s *Store) Places() store.PlaceRepository {
	return &placeRepository{view: &view{s: s}}
}

// RunInTx runs fn against a snapshot and publishes it only when fn succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := fn(ctx, &txStore{view: &view{s: s, tx: snapshot}}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
	return nil
}

// txStore is the Store handed to a transaction callback.
type txStore struct {
	view *view
}

func (t *txStore) Users() store.UserRepository   { return &userRepository{view: t.view} }
func (t *txStore) Places() store.PlaceRepository { return &placeRepository{view: t.view} }

// RunInTx joins the enclosing transaction.
func (t *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}

// view routes reads and writes either to the shared state or to a
// transaction snapshot.
type view struct {
	s  *Store
	tx *data
}

func (v *view) read(fn func(d *data) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return fn(v.s.data)
}

func (v *view) write(fn func(d *data) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.writeMu.Lock()
	defer v.s.writeMu.Unlock()
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

func sortUsers(users []*store.User) {
	slices.SortStableFunc(users, func(a, b *store.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}

func sortPlaces(places []*store.Place) {
	slices.SortStableFunc(places, func(a, b *store.Place) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}
