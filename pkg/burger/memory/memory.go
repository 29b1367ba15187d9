// Package memory implements an in-memory burger repository.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"burgerapi/pkg/burger"
)

// Repository provides an in-memory implementation of burger.Repository.
type Repository struct {
	mu      sync.RWMutex
	nextID  int64
	burgers map[int64]burger.Burger
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{burgers: make(map[int64]burger.Burger)}
}

// ListAll returns all burgers ordered by ID.
func (r *Repository) ListAll(ctx context.Context) ([]burger.Burger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := lo.Values(r.burgers)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID retrieves a burger by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.burgers[id]
	if !ok {
		return mo.None[burger.Burger](), nil
	}
	return mo.Some(b), nil
}

// Insert stores the burger under a freshly assigned ID.
func (r *Repository) Insert(ctx context.Context, b burger.Burger) (burger.Burger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b.ID = r.nextID
	b.Version = 1
	r.burgers[b.ID] = b
	return b, nil
}

// Update replaces an existing burger.
func (r *Repository) Update(ctx context.Context, b burger.Burger) (burger.Burger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.burgers[b.ID]
	if !ok {
		return burger.Burger{}, burger.ErrNotFound
	}
	if b.Version != 0 && b.Version != cur.Version {
		return burger.Burger{}, burger.ErrConflict
	}
	b.Version = cur.Version + 1
	r.burgers[b.ID] = b
	return b, nil
}

// Delete removes a burger by ID and returns it.
func (r *Repository) Delete(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.burgers[id]
	if !ok {
		return mo.None[burger.Burger](), nil
	}
	delete(r.burgers, id)
	return mo.Some(b), nil
}
