package category

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

var _ CategoryRepo = (*MemoryCategoryRepo)(nil)

type MemoryCategoryRepo struct {
	mu    sync.Mutex
	items *cache.Cache
	now   func() time.Time
}

func NewMemoryCategoryRepo() *MemoryCategoryRepo {
	return &MemoryCategoryRepo{
		items: cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}
}

func (r *MemoryCategoryRepo) nameTaken(name string, except uuid.UUID) bool {
	for _, item := range r.items.Items() {
		c := item.Object.(types.Category)
		if c.ID != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r *MemoryCategoryRepo) CreateCategory(_ context.Context, name string) (*types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(name, uuid.Nil) {
		return nil, fmt.Errorf("%w: category already exists", types.ErrConflict)
	}
	now := r.now()
	c := types.Category{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	r.items.Set(c.ID.String(), c, cache.NoExpiration)
	return &c, nil
}

func (r *MemoryCategoryRepo) GetCategory(_ context.Context, id uuid.UUID) (*types.Category, error) {
	v, ok := r.items.Get(id.String())
	if !ok {
		return nil, fmt.Errorf("%w: category not found", types.ErrNotFound)
	}
	c := v.(types.Category)
	return &c, nil
}

func (r *MemoryCategoryRepo) RenameCategory(_ context.Context, id uuid.UUID, name string, now, cutoff time.Time) (*types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items.Get(id.String())
	if !ok {
		return nil, fmt.Errorf("%w: category not found", types.ErrNotFound)
	}
	c := v.(types.Category)
	if c.UpdatedAt.After(cutoff) {
		return nil, fmt.Errorf("%w: category renamed too recently", types.ErrCooldown)
	}
	if r.nameTaken(name, id) {
		return nil, fmt.Errorf("%w: category already exists", types.ErrConflict)
	}
	c.Name = name
	c.UpdatedAt = now
	r.items.Set(c.ID.String(), c, cache.NoExpiration)
	return &c, nil
}

func (r *MemoryCategoryRepo) ListCategories(_ context.Context) ([]types.Category, error) {
	items := r.items.Items()
	out := make([]types.Category, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(types.Category))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
