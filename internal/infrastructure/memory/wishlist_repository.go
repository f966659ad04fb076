package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/wishlist"
)

type WishlistRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Item
}

var _ domain.Repository = (*WishlistRepository)(nil)

func NewWishlistRepository() *WishlistRepository {
	return &WishlistRepository{items: make(map[string]domain.Item)}
}

func (r *WishlistRepository) Insert(ctx context.Context, item *domain.Item) error {
	_ = ctx
	if item == nil || item.ID == "" {
		return fmt.Errorf("wishlist repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = *item
	return nil
}

func (r *WishlistRepository) ListByOwner(ctx context.Context, email string) ([]*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Item, 0)
	for _, it := range r.items {
		if strings.EqualFold(it.UserEmail, email) {
			it := it
			out = append(out, &it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *WishlistRepository) Delete(ctx context.Context, id, owner string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok || !strings.EqualFold(it.UserEmail, owner) {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
