package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/sellerrequest"
)

type SellerRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]domain.Request
}

var _ domain.Repository = (*SellerRequestRepository)(nil)

func NewSellerRequestRepository() *SellerRequestRepository {
	return &SellerRequestRepository{requests: make(map[string]domain.Request)}
}

func (r *SellerRequestRepository) Insert(ctx context.Context, req *domain.Request) error {
	_ = ctx
	key := account.NormalizeEmail(req.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[key]; exists {
		return domain.ErrConflict
	}
	r.requests[key] = *req
	return nil
}

func (r *SellerRequestRepository) List(ctx context.Context) ([]*domain.Request, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Request, 0, len(r.requests))
	for _, req := range r.requests {
		req := req
		out = append(out, &req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *SellerRequestRepository) Delete(ctx context.Context, email string) error {
	_ = ctx
	key := account.NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.requests, key)
	return nil
}
