package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
)

type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

var _ domain.Repository = (*AccountRepository)(nil)

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]*domain.Account)}
}

func (r *AccountRepository) Get(ctx context.Context, email string) (*domain.Account, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *AccountRepository) Insert(ctx context.Context, a *domain.Account) error {
	_ = ctx
	key := domain.NormalizeEmail(a.Email)
	if key == "" {
		return domain.ErrEmailRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[key]; exists {
		return domain.ErrConflict
	}
	r.accounts[key] = a.Clone()
	return nil
}

func (r *AccountRepository) TouchLogin(ctx context.Context, email string, at time.Time) error {
	return r.mutate(ctx, email, func(a *domain.Account) { a.LastLoginAt = at })
}

func (r *AccountRepository) SetRole(ctx context.Context, email string, role domain.Role) error {
	return r.mutate(ctx, email, func(a *domain.Account) { a.Role = role })
}

func (r *AccountRepository) mutate(ctx context.Context, email string, fn func(*domain.Account)) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.NormalizeEmail(email)
	a, ok := r.accounts[key]
	if !ok {
		return domain.ErrNotFound
	}
	next := a.Clone()
	fn(next)
	r.accounts[key] = next
	return nil
}

func (r *AccountRepository) List(ctx context.Context, exclude string) ([]*domain.Account, error) {
	_ = ctx
	skip := domain.NormalizeEmail(exclude)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Account, 0, len(r.accounts))
	for key, a := range r.accounts {
		if key == skip {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts), nil
}
