package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
)

// OrderRepository keeps orders in a map. The mutex makes each conditional
// transition a single atomic step, mirroring a store-side conditional update.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

var _ domain.Repository = (*OrderRepository)(nil)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if f.Matches(o) {
			out = append(out, o.Clone())
		}
	}
	domain.SortNewest(out)
	return out, nil
}

func (r *OrderRepository) Count(ctx context.Context, f domain.Filter) (int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, o := range r.orders {
		if f.Matches(o) {
			n++
		}
	}
	return n, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id, customer, transactionID string, paidAt time.Time) (bool, error) {
	return r.transition(ctx, id, func(o *domain.Order) bool {
		return o.OwnedBy(customer) && o.ConfirmPayment(transactionID, paidAt) == nil
	})
}

func (r *OrderRepository) Cancel(ctx context.Context, id, customer string) (bool, error) {
	return r.transition(ctx, id, func(o *domain.Order) bool {
		return o.OwnedBy(customer) && o.Cancel() == nil
	})
}

func (r *OrderRepository) Relabel(ctx context.Context, id string, status domain.Status) (bool, error) {
	return r.transition(ctx, id, func(o *domain.Order) bool {
		return o.Relabel(status) == nil
	})
}

// transition applies fn to a copy of the stored order and keeps the copy only
// when fn reports success. A missing order is "not modified", not an error.
func (r *OrderRepository) transition(ctx context.Context, id string, fn func(*domain.Order) bool) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	next := current.Clone()
	if !fn(next) {
		return false, nil
	}
	r.orders[id] = next
	return true, nil
}
