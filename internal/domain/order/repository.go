package order

import (
	"context"
	"sort"
	"strings"
	"time"
)

type Filter struct {
	Customer      string
	SellerEmail   string
	BookID        string
	Status        Status
	PaymentStatus PaymentStatus
	TransactionID string
}

// Matches applies f in memory. Stores without native predicates use it.
func (f Filter) Matches(o *Order) bool {
	if f.Customer != "" && !strings.EqualFold(o.Customer, f.Customer) {
		return false
	}
	if f.SellerEmail != "" && !strings.EqualFold(o.Seller.Email, f.SellerEmail) {
		return false
	}
	if f.BookID != "" && o.BookID != f.BookID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
		return false
	}
	if f.TransactionID != "" && o.TransactionID != f.TransactionID {
		return false
	}
	return true
}

// Repository persists orders. The three transition methods are conditional
// single-document writes: each applies only when the stored order still
// satisfies the transition's precondition, and reports whether it did.
// They never read and write in separate calls.
type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// List returns matching orders, newest first.
	List(ctx context.Context, f Filter) ([]*Order, error)
	Count(ctx context.Context, f Filter) (int, error)
	Delete(ctx context.Context, id string) error

	// MarkPaid applies {id, customer, status=pending, paymentStatus≠paid}
	// → {paid, paid, transactionID, paidAt}.
	MarkPaid(ctx context.Context, id, customer, transactionID string, paidAt time.Time) (bool, error)
	// Cancel applies {id, customer, status=pending, paymentStatus=unpaid} → cancelled.
	Cancel(ctx context.Context, id, customer string) (bool, error)
	// Relabel applies {id, status≠cancelled, paymentStatus≠paid} → status.
	Relabel(ctx context.Context, id string, status Status) (bool, error)
}

// SortNewest orders os by creation time, newest first, ties by id.
func SortNewest(os []*Order) {
	sort.SliceStable(os, func(i, j int) bool {
		if os[i].CreatedAt.Equal(os[j].CreatedAt) {
			return os[i].ID > os[j].ID
		}
		return os[i].CreatedAt.After(os[j].CreatedAt)
	})
}
