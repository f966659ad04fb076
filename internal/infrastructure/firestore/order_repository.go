package firestore

import (
	"context"
	"fmt"
	"time"

	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/order"

	gfs "cloud.google.com/go/firestore"
)

type sellerDoc struct {
	Email string `firestore:"email"`
	Name  string `firestore:"name,omitempty"`
	Image string `firestore:"image,omitempty"`
}

type orderDoc struct {
	BookID        string     `firestore:"bookId"`
	Customer      string     `firestore:"customer"`
	Seller        sellerDoc  `firestore:"seller"`
	Name          string     `firestore:"name"`
	Image         string     `firestore:"image,omitempty"`
	Price         float64    `firestore:"price"`
	Quantity      int        `firestore:"quantity"`
	Status        string     `firestore:"status"`
	PaymentStatus string     `firestore:"paymentStatus"`
	TransactionID string     `firestore:"transactionId,omitempty"`
	CreatedAt     time.Time  `firestore:"createdAt"`
	PaidAt        *time.Time `firestore:"paidAt,omitempty"`
}

func toOrderDoc(o *domain.Order) orderDoc {
	return orderDoc{
		BookID:        o.BookID,
		Customer:      domaccount.NormalizeEmail(o.Customer),
		Seller:        sellerDoc(o.Seller),
		Name:          o.Name,
		Image:         o.Image,
		Price:         o.Price,
		Quantity:      o.Quantity,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TransactionID: o.TransactionID,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
	}
}

func (d *orderDoc) toDomain(id string) *domain.Order {
	return &domain.Order{
		ID:            id,
		BookID:        d.BookID,
		Customer:      d.Customer,
		Seller:        dombook.Seller(d.Seller),
		Name:          d.Name,
		Image:         d.Image,
		Price:         d.Price,
		Quantity:      d.Quantity,
		Status:        domain.Status(d.Status),
		PaymentStatus: domain.PaymentStatus(d.PaymentStatus),
		TransactionID: d.TransactionID,
		CreatedAt:     d.CreatedAt,
		PaidAt:        d.PaidAt,
	}
}

// OrderRepository stores orders in the "orders" collection. Transitions run
// inside a Firestore transaction: the read, the precondition check and the
// write commit together or not at all.
type OrderRepository struct {
	client *gfs.Client
}

var _ domain.Repository = (*OrderRepository)(nil)

func NewOrderRepository(client *gfs.Client) *OrderRepository {
	return &OrderRepository{client: client}
}

func (r *OrderRepository) col() *gfs.CollectionRef { return r.client.Collection(colOrders) }

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	if _, err := r.col().Doc(o.ID).Create(ctx, toOrderDoc(o)); err != nil {
		if isAlreadyExists(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("firestore: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore: get order: %w", err)
	}
	var doc orderDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore: decode order: %w", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *OrderRepository) query(f domain.Filter) gfs.Query {
	q := r.col().Query
	if f.Customer != "" {
		q = q.Where("customer", "==", domaccount.NormalizeEmail(f.Customer))
	}
	if f.SellerEmail != "" {
		q = q.Where("seller.email", "==", domaccount.NormalizeEmail(f.SellerEmail))
	}
	if f.BookID != "" {
		q = q.Where("bookId", "==", f.BookID)
	}
	if f.Status != "" {
		q = q.Where("status", "==", string(f.Status))
	}
	if f.PaymentStatus != "" {
		q = q.Where("paymentStatus", "==", string(f.PaymentStatus))
	}
	if f.TransactionID != "" {
		q = q.Where("transactionId", "==", f.TransactionID)
	}
	return q
}

// List sorts in process so equality filters never need a composite index.
func (r *OrderRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0)
	err := each(ctx, r.query(f), func(id string, d *orderDoc) {
		out = append(out, d.toDomain(id))
	})
	if err != nil {
		return nil, fmt.Errorf("firestore: list orders: %w", err)
	}
	domain.SortNewest(out)
	return out, nil
}

func (r *OrderRepository) Count(ctx context.Context, f domain.Filter) (int, error) {
	n, err := count(ctx, r.query(f))
	if err != nil {
		return 0, fmt.Errorf("firestore: count orders: %w", err)
	}
	return n, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.col().Doc(id).Delete(ctx, gfs.Exists); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("firestore: delete order: %w", err)
	}
	return nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id, customer, transactionID string, paidAt time.Time) (bool, error) {
	return r.transition(ctx, id, func(o *domain.Order) []gfs.Update {
		if !o.OwnedBy(customer) || o.ConfirmPayment(transactionID, paidAt) != nil {
			return nil
		}
		return []gfs.Update{
			{Path: "status", Value: string(o.Status)},
			{Path: "paymentStatus", Value: string(o.PaymentStatus)},
			{Path: "transactionId", Value: o.TransactionID},
			{Path: "paidAt", Value: *o.PaidAt},
		}
	})
}

func (r *OrderRepository) Cancel(ctx context.Context, id, customer string) (bool, error) {
	return r.transition(ctx, id, func(o *domain.Order) []gfs.Update {
		if !o.OwnedBy(customer) || o.Cancel() != nil {
			return nil
		}
		return []gfs.Update{{Path: "status", Value: string(o.Status)}}
	})
}

func (r *OrderRepository) Relabel(ctx context.Context, id string, status domain.Status) (bool, error) {
	return r.transition(ctx, id, func(o *domain.Order) []gfs.Update {
		if o.Relabel(status) != nil {
			return nil
		}
		return []gfs.Update{{Path: "status", Value: string(o.Status)}}
	})
}

// transition reads the order, lets fn decide the field updates and writes
// them in the same transaction. fn returning nil means "not modified".
func (r *OrderRepository) transition(ctx context.Context, id string, fn func(*domain.Order) []gfs.Update) (bool, error) {
	ref := r.col().Doc(id)
	var modified bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		modified = false
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		var doc orderDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		updates := fn(doc.toDomain(id))
		if len(updates) == 0 {
			return nil
		}
		modified = true
		return tx.Update(ref, updates)
	})
	if err != nil {
		return false, fmt.Errorf("firestore: order transition: %w", err)
	}
	return modified, nil
}
