package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/order"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sellerDoc struct {
	Email string `bson:"email"`
	Name  string `bson:"name,omitempty"`
	Image string `bson:"image,omitempty"`
}

type orderDoc struct {
	ID            string     `bson:"_id"`
	BookID        string     `bson:"bookId"`
	Customer      string     `bson:"customer"`
	Seller        sellerDoc  `bson:"seller"`
	Name          string     `bson:"name"`
	Image         string     `bson:"image,omitempty"`
	Price         float64    `bson:"price"`
	Quantity      int        `bson:"quantity"`
	Status        string     `bson:"status"`
	PaymentStatus string     `bson:"paymentStatus"`
	TransactionID string     `bson:"transactionId,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt"`
	PaidAt        *time.Time `bson:"paidAt,omitempty"`
}

func (d *orderDoc) toDomain() *domain.Order {
	return &domain.Order{
		ID:            d.ID,
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

// OrderRepository stores orders in the "orders" collection. Every transition
// is one UpdateOne whose filter carries the precondition.
type OrderRepository struct {
	col *mongodrv.Collection
}

var _ domain.Repository = (*OrderRepository)(nil)

func NewOrderRepository(db *mongodrv.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(colOrders)}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	doc := orderDoc{
		ID:            o.ID,
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
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongodrv.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("mongo: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: get order: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *OrderRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, orderFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode orders: %w", err)
	}
	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *OrderRepository) Count(ctx context.Context, f domain.Filter) (int, error) {
	n, err := r.col.CountDocuments(ctx, orderFilter(f))
	if err != nil {
		return 0, fmt.Errorf("mongo: count orders: %w", err)
	}
	return int(n), nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id, customer, transactionID string, paidAt time.Time) (bool, error) {
	update := bson.M{"$set": bson.M{
		"status":        string(domain.StatusPaid),
		"paymentStatus": string(domain.PaymentPaid),
		"transactionId": transactionID,
		"paidAt":        paidAt,
	}}
	res, err := r.col.UpdateOne(ctx, markPaidFilter(id, customer), update)
	if err != nil {
		return false, fmt.Errorf("mongo: mark order paid: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *OrderRepository) Cancel(ctx context.Context, id, customer string) (bool, error) {
	update := bson.M{"$set": bson.M{"status": string(domain.StatusCancelled)}}
	res, err := r.col.UpdateOne(ctx, cancelFilter(id, customer), update)
	if err != nil {
		return false, fmt.Errorf("mongo: cancel order: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// Relabel counts matches, not modifications: relabelling a pending order to
// pending is accepted.
func (r *OrderRepository) Relabel(ctx context.Context, id string, status domain.Status) (bool, error) {
	if !relabelTarget(status) {
		return false, nil
	}
	update := bson.M{"$set": bson.M{"status": string(status)}}
	res, err := r.col.UpdateOne(ctx, relabelFilter(id), update)
	if err != nil {
		return false, fmt.Errorf("mongo: relabel order: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func relabelTarget(s domain.Status) bool {
	for _, t := range domain.RelabelTargets() {
		if t == s {
			return true
		}
	}
	return false
}
