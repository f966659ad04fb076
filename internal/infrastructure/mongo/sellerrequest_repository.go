package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/sellerrequest"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sellerRequestDoc struct {
	Email     string    `bson:"_id"`
	CreatedAt time.Time `bson:"createdAt"`
}

type SellerRequestRepository struct {
	col *mongodrv.Collection
}

var _ domain.Repository = (*SellerRequestRepository)(nil)

func NewSellerRequestRepository(db *mongodrv.Database) *SellerRequestRepository {
	return &SellerRequestRepository{col: db.Collection(colSellerRequests)}
}

func (r *SellerRequestRepository) Insert(ctx context.Context, req *domain.Request) error {
	_, err := r.col.InsertOne(ctx, sellerRequestDoc{Email: account.NormalizeEmail(req.Email), CreatedAt: req.CreatedAt})
	if err != nil {
		if mongodrv.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("mongo: insert seller request: %w", err)
	}
	return nil
}

func (r *SellerRequestRepository) List(ctx context.Context) ([]*domain.Request, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list seller requests: %w", err)
	}
	var docs []sellerRequestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode seller requests: %w", err)
	}
	out := make([]*domain.Request, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Request{Email: d.Email, CreatedAt: d.CreatedAt})
	}
	return out, nil
}

func (r *SellerRequestRepository) Delete(ctx context.Context, email string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": account.NormalizeEmail(email)})
	if err != nil {
		return fmt.Errorf("mongo: delete seller request: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
