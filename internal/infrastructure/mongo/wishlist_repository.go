package mongo

import (
	"context"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/wishlist"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type wishlistDoc struct {
	ID        string    `bson:"_id"`
	UserEmail string    `bson:"userEmail"`
	BookID    string    `bson:"bookId"`
	Name      string    `bson:"name,omitempty"`
	Image     string    `bson:"image,omitempty"`
	Price     float64   `bson:"price"`
	CreatedAt time.Time `bson:"createdAt"`
}

type WishlistRepository struct {
	col *mongodrv.Collection
}

var _ domain.Repository = (*WishlistRepository)(nil)

func NewWishlistRepository(db *mongodrv.Database) *WishlistRepository {
	return &WishlistRepository{col: db.Collection(colWishlists)}
}

func (r *WishlistRepository) Insert(ctx context.Context, it *domain.Item) error {
	_, err := r.col.InsertOne(ctx, wishlistDoc{
		ID:        it.ID,
		UserEmail: it.UserEmail,
		BookID:    it.BookID,
		Name:      it.Name,
		Image:     it.Image,
		Price:     it.Price,
		CreatedAt: it.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("mongo: insert wishlist item: %w", err)
	}
	return nil
}

func (r *WishlistRepository) ListByOwner(ctx context.Context, email string) ([]*domain.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"userEmail": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list wishlist: %w", err)
	}
	var docs []wishlistDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode wishlist: %w", err)
	}
	out := make([]*domain.Item, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Item{
			ID: d.ID, UserEmail: d.UserEmail, BookID: d.BookID,
			Name: d.Name, Image: d.Image, Price: d.Price, CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

// Delete matches on owner too, so foreign items read as not found.
func (r *WishlistRepository) Delete(ctx context.Context, id, owner string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "userEmail": owner})
	if err != nil {
		return fmt.Errorf("mongo: delete wishlist item: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
