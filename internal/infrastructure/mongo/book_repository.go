package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/book"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

type bookDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Author      string    `bson:"author,omitempty"`
	Description string    `bson:"description,omitempty"`
	Image       string    `bson:"image,omitempty"`
	Category    string    `bson:"category,omitempty"`
	Price       float64   `bson:"price"`
	Quantity    int       `bson:"quantity"`
	Status      string    `bson:"status"`
	Seller      sellerDoc `bson:"seller"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func (d *bookDoc) toDomain() *domain.Book {
	return &domain.Book{
		ID:          d.ID,
		Name:        d.Name,
		Author:      d.Author,
		Description: d.Description,
		Image:       d.Image,
		Category:    d.Category,
		Price:       d.Price,
		Quantity:    d.Quantity,
		Status:      domain.Status(d.Status),
		Seller:      domain.Seller(d.Seller),
		CreatedAt:   d.CreatedAt,
	}
}

type BookRepository struct {
	col *mongodrv.Collection
}

var _ domain.Repository = (*BookRepository)(nil)

func NewBookRepository(db *mongodrv.Database) *BookRepository {
	return &BookRepository{col: db.Collection(colBooks)}
}

func (r *BookRepository) Insert(ctx context.Context, b *domain.Book) error {
	doc := bookDoc{
		ID:          b.ID,
		Name:        b.Name,
		Author:      b.Author,
		Description: b.Description,
		Image:       b.Image,
		Category:    b.Category,
		Price:       b.Price,
		Quantity:    b.Quantity,
		Status:      string(b.Status),
		Seller:      sellerDoc(b.Seller),
		CreatedAt:   b.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: insert book: %w", err)
	}
	return nil
}

func (r *BookRepository) Get(ctx context.Context, id string) (*domain.Book, error) {
	var doc bookDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: get book: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BookRepository) List(ctx context.Context, opts domain.ListOptions) ([]*domain.Book, error) {
	cur, err := r.col.Find(ctx, bookFilter(opts.Filter), bookFindOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("mongo: list books: %w", err)
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode books: %w", err)
	}
	out := make([]*domain.Book, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *BookRepository) Count(ctx context.Context, f domain.Filter) (int, error) {
	n, err := r.col.CountDocuments(ctx, bookFilter(f))
	if err != nil {
		return 0, fmt.Errorf("mongo: count books: %w", err)
	}
	return int(n), nil
}

func (r *BookRepository) Update(ctx context.Context, id string, p domain.Patch) error {
	set := patchSet(p)
	if len(set) == 0 {
		return nil
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mongo: update book: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func patchSet(p domain.Patch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Author != nil {
		set["author"] = *p.Author
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Image != nil {
		set["image"] = *p.Image
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Quantity != nil {
		set["quantity"] = *p.Quantity
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	return set
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: delete book: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BookRepository) DecrementStock(ctx context.Context, id string, n int) (bool, error) {
	if n <= 0 {
		return false, errors.New("mongo: decrement must be positive")
	}
	res, err := r.col.UpdateOne(ctx, decrementFilter(id, n), bson.M{"$inc": bson.M{"quantity": -n}})
	if err != nil {
		return false, fmt.Errorf("mongo: decrement stock: %w", err)
	}
	return res.ModifiedCount == 1, nil
}
