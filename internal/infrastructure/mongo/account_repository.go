package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/account"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type accountDoc struct {
	Email       string    `bson:"_id"`
	Name        string    `bson:"name,omitempty"`
	Image       string    `bson:"image,omitempty"`
	Role        string    `bson:"role"`
	CreatedAt   time.Time `bson:"created_at"`
	LastLoginAt time.Time `bson:"last_loggedIn"`
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		Email:       d.Email,
		Name:        d.Name,
		Image:       d.Image,
		Role:        domain.Role(d.Role),
		CreatedAt:   d.CreatedAt,
		LastLoginAt: d.LastLoginAt,
	}
}

// AccountRepository keys user documents by normalized email.
type AccountRepository struct {
	col *mongodrv.Collection
}

var _ domain.Repository = (*AccountRepository)(nil)

func NewAccountRepository(db *mongodrv.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(colUsers)}
}

func (r *AccountRepository) Get(ctx context.Context, email string) (*domain.Account, error) {
	var doc accountDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": domain.NormalizeEmail(email)}).Decode(&doc); err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: get account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) Insert(ctx context.Context, a *domain.Account) error {
	email := domain.NormalizeEmail(a.Email)
	if email == "" {
		return domain.ErrEmailRequired
	}
	_, err := r.col.InsertOne(ctx, accountDoc{
		Email:       email,
		Name:        a.Name,
		Image:       a.Image,
		Role:        string(a.Role),
		CreatedAt:   a.CreatedAt,
		LastLoginAt: a.LastLoginAt,
	})
	if err != nil {
		if mongodrv.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("mongo: insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) TouchLogin(ctx context.Context, email string, at time.Time) error {
	return r.set(ctx, email, bson.M{"last_loggedIn": at})
}

func (r *AccountRepository) SetRole(ctx context.Context, email string, role domain.Role) error {
	return r.set(ctx, email, bson.M{"role": string(role)})
}

func (r *AccountRepository) set(ctx context.Context, email string, fields bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": domain.NormalizeEmail(email)}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("mongo: update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, exclude string) ([]*domain.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$ne": domain.NormalizeEmail(exclude)}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list accounts: %w", err)
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode accounts: %w", err)
	}
	out := make([]*domain.Account, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo: count accounts: %w", err)
	}
	return int(n), nil
}
