package firestore

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/sellerrequest"

	gfs "cloud.google.com/go/firestore"
)

type sellerRequestDoc struct {
	Email     string    `firestore:"email"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type SellerRequestRepository struct {
	client *gfs.Client
}

var _ domain.Repository = (*SellerRequestRepository)(nil)

func NewSellerRequestRepository(client *gfs.Client) *SellerRequestRepository {
	return &SellerRequestRepository{client: client}
}

func (r *SellerRequestRepository) col() *gfs.CollectionRef {
	return r.client.Collection(colSellerRequests)
}

func (r *SellerRequestRepository) Insert(ctx context.Context, req *domain.Request) error {
	email := account.NormalizeEmail(req.Email)
	_, err := r.col().Doc(email).Create(ctx, sellerRequestDoc{Email: email, CreatedAt: req.CreatedAt})
	if err != nil {
		if isAlreadyExists(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("firestore: insert seller request: %w", err)
	}
	return nil
}

func (r *SellerRequestRepository) List(ctx context.Context) ([]*domain.Request, error) {
	out := make([]*domain.Request, 0)
	err := each(ctx, r.col().OrderBy("createdAt", gfs.Asc), func(_ string, d *sellerRequestDoc) {
		out = append(out, &domain.Request{Email: d.Email, CreatedAt: d.CreatedAt})
	})
	if err != nil {
		return nil, fmt.Errorf("firestore: list seller requests: %w", err)
	}
	return out, nil
}

func (r *SellerRequestRepository) Delete(ctx context.Context, email string) error {
	if _, err := r.col().Doc(account.NormalizeEmail(email)).Delete(ctx, gfs.Exists); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("firestore: delete seller request: %w", err)
	}
	return nil
}
