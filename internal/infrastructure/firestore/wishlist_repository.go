package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/wishlist"

	gfs "cloud.google.com/go/firestore"
)

type wishlistDoc struct {
	UserEmail string    `firestore:"userEmail"`
	BookID    string    `firestore:"bookId"`
	Name      string    `firestore:"name,omitempty"`
	Image     string    `firestore:"image,omitempty"`
	Price     float64   `firestore:"price"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type WishlistRepository struct {
	client *gfs.Client
}

var _ domain.Repository = (*WishlistRepository)(nil)

func NewWishlistRepository(client *gfs.Client) *WishlistRepository {
	return &WishlistRepository{client: client}
}

func (r *WishlistRepository) col() *gfs.CollectionRef { return r.client.Collection(colWishlists) }

func (r *WishlistRepository) Insert(ctx context.Context, it *domain.Item) error {
	_, err := r.col().Doc(it.ID).Set(ctx, wishlistDoc{
		UserEmail: it.UserEmail,
		BookID:    it.BookID,
		Name:      it.Name,
		Image:     it.Image,
		Price:     it.Price,
		CreatedAt: it.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("firestore: insert wishlist item: %w", err)
	}
	return nil
}

func (r *WishlistRepository) ListByOwner(ctx context.Context, email string) ([]*domain.Item, error) {
	out := make([]*domain.Item, 0)
	err := each(ctx, r.col().Where("userEmail", "==", email), func(id string, d *wishlistDoc) {
		out = append(out, &domain.Item{
			ID: id, UserEmail: d.UserEmail, BookID: d.BookID,
			Name: d.Name, Image: d.Image, Price: d.Price, CreatedAt: d.CreatedAt,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("firestore: list wishlist: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete checks ownership and deletes in one transaction.
func (r *WishlistRepository) Delete(ctx context.Context, id, owner string) error {
	ref := r.col().Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return domain.ErrNotFound
			}
			return err
		}
		var d wishlistDoc
		if err := snap.DataTo(&d); err != nil {
			return err
		}
		if !strings.EqualFold(d.UserEmail, owner) {
			return domain.ErrNotFound
		}
		return tx.Delete(ref)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("firestore: delete wishlist item: %w", err)
	}
	return nil
}
