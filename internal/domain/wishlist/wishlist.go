package wishlist

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("wishlist: item not found")
	ErrBookIDRequired = errors.New("wishlist: book id is required")
)

type Item struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"userEmail"`
	BookID    string    `json:"bookId"`
	Name      string    `json:"name,omitempty"`
	Image     string    `json:"image,omitempty"`
	Price     float64   `json:"price,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	Insert(ctx context.Context, item *Item) error
	ListByOwner(ctx context.Context, email string) ([]*Item, error)
	// Delete removes the item only when owner matches; ErrNotFound otherwise.
	Delete(ctx context.Context, id, owner string) error
}
