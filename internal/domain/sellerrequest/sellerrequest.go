package sellerrequest

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("seller request: not found")
	ErrConflict = errors.New("seller request: already requested")
)

// Request is an account's pending application to sell books.
type Request struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	// Insert fails with ErrConflict when the email already has a request.
	Insert(ctx context.Context, r *Request) error
	List(ctx context.Context) ([]*Request, error)
	Delete(ctx context.Context, email string) error
}
