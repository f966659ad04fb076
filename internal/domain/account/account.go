package account

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("account: not found")
	ErrConflict      = errors.New("account: already exists")
	ErrInvalidRole   = errors.New("account: unknown role")
	ErrEmailRequired = errors.New("account: email is required")
)

// Role is a closed set; ParseRole rejects anything else.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleLibrarian:
		return RoleLibrarian, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrInvalidRole
}

func (r Role) String() string { return string(r) }

type Account struct {
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	Image       string    `json:"image,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_loggedIn"`
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// NormalizeEmail is the key form used by every store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Repository interface {
	Get(ctx context.Context, email string) (*Account, error)
	// Insert fails with ErrConflict when the email is already present.
	Insert(ctx context.Context, a *Account) error
	TouchLogin(ctx context.Context, email string, at time.Time) error
	SetRole(ctx context.Context, email string, role Role) error
	// List returns all accounts except the one keyed by exclude.
	List(ctx context.Context, exclude string) ([]*Account, error)
	Count(ctx context.Context) (int, error)
}
