package firestore

import (
	"context"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/account"

	gfs "cloud.google.com/go/firestore"
)

type accountDoc struct {
	Email       string    `firestore:"email"`
	Name        string    `firestore:"name,omitempty"`
	Image       string    `firestore:"image,omitempty"`
	Role        string    `firestore:"role"`
	CreatedAt   time.Time `firestore:"created_at"`
	LastLoginAt time.Time `firestore:"last_loggedIn"`
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
	client *gfs.Client
}

var _ domain.Repository = (*AccountRepository)(nil)

func NewAccountRepository(client *gfs.Client) *AccountRepository {
	return &AccountRepository{client: client}
}

func (r *AccountRepository) doc(email string) *gfs.DocumentRef {
	return r.client.Collection(colUsers).Doc(domain.NormalizeEmail(email))
}

func (r *AccountRepository) Get(ctx context.Context, email string) (*domain.Account, error) {
	snap, err := r.doc(email).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore: get account: %w", err)
	}
	var d accountDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("firestore: decode account: %w", err)
	}
	return d.toDomain(), nil
}

func (r *AccountRepository) Insert(ctx context.Context, a *domain.Account) error {
	if domain.NormalizeEmail(a.Email) == "" {
		return domain.ErrEmailRequired
	}
	_, err := r.doc(a.Email).Create(ctx, accountDoc{
		Email:       domain.NormalizeEmail(a.Email),
		Name:        a.Name,
		Image:       a.Image,
		Role:        string(a.Role),
		CreatedAt:   a.CreatedAt,
		LastLoginAt: a.LastLoginAt,
	})
	if err != nil {
		if isAlreadyExists(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("firestore: insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) TouchLogin(ctx context.Context, email string, at time.Time) error {
	return r.update(ctx, email, gfs.Update{Path: "last_loggedIn", Value: at})
}

func (r *AccountRepository) SetRole(ctx context.Context, email string, role domain.Role) error {
	return r.update(ctx, email, gfs.Update{Path: "role", Value: string(role)})
}

func (r *AccountRepository) update(ctx context.Context, email string, u gfs.Update) error {
	if _, err := r.doc(email).Update(ctx, []gfs.Update{u}); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("firestore: update account: %w", err)
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, exclude string) ([]*domain.Account, error) {
	skip := domain.NormalizeEmail(exclude)
	out := make([]*domain.Account, 0)
	q := r.client.Collection(colUsers).OrderBy("created_at", gfs.Desc)
	err := each(ctx, q, func(id string, d *accountDoc) {
		if id != skip {
			out = append(out, d.toDomain())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("firestore: list accounts: %w", err)
	}
	return out, nil
}

func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	n, err := count(ctx, r.client.Collection(colUsers).Query)
	if err != nil {
		return 0, fmt.Errorf("firestore: count accounts: %w", err)
	}
	return n, nil
}
