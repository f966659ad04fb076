package firestore

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/book"

	gfs "cloud.google.com/go/firestore"
)

type bookDoc struct {
	Name        string    `firestore:"name"`
	Author      string    `firestore:"author,omitempty"`
	Description string    `firestore:"description,omitempty"`
	Image       string    `firestore:"image,omitempty"`
	Category    string    `firestore:"category,omitempty"`
	Price       float64   `firestore:"price"`
	Quantity    int       `firestore:"quantity"`
	Status      string    `firestore:"status"`
	Seller      sellerDoc `firestore:"seller"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

func toBookDoc(b *domain.Book) bookDoc {
	return bookDoc{
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
}

func (d *bookDoc) toDomain(id string) *domain.Book {
	return &domain.Book{
		ID:          id,
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
	client *gfs.Client
}

var _ domain.Repository = (*BookRepository)(nil)

func NewBookRepository(client *gfs.Client) *BookRepository {
	return &BookRepository{client: client}
}

func (r *BookRepository) col() *gfs.CollectionRef { return r.client.Collection(colBooks) }

func (r *BookRepository) Insert(ctx context.Context, b *domain.Book) error {
	if _, err := r.col().Doc(b.ID).Create(ctx, toBookDoc(b)); err != nil {
		return fmt.Errorf("firestore: insert book: %w", err)
	}
	return nil
}

func (r *BookRepository) Get(ctx context.Context, id string) (*domain.Book, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore: get book: %w", err)
	}
	var doc bookDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore: decode book: %w", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *BookRepository) query(f domain.Filter) gfs.Query {
	q := r.col().Query
	if f.Status != "" {
		q = q.Where("status", "==", string(f.Status))
	}
	if f.SellerEmail != "" {
		q = q.Where("seller.email", "==", account.NormalizeEmail(f.SellerEmail))
	}
	return q
}

// List applies the name search, ordering and paging in process; Firestore
// has no substring match.
func (r *BookRepository) List(ctx context.Context, opts domain.ListOptions) ([]*domain.Book, error) {
	out := make([]*domain.Book, 0)
	err := each(ctx, r.query(opts.Filter), func(id string, d *bookDoc) {
		b := d.toDomain(id)
		if opts.Filter.Matches(b) {
			out = append(out, b)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("firestore: list books: %w", err)
	}
	domain.SortBooks(out, opts.Sort, opts.Desc)
	return domain.Page(out, opts.Skip, opts.Limit), nil
}

func (r *BookRepository) Count(ctx context.Context, f domain.Filter) (int, error) {
	if f.Search != "" {
		bs, err := r.List(ctx, domain.ListOptions{Filter: f})
		if err != nil {
			return 0, err
		}
		return len(bs), nil
	}
	n, err := count(ctx, r.query(f))
	if err != nil {
		return 0, fmt.Errorf("firestore: count books: %w", err)
	}
	return n, nil
}

func (r *BookRepository) Update(ctx context.Context, id string, p domain.Patch) error {
	var updates []gfs.Update
	add := func(path string, v any) { updates = append(updates, gfs.Update{Path: path, Value: v}) }
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Author != nil {
		add("author", *p.Author)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Image != nil {
		add("image", *p.Image)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Quantity != nil {
		add("quantity", *p.Quantity)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if len(updates) == 0 {
		return nil
	}
	// Update fails with NotFound on a missing document.
	if _, err := r.col().Doc(id).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("firestore: update book: %w", err)
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.col().Doc(id).Delete(ctx, gfs.Exists); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("firestore: delete book: %w", err)
	}
	return nil
}

func (r *BookRepository) DecrementStock(ctx context.Context, id string, n int) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("firestore: decrement must be positive")
	}
	ref := r.col().Doc(id)
	var modified bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		modified = false
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		var doc bookDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		if doc.Quantity < n {
			return nil
		}
		modified = true
		return tx.Update(ref, []gfs.Update{{Path: "quantity", Value: gfs.Increment(-n)}})
	})
	if err != nil {
		return false, fmt.Errorf("firestore: decrement stock: %w", err)
	}
	return modified, nil
}
