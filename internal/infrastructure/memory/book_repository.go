package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
)

type BookRepository struct {
	mu    sync.RWMutex
	books map[string]*domain.Book
}

var _ domain.Repository = (*BookRepository)(nil)

func NewBookRepository() *BookRepository {
	return &BookRepository{
		books: make(map[string]*domain.Book),
	}
}

func (r *BookRepository) Insert(ctx context.Context, b *domain.Book) error {
	_ = ctx
	if b == nil || b.ID == "" {
		return fmt.Errorf("book repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.books[b.ID]; exists {
		return fmt.Errorf("book repository: duplicate id %q", b.ID)
	}
	r.books[b.ID] = b.Clone()
	return nil
}

func (r *BookRepository) Get(ctx context.Context, id string) (*domain.Book, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *BookRepository) List(ctx context.Context, opts domain.ListOptions) ([]*domain.Book, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Book, 0)
	for _, b := range r.books {
		if opts.Filter.Matches(b) {
			out = append(out, b.Clone())
		}
	}
	r.mu.RUnlock()

	domain.SortBooks(out, opts.Sort, opts.Desc)
	return domain.Page(out, opts.Skip, opts.Limit), nil
}

func (r *BookRepository) Count(ctx context.Context, f domain.Filter) (int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, b := range r.books {
		if f.Matches(b) {
			n++
		}
	}
	return n, nil
}

func (r *BookRepository) Update(ctx context.Context, id string, p domain.Patch) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return domain.ErrNotFound
	}
	next := b.Clone()
	p.Apply(next)
	r.books[id] = next
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *BookRepository) DecrementStock(ctx context.Context, id string, n int) (bool, error) {
	_ = ctx
	if n <= 0 {
		return false, fmt.Errorf("book repository: decrement must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok || b.Quantity < n {
		return false, nil
	}
	next := b.Clone()
	next.Quantity -= n
	r.books[id] = next
	return true, nil
}
