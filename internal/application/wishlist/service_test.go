package wishlist

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/wishlist"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/id"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	books := memory.NewBookRepository()
	err := books.Insert(context.Background(), &dombook.Book{
		ID:     "b1",
		Name:   "Dune",
		Image:  "dune.png",
		Price:  12.5,
		Status: dombook.StatusPublished,
	})
	if err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return NewService(memory.NewWishlistRepository(), books, id.NewUUIDGenerator(), nil, nil)
}

func TestAddSnapshotsBook(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	item, err := s.Add(ctx, "a@example.com", "b1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Name != "Dune" || item.Image != "dune.png" || item.Price != 12.5 {
		t.Fatalf("snapshot = %+v", item)
	}

	if _, err := s.Add(ctx, "a@example.com", ""); !errors.Is(err, application.ErrValidation) {
		t.Fatalf("empty book id err = %v", err)
	}
	if _, err := s.Add(ctx, "a@example.com", "missing"); !errors.Is(err, dombook.ErrNotFound) {
		t.Fatalf("missing book err = %v", err)
	}
}

func TestRemoveIsOwnerScoped(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	item, err := s.Add(ctx, "a@example.com", "b1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.Remove(ctx, "b@example.com", item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign remove err = %v", err)
	}
	if err := s.Remove(ctx, "a@example.com", item.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items, err := s.List(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items = %d, want 0", len(items))
	}
}
