package wishlist

import (
	"context"
	"strings"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/wishlist"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
)

type IDGenerator interface {
	NewID() string
}

type Service struct {
	repo  domain.Repository
	books dombook.Repository
	ids   IDGenerator
	now   func() time.Time
	in    application.Instrument
}

func NewService(repo domain.Repository, books dombook.Repository, ids IDGenerator, now func() time.Time, tel observability.Observability) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{repo: repo, books: books, ids: ids, now: now, in: application.NewInstrument(tel, "wishlist-service")}
}

// Add saves a book to the owner's wishlist, copying its name, image and price.
func (s *Service) Add(ctx context.Context, owner, bookID string) (_ *domain.Item, err error) {
	ctx, run := s.in.Begin(ctx, "wishlist.add", "AddWishlistItem")
	defer func() { run.End(ctx, err) }()

	if strings.TrimSpace(bookID) == "" {
		run.Fail("BOOK_ID_REQUIRED")
		return nil, application.NewValidation(domain.ErrBookIDRequired.Error())
	}
	b, err := s.books.Get(ctx, bookID)
	if err != nil {
		run.Fail("BOOK_LOAD_FAILED")
		return nil, application.WrapRepositoryError(err, dombook.ErrNotFound)
	}
	item := &domain.Item{
		ID:        s.ids.NewID(),
		UserEmail: owner,
		BookID:    b.ID,
		Name:      b.Name,
		Image:     b.Image,
		Price:     b.Price,
		CreatedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, owner string) ([]*domain.Item, error) {
	items, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, application.WrapRepositoryError(err)
	}
	return items, nil
}

// Remove deletes an item; items of other owners read as not found.
func (s *Service) Remove(ctx context.Context, owner, id string) (err error) {
	ctx, run := s.in.Begin(ctx, "wishlist.remove", "RemoveWishlistItem")
	defer func() { run.End(ctx, err) }()

	if err := s.repo.Delete(ctx, id, owner); err != nil {
		run.Fail("REPO_DELETE_FAILED")
		return application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	return nil
}
