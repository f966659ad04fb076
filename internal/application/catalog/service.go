package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService = "catalog-service"
	latestLimit    = 4
)

type IDGenerator interface {
	NewID() string
}

// Service manages book listings.
type Service struct {
	repo domain.Repository
	ids  IDGenerator
	now  func() time.Time
	in   application.Instrument
}

func NewService(repo domain.Repository, ids IDGenerator, now func() time.Time, tel observability.Observability) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{repo: repo, ids: ids, now: now, in: application.NewInstrument(tel, catalogService)}
}

type CreateInput struct {
	Seller      domain.Seller
	Name        string
	Author      string
	Description string
	Image       string
	Category    string
	Price       float64
	Quantity    int
	Status      string
}

// Create lists a book for the calling seller. Status defaults to draft.
func (s *Service) Create(ctx context.Context, in CreateInput) (_ *domain.Book, err error) {
	ctx, run := s.in.Begin(ctx, "book.create", "CreateBook")
	defer func() { run.End(ctx, err) }()

	status := domain.StatusDraft
	if in.Status != "" {
		st, perr := domain.ParseStatus(in.Status)
		if perr != nil {
			run.Fail("STATUS_INVALID")
			return nil, application.NewValidation(perr.Error())
		}
		status = st
	}
	b := &domain.Book{
		ID:          s.ids.NewID(),
		Name:        strings.TrimSpace(in.Name),
		Author:      in.Author,
		Description: in.Description,
		Image:       in.Image,
		Category:    in.Category,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Status:      status,
		Seller:      in.Seller,
		CreatedAt:   s.now(),
	}
	if verr := b.Validate(); verr != nil {
		run.Fail("BOOK_INVALID")
		return nil, application.NewValidation(verr.Error())
	}
	if err := s.repo.Insert(ctx, b); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	run.Annotate(observability.F("book_id", b.ID))
	return b, nil
}

// Query holds the raw public listing parameters.
type Query struct {
	Search string
	Sort   string
	Order  string
	Limit  string
	Skip   string
}

func (q Query) options() (domain.ListOptions, error) {
	opts := domain.ListOptions{
		Filter: domain.Filter{Status: domain.StatusPublished, Search: q.Search},
		Sort:   domain.SortPrice,
	}
	if q.Sort != "" {
		if !domain.ValidSort(q.Sort) {
			return opts, application.NewValidation("unknown sort field " + strconv.Quote(q.Sort))
		}
		opts.Sort = q.Sort
	}
	switch strings.ToLower(q.Order) {
	case "", "asc":
	case "desc":
		opts.Desc = true
	default:
		return opts, application.NewValidation("order must be asc or desc")
	}
	var err error
	if opts.Limit, err = nonNegative(q.Limit, "limit"); err != nil {
		return opts, err
	}
	if opts.Skip, err = nonNegative(q.Skip, "skip"); err != nil {
		return opts, err
	}
	return opts, nil
}

func nonNegative(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, application.NewValidation(name + " must be a non-negative integer")
	}
	return n, nil
}

// Browse lists published books.
func (s *Service) Browse(ctx context.Context, q Query) (_ []*domain.Book, err error) {
	ctx, run := s.in.Begin(ctx, "book.browse", "BrowseBooks", attribute.String("book.sort", q.Sort))
	defer func() { run.End(ctx, err) }()

	opts, err := q.options()
	if err != nil {
		run.Fail("QUERY_INVALID")
		return nil, err
	}
	books, err := s.repo.List(ctx, opts)
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	return books, nil
}

// Latest returns the newest published books.
func (s *Service) Latest(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.repo.List(ctx, domain.ListOptions{
		Filter: domain.Filter{Status: domain.StatusPublished},
		Sort:   domain.SortCreatedAt,
		Desc:   true,
		Limit:  latestLimit,
	})
	if err != nil {
		return nil, application.WrapRepositoryError(err)
	}
	return books, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Book, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	return b, nil
}

// All lists every book regardless of status.
func (s *Service) All(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.repo.List(ctx, domain.ListOptions{Sort: domain.SortCreatedAt, Desc: true})
	if err != nil {
		return nil, application.WrapRepositoryError(err)
	}
	return books, nil
}

// Inventory lists every book of one seller.
func (s *Service) Inventory(ctx context.Context, seller string) ([]*domain.Book, error) {
	books, err := s.repo.List(ctx, domain.ListOptions{
		Filter: domain.Filter{SellerEmail: seller},
		Sort:   domain.SortCreatedAt,
		Desc:   true,
	})
	if err != nil {
		return nil, application.WrapRepositoryError(err)
	}
	return books, nil
}

// Update edits a listing owned by the caller.
func (s *Service) Update(ctx context.Context, id, caller string, p domain.Patch) (err error) {
	ctx, run := s.in.Begin(ctx, "book.update", "UpdateBook", attribute.String("book.id", id))
	defer func() { run.End(ctx, err) }()

	if p.Empty() {
		run.Fail("PATCH_EMPTY")
		return application.NewValidation("nothing to update")
	}
	if verr := p.Validate(); verr != nil {
		run.Fail("PATCH_INVALID")
		return application.NewValidation(verr.Error())
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		run.Fail("BOOK_LOAD_FAILED")
		return application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	if !strings.EqualFold(b.Seller.Email, caller) {
		run.Fail("NOT_OWNER")
		return application.NewForbidden("book belongs to another seller")
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	return nil
}

// SetStatus publishes or unpublishes any listing.
func (s *Service) SetStatus(ctx context.Context, id, status string) (err error) {
	ctx, run := s.in.Begin(ctx, "book.set_status", "SetBookStatus", attribute.String("book.id", id))
	defer func() { run.End(ctx, err) }()

	st, perr := domain.ParseStatus(status)
	if perr != nil {
		run.Fail("STATUS_INVALID")
		return application.NewValidation(perr.Error())
	}
	if err := s.repo.Update(ctx, id, domain.Patch{Status: &st}); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, run := s.in.Begin(ctx, "book.delete", "DeleteBook", attribute.String("book.id", id))
	defer func() { run.End(ctx, err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		run.Fail("REPO_DELETE_FAILED")
		return application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	return nil
}
