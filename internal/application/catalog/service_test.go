package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/id"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/memory"
)

const seller = "lib@example.com"

func newService(t *testing.T) (*Service, *memory.BookRepository) {
	t.Helper()
	repo := memory.NewBookRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	now := func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return NewService(repo, id.NewUUIDGenerator(), now, nil), repo
}

func mustCreate(t *testing.T, s *Service, name string, price float64, status string) *domain.Book {
	t.Helper()
	b, err := s.Create(context.Background(), CreateInput{
		Seller: domain.Seller{Email: seller},
		Name:   name,
		Price:  price,
		Status: status,
	})
	if err != nil {
		t.Fatalf("create %q: %v", name, err)
	}
	return b
}

func TestCreateValidates(t *testing.T) {
	s, _ := newService(t)
	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing name", CreateInput{Price: 1}},
		{"negative price", CreateInput{Name: "x", Price: -1}},
		{"negative quantity", CreateInput{Name: "x", Quantity: -1}},
		{"unknown status", CreateInput{Name: "x", Status: "archived"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Create(context.Background(), tc.in); !errors.Is(err, application.ErrValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestBrowseShowsPublishedOnly(t *testing.T) {
	s, _ := newService(t)
	mustCreate(t, s, "The Hobbit", 12, "published")
	mustCreate(t, s, "The Silmarillion", 20, "published")
	mustCreate(t, s, "Draft Notes", 1, "")

	books, err := s.Browse(context.Background(), Query{Search: "the hob BIT"})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(books) != 1 || books[0].Name != "The Hobbit" {
		t.Fatalf("unexpected search result: %+v", books)
	}

	books, err = s.Browse(context.Background(), Query{Sort: "price", Order: "desc"})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(books) != 2 || books[0].Price != 20 {
		t.Fatalf("unexpected listing: %+v", books)
	}

	for _, q := range []Query{{Sort: "rating"}, {Order: "sideways"}, {Limit: "-1"}, {Skip: "many"}} {
		if _, err := s.Browse(context.Background(), q); !errors.Is(err, application.ErrValidation) {
			t.Fatalf("query %+v: err = %v, want validation", q, err)
		}
	}
}

func TestLatestReturnsFourNewest(t *testing.T) {
	s, _ := newService(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		mustCreate(t, s, name, 1, "published")
	}
	books, err := s.Latest(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(books) != 4 || books[0].Name != "e" {
		t.Fatalf("unexpected latest: %+v", books)
	}
}

func TestUpdateIsOwnerOnly(t *testing.T) {
	s, repo := newService(t)
	b := mustCreate(t, s, "Dune", 9, "published")
	price := 11.0

	err := s.Update(context.Background(), b.ID, "other@example.com", domain.Patch{Price: &price})
	if !errors.Is(err, application.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if err := s.Update(context.Background(), b.ID, seller, domain.Patch{}); !errors.Is(err, application.ErrValidation) {
		t.Fatalf("empty patch: err = %v", err)
	}
	if err := s.Update(context.Background(), b.ID, seller, domain.Patch{Price: &price}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.Get(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 11 || got.Name != "Dune" {
		t.Fatalf("unexpected book after update: %+v", got)
	}
}

func TestSetStatusAndDelete(t *testing.T) {
	s, _ := newService(t)
	b := mustCreate(t, s, "Dune", 9, "")

	if err := s.SetStatus(context.Background(), b.ID, "published"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := s.SetStatus(context.Background(), "missing", "published"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := s.Delete(context.Background(), b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(context.Background(), b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
