package book

import (
	"context"
	"sort"
	"strings"
)

// Sort fields accepted by List.
const (
	SortPrice     = "price"
	SortName      = "name"
	SortCreatedAt = "createdAt"
	SortQuantity  = "quantity"
)

type Filter struct {
	Status      Status
	SellerEmail string
	// Search matches the name case-insensitively, ignoring whitespace.
	Search string
}

type ListOptions struct {
	Filter
	Sort  string
	Desc  bool
	Limit int
	Skip  int
}

type Repository interface {
	Insert(ctx context.Context, b *Book) error
	Get(ctx context.Context, id string) (*Book, error)
	List(ctx context.Context, opts ListOptions) ([]*Book, error)
	Count(ctx context.Context, f Filter) (int, error)
	Update(ctx context.Context, id string, p Patch) error
	Delete(ctx context.Context, id string) error
	// DecrementStock lowers quantity by n only when at least n remain.
	// It reports whether the book was modified.
	DecrementStock(ctx context.Context, id string, n int) (bool, error)
}

// ValidSort reports whether field is an accepted sort key.
func ValidSort(field string) bool {
	switch field {
	case SortPrice, SortName, SortCreatedAt, SortQuantity:
		return true
	}
	return false
}

// NormalizeSearch strips whitespace and lowercases a search term or a name,
// so both sides of a match compare the same way.
func NormalizeSearch(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// Matches applies f in memory. Stores without native predicates use it.
func (f Filter) Matches(b *Book) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.SellerEmail != "" && !strings.EqualFold(b.Seller.Email, f.SellerEmail) {
		return false
	}
	if term := NormalizeSearch(f.Search); term != "" && !strings.Contains(NormalizeSearch(b.Name), term) {
		return false
	}
	return true
}

// SortBooks orders bs in place by field. Unknown fields fall back to id.
func SortBooks(bs []*Book, field string, desc bool) {
	sort.SliceStable(bs, func(i, j int) bool {
		a, b := bs[i], bs[j]
		if desc {
			a, b = b, a
		}
		switch field {
		case SortName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case SortCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortQuantity:
			return a.Quantity < b.Quantity
		case SortPrice:
			return a.Price < b.Price
		default:
			return a.ID < b.ID
		}
	})
}

// Page applies skip then limit; zero means unbounded.
func Page(bs []*Book, skip, limit int) []*Book {
	if skip > 0 {
		if skip >= len(bs) {
			return []*Book{}
		}
		bs = bs[skip:]
	}
	if limit > 0 && limit < len(bs) {
		bs = bs[:limit]
	}
	return bs
}
