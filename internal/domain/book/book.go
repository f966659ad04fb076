package book

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("book: not found")
	ErrInvalidStatus = errors.New("book: unknown status")
	ErrInvalidPrice  = errors.New("book: price must be zero or greater")
	ErrInvalidStock  = errors.New("book: quantity must be zero or greater")
	ErrNameRequired  = errors.New("book: name is required")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPublished:
		return StatusPublished, nil
	}
	return "", ErrInvalidStatus
}

// Seller is the listing account embedded in a book and copied onto orders.
type Seller struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

type Book struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Category    string    `json:"category,omitempty"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Status      Status    `json:"status"`
	Seller      Seller    `json:"seller"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (b *Book) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrNameRequired
	}
	if b.Price < 0 {
		return ErrInvalidPrice
	}
	if b.Quantity < 0 {
		return ErrInvalidStock
	}
	if _, err := ParseStatus(string(b.Status)); err != nil {
		return err
	}
	return nil
}

func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Patch carries the mutable fields of a listing; nil fields are left untouched.
type Patch struct {
	Name        *string
	Author      *string
	Description *string
	Image       *string
	Category    *string
	Price       *float64
	Quantity    *int
	Status      *Status
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Author == nil && p.Description == nil && p.Image == nil &&
		p.Category == nil && p.Price == nil && p.Quantity == nil && p.Status == nil
}

func (p Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.Price != nil && *p.Price < 0 {
		return ErrInvalidPrice
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return ErrInvalidStock
	}
	if p.Status != nil {
		if _, err := ParseStatus(string(*p.Status)); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the patch onto b.
func (p Patch) Apply(b *Book) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Image != nil {
		b.Image = *p.Image
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.Quantity != nil {
		b.Quantity = *p.Quantity
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}
