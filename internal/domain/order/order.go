package order

import (
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/domain/book"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: conflict")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount          = errors.New("order: price must be zero or greater")
	ErrInvalidStatus          = errors.New("order: unknown status")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusPaid      Status = "paid"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusPaid:
		return StatusPaid, nil
	}
	return "", ErrInvalidStatus
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Snapshot is the part of a book copied onto an order when it is placed.
// Later edits to the book never reach the order.
type Snapshot struct {
	Name   string
	Image  string
	Price  float64
	Seller book.Seller
}

type Order struct {
	ID            string        `json:"id"`
	BookID        string        `json:"bookId"`
	Customer      string        `json:"customer"`
	Seller        book.Seller   `json:"seller"`
	Name          string        `json:"name"`
	Image         string        `json:"image,omitempty"`
	Price         float64       `json:"price"`
	Quantity      int           `json:"quantity"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TransactionID string        `json:"transactionId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

func New(id, customer, bookID string, snap Snapshot, quantity int, now time.Time) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if snap.Price < 0 {
		return nil, ErrInvalidAmount
	}
	// emails are stored lower-cased so stores can match them by equality
	seller := snap.Seller
	seller.Email = normalizeEmail(seller.Email)
	return &Order{
		ID:            id,
		BookID:        bookID,
		Customer:      normalizeEmail(customer),
		Seller:        seller,
		Name:          snap.Name,
		Image:         snap.Image,
		Price:         snap.Price,
		Quantity:      quantity,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     now.UTC(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (o *Order) IsPaid() bool { return o.PaymentStatus == PaymentPaid }

// OwnedBy reports whether the order was placed by the given account email.
func (o *Order) OwnedBy(customer string) bool {
	return customer != "" && strings.EqualFold(o.Customer, customer)
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	return &c
}
