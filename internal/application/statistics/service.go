package statistics

import (
	"context"
	"strings"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"

	"github.com/shopspring/decimal"
)

// Service derives dashboard figures on every call; nothing is cached.
type Service struct {
	orders   domorder.Repository
	books    dombook.Repository
	accounts domaccount.Repository
	in       application.Instrument
}

func NewService(orders domorder.Repository, books dombook.Repository, accounts domaccount.Repository, tel observability.Observability) *Service {
	return &Service{orders: orders, books: books, accounts: accounts, in: application.NewInstrument(tel, "statistics-service")}
}

type Admin struct {
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
	Books   int     `json:"books"`
	Users   int     `json:"users"`
}

type Librarian struct {
	Revenue   float64 `json:"revenue"`
	Orders    int     `json:"orders"`
	Books     int     `json:"books"`
	Customers int     `json:"customers"`
}

type Customer struct {
	Expenses float64 `json:"expenses"`
	Books    int     `json:"books"`
}

func (s *Service) Admin(ctx context.Context) (_ *Admin, err error) {
	ctx, run := s.in.Begin(ctx, "statistics.admin", "AdminStatistics")
	defer func() { run.End(ctx, err) }()

	paid, err := s.orders.List(ctx, domorder.Filter{PaymentStatus: domorder.PaymentPaid})
	if err != nil {
		run.Fail("REPO_ORDERS_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	orders, err := s.orders.Count(ctx, domorder.Filter{})
	if err != nil {
		run.Fail("REPO_ORDERS_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	books, err := s.books.Count(ctx, dombook.Filter{})
	if err != nil {
		run.Fail("REPO_BOOKS_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	users, err := s.accounts.Count(ctx)
	if err != nil {
		run.Fail("REPO_ACCOUNTS_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	return &Admin{Revenue: sumPrice(paid), Orders: orders, Books: books, Users: users}, nil
}

func (s *Service) Librarian(ctx context.Context, seller string) (_ *Librarian, err error) {
	ctx, run := s.in.Begin(ctx, "statistics.librarian", "LibrarianStatistics")
	defer func() { run.End(ctx, err) }()

	paid, err := s.orders.List(ctx, domorder.Filter{SellerEmail: seller, PaymentStatus: domorder.PaymentPaid})
	if err != nil {
		run.Fail("REPO_ORDERS_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	books, err := s.books.Count(ctx, dombook.Filter{SellerEmail: seller})
	if err != nil {
		run.Fail("REPO_BOOKS_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	customers := make(map[string]struct{})
	for _, o := range paid {
		customers[strings.ToLower(o.Customer)] = struct{}{}
	}
	return &Librarian{
		Revenue:   sumPrice(paid),
		Orders:    len(paid),
		Books:     books,
		Customers: len(customers),
	}, nil
}

func (s *Service) Customer(ctx context.Context, customer string) (_ *Customer, err error) {
	ctx, run := s.in.Begin(ctx, "statistics.customer", "CustomerStatistics")
	defer func() { run.End(ctx, err) }()

	paid, err := s.orders.List(ctx, domorder.Filter{Customer: customer, PaymentStatus: domorder.PaymentPaid})
	if err != nil {
		run.Fail("REPO_ORDERS_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	books := 0
	for _, o := range paid {
		books += o.Quantity
	}
	return &Customer{Expenses: sumPrice(paid), Books: books}, nil
}

func sumPrice(orders []*domorder.Order) float64 {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(decimal.NewFromFloat(o.Price))
	}
	return total.InexactFloat64()
}
