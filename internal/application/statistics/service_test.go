package statistics

import (
	"context"
	"testing"
	"time"

	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/memory"
)

type fixture struct {
	orders   *memory.OrderRepository
	books    *memory.BookRepository
	accounts *memory.AccountRepository
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		orders:   memory.NewOrderRepository(),
		books:    memory.NewBookRepository(),
		accounts: memory.NewAccountRepository(),
	}
	f.svc = NewService(f.orders, f.books, f.accounts, nil)
	return f
}

func (f *fixture) order(t *testing.T, id, customer, seller string, price float64, qty int, paid bool) {
	t.Helper()
	ctx := context.Background()
	o, err := domorder.New(id, customer, "b", domorder.Snapshot{Name: "n", Price: price, Seller: dombook.Seller{Email: seller}}, qty, time.Now())
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	if err := f.orders.Insert(ctx, o); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if paid {
		if ok, _ := f.orders.MarkPaid(ctx, id, customer, "pi_"+id, time.Now()); !ok {
			t.Fatalf("mark paid %s", id)
		}
	}
}

func TestAdminStatisticsWithoutPaidOrders(t *testing.T) {
	f := newFixture()
	f.order(t, "o1", "ann@example.com", "lib@example.com", 10, 1, false)

	got, err := f.svc.Admin(context.Background())
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if got.Revenue != 0 || got.Orders != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestStatistics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_ = f.accounts.Insert(ctx, &domaccount.Account{Email: "ann@example.com", Role: domaccount.RoleCustomer})
	_ = f.accounts.Insert(ctx, &domaccount.Account{Email: "lib@example.com", Role: domaccount.RoleLibrarian})
	_ = f.books.Insert(ctx, &dombook.Book{ID: "b", Name: "n", Seller: dombook.Seller{Email: "lib@example.com"}, Status: dombook.StatusPublished})

	f.order(t, "o1", "ann@example.com", "lib@example.com", 0.1, 2, true)
	f.order(t, "o2", "ann@example.com", "lib@example.com", 0.2, 1, true)
	f.order(t, "o3", "bob@example.com", "lib@example.com", 5, 1, true)
	f.order(t, "o4", "ann@example.com", "other@example.com", 7, 1, false)

	admin, err := f.svc.Admin(ctx)
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if admin.Revenue != 5.3 || admin.Orders != 4 || admin.Books != 1 || admin.Users != 2 {
		t.Fatalf("unexpected admin stats: %+v", admin)
	}

	lib, err := f.svc.Librarian(ctx, "lib@example.com")
	if err != nil {
		t.Fatalf("librarian: %v", err)
	}
	if lib.Revenue != 5.3 || lib.Orders != 3 || lib.Books != 1 || lib.Customers != 2 {
		t.Fatalf("unexpected librarian stats: %+v", lib)
	}

	cust, err := f.svc.Customer(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("customer: %v", err)
	}
	if cust.Expenses != 0.3 || cust.Books != 3 {
		t.Fatalf("unexpected customer stats: %+v", cust)
	}
}
