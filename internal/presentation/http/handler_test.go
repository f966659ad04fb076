package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	appaccount "github.com/Zhima-Mochi/bookmarket/internal/application/account"
	appcatalog "github.com/Zhima-Mochi/bookmarket/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/bookmarket/internal/application/order"
	apppayment "github.com/Zhima-Mochi/bookmarket/internal/application/payment"
	appstatistics "github.com/Zhima-Mochi/bookmarket/internal/application/statistics"
	appwishlist "github.com/Zhima-Mochi/bookmarket/internal/application/wishlist"
	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	dompay "github.com/Zhima-Mochi/bookmarket/internal/domain/payment"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/id"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/jwtauth"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/memory"
)

const (
	adminEmail     = "admin@example.com"
	librarianEmail = "lib@example.com"
	customerEmail  = "ann@example.com"
	bookID         = "book-1"
)

type fakeGateway struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]*dompay.Session
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, in dompay.CreateSessionInput) (*dompay.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	s := &dompay.Session{
		ID:            fmt.Sprintf("cs_%d", g.seq),
		PaymentStatus: dompay.SessionUnpaid,
		CustomerEmail: in.CustomerEmail,
		AmountTotal:   in.Item.UnitAmount * in.Item.Quantity,
		Metadata:      in.Metadata,
	}
	s.URL = "https://checkout.example/" + s.ID
	g.sessions[s.ID] = s
	return s, nil
}

func (g *fakeGateway) RetrieveCheckoutSession(_ context.Context, id string) (*dompay.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, dompay.ErrSessionNotFound
	}
	c := *s
	return &c, nil
}

// settle marks every open session paid, as the hosted checkout would.
func (g *fakeGateway) settle() (ids []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, s := range g.sessions {
		s.PaymentStatus = dompay.SessionPaid
		s.TransactionID = "pi_" + id
		ids = append(ids, id)
	}
	return ids
}

type server struct {
	t       *testing.T
	handler http.Handler
	tokens  *jwtauth.Verifier
	books   *memory.BookRepository
	orders  *memory.OrderRepository
	gateway *fakeGateway
}

func newServer(t *testing.T) *server {
	t.Helper()
	verifier, err := jwtauth.New("test-secret")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	orders := memory.NewOrderRepository()
	books := memory.NewBookRepository()
	accounts := memory.NewAccountRepository()
	requests := memory.NewSellerRequestRepository()
	wishlists := memory.NewWishlistRepository()
	gateway := &fakeGateway{sessions: make(map[string]*dompay.Session)}
	ids := id.NewUUIDGenerator()

	ctx := context.Background()
	now := time.Now().UTC()
	for email, role := range map[string]domaccount.Role{
		adminEmail:     domaccount.RoleAdmin,
		librarianEmail: domaccount.RoleLibrarian,
		customerEmail:  domaccount.RoleCustomer,
	} {
		if err := accounts.Insert(ctx, &domaccount.Account{Email: email, Role: role, CreatedAt: now}); err != nil {
			t.Fatalf("insert account: %v", err)
		}
	}
	if err := books.Insert(ctx, &dombook.Book{
		ID: bookID, Name: "The Hobbit", Price: 12.5, Quantity: 3,
		Status: dombook.StatusPublished, Seller: dombook.Seller{Email: librarianEmail}, CreatedAt: now,
	}); err != nil {
		t.Fatalf("insert book: %v", err)
	}

	accountSvc := appaccount.NewService(accounts, requests, nil, nil)
	h := NewHandler(Services{
		CreateOrder: apporder.NewCreateOrderUseCase(orders, books, ids, nil, nil),
		Checkout:    apppayment.NewInitiateCheckoutUseCase(gateway, orders, apppayment.CheckoutConfig{ClientDomain: "https://books.example"}, nil),
		Confirm:     apppayment.NewConfirmPaymentUseCase(orders, books, gateway, nil, nil, nil),
		Orders:      apporder.NewService(orders, nil),
		Catalog:     appcatalog.NewService(books, ids, nil, nil),
		Accounts:    accountSvc,
		Wishlists:   appwishlist.NewService(wishlists, books, ids, nil, nil),
		Statistics:  appstatistics.NewService(orders, books, accounts, nil),
	}, verifier, accountSvc, Options{}, nil, nil)

	return &server{t: t, handler: h.Router(), tokens: verifier, books: books, orders: orders, gateway: gateway}
}

func (s *server) token(email string) string {
	s.t.Helper()
	tok, err := s.tokens.Issue(email, time.Hour)
	if err != nil {
		s.t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (s *server) do(method, path, email string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(email))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) stock() int {
	s.t.Helper()
	b, err := s.books.Get(context.Background(), bookID)
	if err != nil {
		s.t.Fatalf("get book: %v", err)
	}
	return b.Quantity
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// placeAndCheckout creates an order for the customer and opens a checkout
// session for it, returning the order id.
func (s *server) placeAndCheckout() string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/orders", customerEmail, map[string]any{"bookId": bookID})
	expectStatus(s.t, rec, http.StatusCreated)
	created := decode[createOrderResponse](s.t, rec)

	rec = s.do(http.MethodPost, "/create-checkout-session", customerEmail, map[string]any{
		"orderId": created.OrderID, "bookId": bookID, "name": "The Hobbit", "price": 12.5, "quantity": 1,
	})
	expectStatus(s.t, rec, http.StatusOK)
	if decode[checkoutResponse](s.t, rec).URL == "" {
		s.t.Fatal("checkout returned no url")
	}
	return created.OrderID
}

func TestAuthenticationIsRequired(t *testing.T) {
	s := newServer(t)

	expectStatus(t, s.do(http.MethodGet, "/my-orders", "", nil), http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/my-orders", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusUnauthorized)
	if msg := decode[messageResponse](t, rec).Message; msg != "unauthorized access" {
		t.Fatalf("message = %q", msg)
	}
}

func TestRoleGuard(t *testing.T) {
	s := newServer(t)

	expectStatus(t, s.do(http.MethodGet, "/admin-statistics", customerEmail, nil), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodGet, "/manage-books", "stranger@example.com", nil), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodPost, "/books", customerEmail, map[string]any{"name": "x"}), http.StatusForbidden)

	rec := s.do(http.MethodPost, "/books", librarianEmail, map[string]any{"name": "Dune", "price": 9.5, "quantity": 2})
	expectStatus(t, rec, http.StatusCreated)
	b := decode[dombook.Book](t, rec)
	if b.Seller.Email != librarianEmail || b.Status != dombook.StatusDraft {
		t.Fatalf("unexpected book: %+v", b)
	}
}

func TestCheckoutConfirmScenario(t *testing.T) {
	s := newServer(t)
	orderID := s.placeAndCheckout()

	// not paid yet
	rec := s.do(http.MethodPost, "/payment-success", customerEmail, map[string]any{"sessionId": "cs_1"})
	expectStatus(t, rec, http.StatusConflict)

	s.gateway.settle()
	for i := 0; i < 2; i++ {
		rec = s.do(http.MethodPost, "/payment-success", customerEmail, map[string]any{"sessionId": "cs_1"})
		expectStatus(t, rec, http.StatusOK)
		res := decode[apppayment.ConfirmPaymentResult](t, rec)
		if !res.Success || res.OrderID != orderID || res.TransactionID != "pi_cs_1" {
			t.Fatalf("confirm %d: unexpected result %+v", i, res)
		}
	}
	if got := s.stock(); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}

	expectStatus(t, s.do(http.MethodPatch, "/order-cancel/"+orderID, customerEmail, nil), http.StatusConflict)
	o, err := s.orders.Get(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Status != domorder.StatusPaid || o.PaymentStatus != domorder.PaymentPaid {
		t.Fatalf("order changed after cancel attempt: %+v", o)
	}

	rec = s.do(http.MethodGet, "/my-invoices", customerEmail, nil)
	expectStatus(t, rec, http.StatusOK)
	invoices := decode[[]apporder.Invoice](t, rec)
	if len(invoices) != 1 || invoices[0].TransactionID != "pi_cs_1" {
		t.Fatalf("unexpected invoices: %+v", invoices)
	}

	rec = s.do(http.MethodGet, "/admin-statistics", adminEmail, nil)
	expectStatus(t, rec, http.StatusOK)
	stats := decode[appstatistics.Admin](t, rec)
	if stats.Revenue != 12.5 || stats.Orders != 1 || stats.Books != 1 || stats.Users != 3 {
		t.Fatalf("unexpected admin statistics: %+v", stats)
	}

	rec = s.do(http.MethodGet, "/customer-statistics", customerEmail, nil)
	expectStatus(t, rec, http.StatusOK)
	if cs := decode[appstatistics.Customer](t, rec); cs.Expenses != 12.5 || cs.Books != 1 {
		t.Fatalf("unexpected customer statistics: %+v", cs)
	}
}

func TestConfirmSessionErrors(t *testing.T) {
	s := newServer(t)
	expectStatus(t, s.do(http.MethodPost, "/payment-success", customerEmail, map[string]any{}), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPost, "/payment-success", customerEmail, map[string]any{"sessionId": "cs_missing"}), http.StatusNotFound)

	s.placeAndCheckout()
	s.gateway.settle()
	// another customer cannot claim the session
	expectStatus(t, s.do(http.MethodPost, "/payment-success", "bob@example.com", map[string]any{"sessionId": "cs_1"}), http.StatusBadRequest)
	if got := s.stock(); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}
}

func TestForeignSessionCannotSettleOrder(t *testing.T) {
	s := newServer(t)
	const eve = "eve@example.com"
	expectStatus(t, s.do(http.MethodPost, "/orders", customerEmail, map[string]any{"bookId": bookID}), http.StatusCreated)
	rec := s.do(http.MethodPost, "/orders", eve, map[string]any{"bookId": bookID})
	expectStatus(t, rec, http.StatusCreated)
	eveOrder := decode[createOrderResponse](t, rec).OrderID

	// checkout by book only, no order id
	expectStatus(t, s.do(http.MethodPost, "/create-checkout-session", customerEmail, map[string]any{
		"bookId": bookID, "name": "The Hobbit", "price": 12.5,
	}), http.StatusOK)
	s.gateway.settle()

	expectStatus(t, s.do(http.MethodPost, "/payment-success", eve, map[string]any{"sessionId": "cs_1"}), http.StatusBadRequest)
	o, err := s.orders.Get(context.Background(), eveOrder)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.IsPaid() {
		t.Fatalf("session of another customer paid %+v", o)
	}

	expectStatus(t, s.do(http.MethodPost, "/payment-success", customerEmail, map[string]any{"sessionId": "cs_1"}), http.StatusOK)
	if got := s.stock(); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}
}

func TestCheckoutChargesOrderTotal(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodPost, "/orders", customerEmail, map[string]any{"bookId": bookID})
	expectStatus(t, rec, http.StatusCreated)
	orderID := decode[createOrderResponse](t, rec).OrderID

	// a book-only checkout carries the client's price
	expectStatus(t, s.do(http.MethodPost, "/create-checkout-session", customerEmail, map[string]any{
		"bookId": bookID, "name": "The Hobbit", "price": 0.01,
	}), http.StatusOK)
	// an order checkout ignores it
	expectStatus(t, s.do(http.MethodPost, "/create-checkout-session", customerEmail, map[string]any{
		"orderId": orderID, "name": "The Hobbit", "price": 0.01,
	}), http.StatusOK)
	s.gateway.settle()

	expectStatus(t, s.do(http.MethodPost, "/payment-success", customerEmail, map[string]any{"sessionId": "cs_1"}), http.StatusConflict)
	if got := s.stock(); got != 3 {
		t.Fatalf("underpaid session changed stock: %d", got)
	}

	rec = s.do(http.MethodPost, "/payment-success", customerEmail, map[string]any{"sessionId": "cs_2"})
	expectStatus(t, rec, http.StatusOK)
	if res := decode[apppayment.ConfirmPaymentResult](t, rec); res.OrderID != orderID {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := s.stock(); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}

	expectStatus(t, s.do(http.MethodPost, "/create-checkout-session", "eve@example.com", map[string]any{"orderId": orderID}), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodPost, "/create-checkout-session", customerEmail, map[string]any{"orderId": orderID}), http.StatusConflict)
}

func TestConcurrentConfirmationsDecrementOnce(t *testing.T) {
	s := newServer(t)
	s.placeAndCheckout()
	s.gateway.settle()

	const n = 12
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.do(http.MethodPost, "/payment-success", customerEmail, map[string]any{"sessionId": "cs_1"}).Code
		}(i)
	}
	wg.Wait()

	for i, c := range codes {
		if c != http.StatusOK && c != http.StatusBadRequest {
			t.Fatalf("request %d: status %d", i, c)
		}
	}
	if got := s.stock(); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}
}

func TestSetOrderStatus(t *testing.T) {
	s := newServer(t)
	orderID := s.placeAndCheckout()

	expectStatus(t, s.do(http.MethodPatch, "/order/"+orderID, librarianEmail, map[string]any{"status": "shipped"}), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPatch, "/order/"+orderID, librarianEmail, map[string]any{"status": "paid"}), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPatch, "/order/"+orderID, librarianEmail, map[string]any{"status": "pending"}), http.StatusOK)
	expectStatus(t, s.do(http.MethodPatch, "/order/"+orderID, librarianEmail, map[string]any{"status": "cancelled"}), http.StatusOK)
	expectStatus(t, s.do(http.MethodPatch, "/order/"+orderID, librarianEmail, map[string]any{"status": "pending"}), http.StatusConflict)

	o, err := s.orders.Get(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Status != domorder.StatusCancelled || o.PaymentStatus != domorder.PaymentUnpaid {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestManageOrdersOnlyForCaller(t *testing.T) {
	s := newServer(t)
	s.placeAndCheckout()

	expectStatus(t, s.do(http.MethodGet, "/manage-orders/other@example.com", librarianEmail, nil), http.StatusForbidden)

	rec := s.do(http.MethodGet, "/manage-orders/"+librarianEmail, librarianEmail, nil)
	expectStatus(t, rec, http.StatusOK)
	if orders := decode[[]domorder.Order](t, rec); len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
}

func TestWishlistOwnership(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/wishlists/"+bookID, customerEmail, nil)
	expectStatus(t, rec, http.StatusCreated)
	itemID := decode[struct {
		ID string `json:"id"`
	}](t, rec).ID

	expectStatus(t, s.do(http.MethodDelete, "/wishlists/"+itemID, "bob@example.com", nil), http.StatusNotFound)
	expectStatus(t, s.do(http.MethodDelete, "/wishlists/"+itemID, customerEmail, nil), http.StatusOK)

	rec = s.do(http.MethodGet, "/my-wishlists", customerEmail, nil)
	expectStatus(t, rec, http.StatusOK)
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("wishlist body = %q", body)
	}
}

func TestLoginAndRole(t *testing.T) {
	s := newServer(t)
	const email = "New.Reader@Example.com"

	rec := s.do(http.MethodPost, "/user", email, map[string]any{"name": "Reader"})
	expectStatus(t, rec, http.StatusOK)
	if a := decode[domaccount.Account](t, rec); a.Email != "new.reader@example.com" || a.Role != domaccount.RoleCustomer {
		t.Fatalf("unexpected account: %+v", a)
	}

	rec = s.do(http.MethodGet, "/user/role", email, nil)
	expectStatus(t, rec, http.StatusOK)
	if role := decode[roleResponse](t, rec).Role; role != "customer" {
		t.Fatalf("role = %q", role)
	}

	expectStatus(t, s.do(http.MethodPost, "/become-seller", email, nil), http.StatusCreated)
	expectStatus(t, s.do(http.MethodPost, "/become-seller", email, nil), http.StatusConflict)
}

func TestUnknownRouteAndRequestID(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusNotFound)
	if got := rec.Header().Get(headerRequestID); got != "req-42" {
		t.Fatalf("X-Request-ID = %q", got)
	}
}

func TestCORSCredentialsNeedExplicitOrigins(t *testing.T) {
	verifier, err := jwtauth.New("test-secret")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	get := func(opts Options, origin string) http.Header {
		t.Helper()
		h := NewHandler(Services{}, verifier, nil, opts, nil, nil)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.Router().ServeHTTP(rec, req)
		expectStatus(t, rec, http.StatusOK)
		return rec.Header()
	}

	hdr := get(Options{}, "https://evil.example")
	if got := hdr.Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("wildcard origins allowed credentials: %q", got)
	}

	hdr = get(Options{AllowedOrigins: []string{"https://books.example"}}, "https://books.example")
	if hdr.Get("Access-Control-Allow-Origin") != "https://books.example" || hdr.Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("unexpected cors headers: %v", hdr)
	}
}
