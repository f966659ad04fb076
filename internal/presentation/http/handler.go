package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	appaccount "github.com/Zhima-Mochi/bookmarket/internal/application/account"
	appcatalog "github.com/Zhima-Mochi/bookmarket/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/bookmarket/internal/application/order"
	apppayment "github.com/Zhima-Mochi/bookmarket/internal/application/payment"
	appstatistics "github.com/Zhima-Mochi/bookmarket/internal/application/statistics"
	appwishlist "github.com/Zhima-Mochi/bookmarket/internal/application/wishlist"
	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	"github.com/Zhima-Mochi/bookmarket/internal/domain/identity"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerTenantID       = "X-Tenant-ID"
	maxBodyBytes         = 1 << 20
	banner               = "bookmarket api is running"
)

type RoleResolver = appaccount.RoleResolver

// Services are the application entry points the router dispatches to.
type Services struct {
	CreateOrder application.UseCase[apporder.CreateOrderInput, *apporder.CreateOrderResult]
	Checkout    application.UseCase[apppayment.InitiateCheckoutInput, *apppayment.InitiateCheckoutResult]
	Confirm     application.UseCase[apppayment.ConfirmPaymentInput, *apppayment.ConfirmPaymentResult]
	Orders      *apporder.Service
	Catalog     *appcatalog.Service
	Accounts    *appaccount.Service
	Wishlists   *appwishlist.Service
	Statistics  *appstatistics.Service
}

type Options struct {
	AllowedOrigins []string
}

type Handler struct {
	svc      Services
	verifier identity.Verifier
	roles    RoleResolver
	opts     Options
	log      observability.Logger
	tel      observability.Observability
}

func NewHandler(svc Services, verifier identity.Verifier, roles RoleResolver, opts Options,
	logger observability.Logger, tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Handler{
		svc:      svc,
		verifier: verifier,
		roles:    roles,
		opts:     opts,
		log:      baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

// Router wires every route behind
// Trace → ObservabilityMiddleware → Access log → Recover → CORS.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		h.withTrace,
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			func(r *http.Request) string { return r.Header.Get(headerTenantID) },
			h.tel,
		),
		h.withAccessLog,
		h.withRecover,
		cors.Handler(cors.Options{
			AllowedOrigins:   h.opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerRequestID, headerTenantID},
			ExposedHeaders:   []string{headerRequestID},
			AllowCredentials: h.allowCredentials(),
			MaxAge:           300,
		}),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", h.handleBanner)
	r.Get("/health", h.handleHealth)
	r.Get("/books", h.handleBrowseBooks)
	r.Get("/books/{id}", h.handleGetBook)
	r.Get("/latest-books", h.handleLatestBooks)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/user", h.handleLogin)
		r.Get("/user/role", h.handleRole)
		r.Post("/become-seller", h.handleBecomeSeller)

		r.Post("/orders", h.handleCreateOrder)
		r.Get("/my-orders", h.handleMyOrders)
		r.Get("/my-invoices", h.handleMyInvoices)
		r.Patch("/order-cancel/{id}", h.handleCancelOrder)
		r.Post("/create-checkout-session", h.handleCreateCheckoutSession)
		r.Post("/payment-success", h.handlePaymentSuccess)

		r.Post("/wishlists/{id}", h.handleAddWishlist)
		r.Get("/my-wishlists", h.handleMyWishlists)
		r.Delete("/wishlists/{id}", h.handleRemoveWishlist)

		r.Get("/customer-statistics", h.handleCustomerStatistics)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(h.roles, h.log, domaccount.RoleLibrarian))

			r.Post("/books", h.handleCreateBook)
			r.Put("/books/{id}", h.handleUpdateBook)
			r.Get("/my-inventory/{email}", h.handleMyInventory)
			// {key} is the seller email on GET and an order id on DELETE.
			r.Get("/manage-orders/{key}", h.handleManageOrders)
			r.Delete("/manage-orders/{key}", h.handleDeleteOrder)
			r.Patch("/order/{id}", h.handleSetOrderStatus)
			r.Get("/librarian-statistics", h.handleLibrarianStatistics)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(h.roles, h.log, domaccount.RoleAdmin))

			r.Patch("/books-status/{id}", h.handleSetBookStatus)
			r.Get("/manage-books", h.handleManageBooks)
			r.Delete("/manage-books/{id}", h.handleDeleteBook)
			r.Get("/seller-requests", h.handleSellerRequests)
			r.Delete("/seller-requests/{email}", h.handleRejectSeller)
			r.Get("/users", h.handleUsers)
			r.Patch("/update-role", h.handleUpdateRole)
			r.Get("/admin-statistics", h.handleAdminStatistics)
		})
	})

	return r
}

func (h *Handler) handleBanner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, banner)
}

// allowCredentials is false for the wildcard origin; a credentialed wildcard
// would reflect every origin back.
func (h *Handler) allowCredentials() bool {
	return !slices.Contains(h.opts.AllowedOrigins, "*")
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routePattern(r)),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C
// propagation. The span is renamed to the route pattern once chi has routed.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	tracer := otel.Tracer("bookmarket.http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(parentCtx,
			r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(ctx)
		next.ServeHTTP(lrw, r)

		route := routePattern(r)
		span.SetName(r.Method + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", lrw.status),
		)
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

// withRecover turns a handler panic into a logged 500.
func (h *Handler) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logctx.FromOr(r.Context(), h.log).Error("http_panic_recovered",
				observability.F("route", routePattern(r)),
				observability.F("panic", fmt.Sprint(rec)),
			)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

// decodeJSON reads one JSON object. An empty body decodes to the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return application.NewValidation("malformed JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// list keeps empty collections encoded as [] rather than null.
func list[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
