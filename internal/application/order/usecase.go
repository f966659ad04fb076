package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
)

// CreateOrderUseCase places a pending, unpaid order for a catalog book.
// The book's name, image, price and seller are snapshotted onto the order.
type CreateOrderUseCase struct {
	repo        domain.Repository
	books       dombook.Repository
	idGenerator IDGenerator
	now         Clock
	tel         observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewCreateOrderUseCase(
	repo domain.Repository,
	books dombook.Repository,
	idGen IDGenerator,
	now Clock,
	tel observability.Observability,
) *CreateOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if now == nil {
		now = systemClock
	}
	return &CreateOrderUseCase{
		repo:         repo,
		books:        books,
		idGenerator:  idGen,
		now:          now,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

type CreateOrderInput struct {
	Customer string
	BookID   string
	// Quantity defaults to 1 when zero.
	Quantity int
}

type CreateOrderResult struct {
	OrderID string
	Status  domain.Status
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *CreateOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseOrderCreate))

	var orderID string

	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.String("order.book_id", cmd.BookID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderCreate),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderCreate),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if strings.TrimSpace(cmd.Customer) == "" {
		outcome, statusText = "error", "CUSTOMER_REQUIRED"
		return nil, application.ErrUnauthorized
	}
	if strings.TrimSpace(cmd.BookID) == "" {
		outcome, statusText = "error", "BOOK_ID_REQUIRED"
		return nil, application.NewValidation("bookId is required")
	}
	if cmd.Quantity == 0 {
		cmd.Quantity = 1
	}
	if cmd.Quantity < 0 {
		outcome, statusText = "error", "QUANTITY_INVALID"
		return nil, application.NewValidation("quantity must be greater than zero")
	}

	b, berr := uc.books.Get(ctx, cmd.BookID)
	if berr != nil {
		outcome, statusText = "error", "BOOK_LOAD_FAILED"
		return nil, application.WrapRepositoryError(berr, dombook.ErrNotFound)
	}

	orderID = uc.idGenerator.NewID()
	entity, derr := domain.New(orderID, cmd.Customer, b.ID, domain.Snapshot{
		Name:   b.Name,
		Image:  b.Image,
		Price:  b.Price,
		Seller: b.Seller,
	}, cmd.Quantity, uc.now())
	if derr != nil {
		outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("%w: %w", application.ErrValidation, derr)
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}
	if err := uc.repo.Insert(ctx, entity); err != nil {
		outcome, statusText = "error", "REPO_INSERT_FAILED"
		return nil, application.WrapRepositoryError(err)
	}

	span.SetAttributes(attribute.String("order.status", string(entity.Status)))
	span.AddEvent("order.created", trace.WithAttributes(attribute.String("order.id", orderID)))

	return &CreateOrderResult{OrderID: entity.ID, Status: entity.Status}, nil
}
