package order

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	domain "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseOrderCancel   = "order.cancel"
	useCaseOrderRelabel  = "order.set_status"
	useCaseOrderDelete   = "order.delete"
	useCaseOrderList     = "order.list"
	useCaseOrderInvoices = "order.invoices"
)

// Service covers the order operations that follow creation. Every state
// change goes through a conditional store update; nothing here reads an
// order and writes it back.
type Service struct {
	repo domain.Repository
	in   application.Instrument
}

func NewService(repo domain.Repository, tel observability.Observability) *Service {
	return &Service{repo: repo, in: application.NewInstrument(tel, orderService)}
}

// Cancel moves the caller's pending, unpaid order to cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, caller string) (err error) {
	ctx, run := s.in.Begin(ctx, useCaseOrderCancel, "CancelOrder", attribute.String("order.id", orderID))
	defer func() { run.End(ctx, err) }()

	if strings.TrimSpace(orderID) == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return application.NewValidation("order id is required")
	}
	ok, err := s.repo.Cancel(ctx, orderID, caller)
	if err != nil {
		run.Fail("REPO_CANCEL_FAILED")
		return application.WrapRepositoryError(err)
	}
	if !ok {
		run.Fail("NOT_CANCELLABLE")
		return domain.ErrConflict
	}
	return nil
}

// SetStatus relabels an order of the calling seller. Cancelled and paid
// orders are never relabelled, and paymentStatus is never touched.
func (s *Service) SetStatus(ctx context.Context, orderID, seller, status string) (err error) {
	ctx, run := s.in.Begin(ctx, useCaseOrderRelabel, "SetOrderStatus",
		attribute.String("order.id", orderID),
		attribute.String("order.target_status", status),
	)
	defer func() { run.End(ctx, err) }()

	target, perr := domain.ParseStatus(status)
	if perr != nil {
		run.Fail("STATUS_INVALID")
		return application.NewValidation("unknown order status")
	}
	if !slices.Contains(domain.RelabelTargets(), target) {
		run.Fail("STATUS_NOT_SETTABLE")
		return application.NewValidation("order status cannot be set to " + string(target))
	}
	if err := s.checkSeller(ctx, orderID, seller); err != nil {
		run.Fail("SELLER_CHECK_FAILED")
		return err
	}
	ok, err := s.repo.Relabel(ctx, orderID, target)
	if err != nil {
		run.Fail("REPO_RELABEL_FAILED")
		return application.WrapRepositoryError(err)
	}
	if !ok {
		run.Fail("NOT_RELABELLABLE")
		return domain.ErrConflict
	}
	return nil
}

// Delete removes an order listed by the calling seller.
func (s *Service) Delete(ctx context.Context, orderID, seller string) (err error) {
	ctx, run := s.in.Begin(ctx, useCaseOrderDelete, "DeleteOrder", attribute.String("order.id", orderID))
	defer func() { run.End(ctx, err) }()

	if err := s.checkSeller(ctx, orderID, seller); err != nil {
		run.Fail("SELLER_CHECK_FAILED")
		return err
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		run.Fail("REPO_DELETE_FAILED")
		return application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	return nil
}

// checkSeller reads the immutable seller snapshot only; it guards access, not state.
func (s *Service) checkSeller(ctx context.Context, orderID, seller string) error {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return application.WrapRepositoryError(err, domain.ErrNotFound)
	}
	if !strings.EqualFold(o.Seller.Email, seller) {
		return application.NewForbidden("order belongs to another seller")
	}
	return nil
}

// ListByCustomer backs "my orders".
func (s *Service) ListByCustomer(ctx context.Context, customer string) ([]*domain.Order, error) {
	return s.list(ctx, domain.Filter{Customer: customer})
}

// ListBySeller backs "manage orders".
func (s *Service) ListBySeller(ctx context.Context, seller string) ([]*domain.Order, error) {
	return s.list(ctx, domain.Filter{SellerEmail: seller})
}

func (s *Service) list(ctx context.Context, f domain.Filter) (_ []*domain.Order, err error) {
	ctx, run := s.in.Begin(ctx, useCaseOrderList, "ListOrders")
	defer func() { run.End(ctx, err) }()

	orders, err := s.repo.List(ctx, f)
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	run.Annotate(observability.F("count", len(orders)))
	return orders, nil
}

type Invoice struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	Price         float64   `json:"price"`
	Name          string    `json:"name"`
	PaidAt        time.Time `json:"paidAt"`
}

// Invoices lists the customer's paid orders, most recently paid first.
func (s *Service) Invoices(ctx context.Context, customer string) (_ []Invoice, err error) {
	ctx, run := s.in.Begin(ctx, useCaseOrderInvoices, "ListInvoices")
	defer func() { run.End(ctx, err) }()

	orders, err := s.repo.List(ctx, domain.Filter{Customer: customer, PaymentStatus: domain.PaymentPaid})
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, application.WrapRepositoryError(err)
	}
	out := make([]Invoice, 0, len(orders))
	for _, o := range orders {
		inv := Invoice{ID: o.ID, TransactionID: o.TransactionID, Price: o.Price, Name: o.Name}
		if o.PaidAt != nil {
			inv.PaidAt = *o.PaidAt
		}
		out = append(out, inv)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}
