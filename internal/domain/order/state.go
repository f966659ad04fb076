package order

import "time"

// OrderState implements the state pattern for order lifecycle transitions.
// pending is the only state with outgoing edges; cancelled and paid are terminal.
type OrderState interface {
	Status() Status
	OnCancel(o *Order) (OrderState, error)
	OnPaymentConfirmed(o *Order, transactionID string, at time.Time) (OrderState, error)
	OnRelabel(o *Order, target Status) (OrderState, error)
}

// StateOf returns the state object for the order's persisted fields.
func StateOf(o *Order) OrderState {
	switch {
	case o.PaymentStatus == PaymentPaid || o.Status == StatusPaid:
		return paidState{}
	case o.Status == StatusCancelled:
		return cancelledState{}
	default:
		return pendingState{}
	}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnCancel(o *Order) (OrderState, error) {
	o.Status = StatusCancelled
	return cancelledState{}, nil
}

func (pendingState) OnPaymentConfirmed(o *Order, transactionID string, at time.Time) (OrderState, error) {
	paidAt := at.UTC()
	o.Status = StatusPaid
	o.PaymentStatus = PaymentPaid
	o.TransactionID = transactionID
	o.PaidAt = &paidAt
	return paidState{}, nil
}

// OnRelabel lets staff move a pending order to pending or cancelled.
// paid is reachable only through a confirmed payment.
func (pendingState) OnRelabel(o *Order, target Status) (OrderState, error) {
	switch target {
	case StatusPending:
		return pendingState{}, nil
	case StatusCancelled:
		o.Status = StatusCancelled
		return cancelledState{}, nil
	}
	return nil, ErrInvalidStateTransition
}

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }

func (cancelledState) OnCancel(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (cancelledState) OnPaymentConfirmed(*Order, string, time.Time) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (cancelledState) OnRelabel(*Order, Status) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

type paidState struct{}

func (paidState) Status() Status { return StatusPaid }

func (paidState) OnCancel(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (paidState) OnPaymentConfirmed(*Order, string, time.Time) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (paidState) OnRelabel(*Order, Status) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

// Cancel moves a pending, unpaid order to cancelled.
func (o *Order) Cancel() error {
	_, err := StateOf(o).OnCancel(o)
	return err
}

// ConfirmPayment records the provider transaction and moves the order to paid.
func (o *Order) ConfirmPayment(transactionID string, at time.Time) error {
	_, err := StateOf(o).OnPaymentConfirmed(o, transactionID, at)
	return err
}

// Relabel applies a staff status change. It never touches paymentStatus.
func (o *Order) Relabel(target Status) error {
	_, err := StateOf(o).OnRelabel(o, target)
	return err
}

// RelabelTargets lists the statuses staff may set by hand.
func RelabelTargets() []Status {
	return []Status{StatusPending, StatusCancelled}
}
