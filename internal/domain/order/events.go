package order

import "time"

// OrderPaidEvent is emitted once, by the request that moved the order to paid.
type OrderPaidEvent struct {
	OrderID       string
	BookID        string
	Customer      string
	SellerEmail   string
	Name          string
	Price         float64
	Quantity      int
	TransactionID string
	OccurredAt    time.Time
}

func (OrderPaidEvent) EventName() string { return "order.paid" }

func NewOrderPaidEvent(o *Order) OrderPaidEvent {
	return OrderPaidEvent{
		OrderID:       o.ID,
		BookID:        o.BookID,
		Customer:      o.Customer,
		SellerEmail:   o.Seller.Email,
		Name:          o.Name,
		Price:         o.Price,
		Quantity:      o.Quantity,
		TransactionID: o.TransactionID,
		OccurredAt:    time.Now().UTC(),
	}
}
