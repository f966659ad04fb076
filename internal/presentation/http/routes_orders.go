package httppresentation

import (
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	apporder "github.com/Zhima-Mochi/bookmarket/internal/application/order"
	apppayment "github.com/Zhima-Mochi/bookmarket/internal/application/payment"

	"github.com/go-chi/chi/v5"
)

// createOrderRequest accepts the client's order body. Name, price and seller
// are read from the stored book, so any snapshot fields sent are ignored.
type createOrderRequest struct {
	BookID   string `json:"bookId"`
	Quantity int    `json:"quantity"`
}

type createOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	result, err := h.svc.CreateOrder.Execute(r.Context(), apporder.CreateOrderInput{
		Customer: callerFrom(r.Context()),
		BookID:   req.BookID,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		Success: true,
		Message: "order saved successfully",
		OrderID: result.OrderID,
	})
}

func (h *Handler) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.ListByCustomer(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(orders))
}

func (h *Handler) handleMyInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.Orders.Invoices(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(invoices))
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Orders.Cancel(r.Context(), chi.URLParam(r, "id"), callerFrom(r.Context())); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "order cancelled"})
}

func (h *Handler) handleManageOrders(w http.ResponseWriter, r *http.Request) {
	seller := strings.ToLower(chi.URLParam(r, "key"))
	if seller != callerFrom(r.Context()) {
		h.writeDomainError(w, r, application.NewForbidden("orders of another seller"))
		return
	}
	orders, err := h.svc.Orders.ListBySeller(r.Context(), seller)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(orders))
}

func (h *Handler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Orders.Delete(r.Context(), chi.URLParam(r, "key"), callerFrom(r.Context())); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "order deleted"})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.svc.Orders.SetStatus(r.Context(), chi.URLParam(r, "id"), callerFrom(r.Context()), req.Status); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "order status updated"})
}

type checkoutRequest struct {
	OrderID     string  `json:"orderId"`
	BookID      string  `json:"bookId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// handleCreateCheckoutSession opens a hosted checkout for the caller. The
// customer on the session is always the caller, whatever the body says.
func (h *Handler) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	result, err := h.svc.Checkout.Execute(r.Context(), apppayment.InitiateCheckoutInput{
		OrderID:       req.OrderID,
		BookID:        req.BookID,
		Name:          req.Name,
		Description:   req.Description,
		Image:         req.Image,
		Price:         req.Price,
		Quantity:      req.Quantity,
		CustomerEmail: callerFrom(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{URL: result.URL})
}

type paymentSuccessRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	var req paymentSuccessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	result, err := h.svc.Confirm.Execute(r.Context(), apppayment.ConfirmPaymentInput{
		SessionID: req.SessionID,
		Caller:    callerFrom(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
