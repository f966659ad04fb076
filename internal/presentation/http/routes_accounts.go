package httppresentation

import (
	"net/http"

	appaccount "github.com/Zhima-Mochi/bookmarket/internal/application/account"

	"github.com/go-chi/chi/v5"
)

// loginRequest carries profile details only; the email is the verified caller.
type loginRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	a, err := h.svc.Accounts.Login(r.Context(), appaccount.LoginInput{
		Email: callerFrom(r.Context()),
		Name:  req.Name,
		Image: req.Image,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type roleResponse struct {
	Role string `json:"role"`
}

func (h *Handler) handleRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.svc.Accounts.ResolveRole(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roleResponse{Role: role.String()})
}

func (h *Handler) handleBecomeSeller(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Accounts.RequestSeller(r.Context(), callerFrom(r.Context())); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Success: true, Message: "seller request received"})
}

func (h *Handler) handleSellerRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.Accounts.SellerRequests(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(reqs))
}

func (h *Handler) handleRejectSeller(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Accounts.RejectSeller(r.Context(), chi.URLParam(r, "email")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "seller request rejected"})
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Accounts.Users(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(users))
}

type updateRoleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.svc.Accounts.UpdateRole(r.Context(), req.Email, req.Role); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "role updated"})
}

func (h *Handler) handleAddWishlist(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Wishlists.Add(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleMyWishlists(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Wishlists.List(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items))
}

func (h *Handler) handleRemoveWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Wishlists.Remove(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "wishlist item removed"})
}

func (h *Handler) handleAdminStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics.Admin(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleLibrarianStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics.Librarian(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleCustomerStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics.Customer(r.Context(), callerFrom(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
