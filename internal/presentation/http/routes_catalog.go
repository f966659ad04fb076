package httppresentation

import (
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	appcatalog "github.com/Zhima-Mochi/bookmarket/internal/application/catalog"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleBrowseBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	books, err := h.svc.Catalog.Browse(r.Context(), appcatalog.Query{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
		Order:  q.Get("order"),
		Limit:  q.Get("limit"),
		Skip:   q.Get("skip"),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(books))
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleLatestBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.Catalog.Latest(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(books))
}

type createBookRequest struct {
	Name        string  `json:"name"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Status      string  `json:"status"`
	Seller      struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"seller"`
}

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	b, err := h.svc.Catalog.Create(r.Context(), appcatalog.CreateInput{
		Seller: dombook.Seller{
			Email: callerFrom(r.Context()),
			Name:  req.Seller.Name,
			Image: req.Seller.Image,
		},
		Name:        req.Name,
		Author:      req.Author,
		Description: req.Description,
		Image:       req.Image,
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Status:      req.Status,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

type updateBookRequest struct {
	Name        *string         `json:"name"`
	Author      *string         `json:"author"`
	Description *string         `json:"description"`
	Image       *string         `json:"image"`
	Category    *string         `json:"category"`
	Price       *float64        `json:"price"`
	Quantity    *int            `json:"quantity"`
	Status      *dombook.Status `json:"status"`
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var req updateBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	err := h.svc.Catalog.Update(r.Context(), chi.URLParam(r, "id"), callerFrom(r.Context()), dombook.Patch(req))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "book updated"})
}

func (h *Handler) handleMyInventory(w http.ResponseWriter, r *http.Request) {
	seller := strings.ToLower(chi.URLParam(r, "email"))
	if seller != callerFrom(r.Context()) {
		h.writeDomainError(w, r, application.NewForbidden("inventory of another seller"))
		return
	}
	books, err := h.svc.Catalog.Inventory(r.Context(), seller)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(books))
}

func (h *Handler) handleSetBookStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.svc.Catalog.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "book status updated"})
}

func (h *Handler) handleManageBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.Catalog.All(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(books))
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "book deleted"})
}
