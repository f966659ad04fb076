package httppresentation

import (
	"errors"
	"net/http"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	apppayment "github.com/Zhima-Mochi/bookmarket/internal/application/payment"
	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	"github.com/Zhima-Mochi/bookmarket/internal/domain/identity"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	dompay "github.com/Zhima-Mochi/bookmarket/internal/domain/payment"
	"github.com/Zhima-Mochi/bookmarket/internal/domain/sellerrequest"
	domwishlist "github.com/Zhima-Mochi/bookmarket/internal/domain/wishlist"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"
)

const msgInternal = "internal server error"

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// statusFor maps an error to its HTTP status. ok is false for errors that
// must not be shown to the client.
func statusFor(err error) (status int, ok bool) {
	switch {
	case errors.Is(err, application.ErrUnauthorized),
		errors.Is(err, identity.ErrInvalidCredential):
		return http.StatusUnauthorized, true
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, true
	case errors.Is(err, application.ErrValidation),
		errors.Is(err, dombook.ErrInvalidStatus),
		errors.Is(err, domorder.ErrInvalidStatus),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrInvalidAmount),
		errors.Is(err, domaccount.ErrInvalidRole):
		return http.StatusBadRequest, true
	// checked before the generic conflict below: it wraps domorder.ErrConflict
	case errors.Is(err, apppayment.ErrCannotUpdate):
		return http.StatusBadRequest, true
	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dombook.ErrNotFound),
		errors.Is(err, domaccount.ErrNotFound),
		errors.Is(err, sellerrequest.ErrNotFound),
		errors.Is(err, domwishlist.ErrNotFound),
		errors.Is(err, dompay.ErrSessionNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, domorder.ErrConflict),
		errors.Is(err, domaccount.ErrConflict),
		errors.Is(err, sellerrequest.ErrConflict):
		return http.StatusConflict, true
	}
	return http.StatusInternalServerError, false
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, ok := statusFor(err)
	if !ok {
		logctx.FromOr(r.Context(), h.log).Error("http_request_failed",
			observability.F("route", routePattern(r)),
			observability.F("error", err.Error()),
		)
		writeError(w, status, msgInternal)
		return
	}
	msg := err.Error()
	if status == http.StatusUnauthorized {
		msg = "unauthorized access"
	}
	writeError(w, status, msg)
}
