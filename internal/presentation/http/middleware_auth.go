package httppresentation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	"github.com/Zhima-Mochi/bookmarket/internal/domain/identity"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"
)

type callerKey struct{}

func withCaller(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, callerKey{}, email)
}

// callerFrom returns the verified, normalized email of the request's caller.
func callerFrom(ctx context.Context) string {
	email, _ := ctx.Value(callerKey{}).(string)
	return email
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// authenticate verifies the bearer credential and stores the caller email.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.writeDomainError(w, r, application.ErrUnauthorized)
			return
		}
		id, err := h.verifier.Verify(r.Context(), token)
		if err != nil {
			logctx.FromOr(r.Context(), h.log).Warn("auth_rejected", observability.F("error", err.Error()))
			h.writeDomainError(w, r, identity.ErrInvalidCredential)
			return
		}
		email := domaccount.NormalizeEmail(id.Email)
		if email == "" {
			h.writeDomainError(w, r, identity.ErrInvalidCredential)
			return
		}
		ctx := withCaller(r.Context(), email)
		ctx = logctx.Enrich(ctx, observability.F("caller", email))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits callers whose stored role is one of roles. A caller
// without an account is forbidden.
func RequireRole(resolver RoleResolver, log observability.Logger, roles ...domaccount.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := callerFrom(r.Context())
			if caller == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized access")
				return
			}
			role, err := resolver.ResolveRole(r.Context(), caller)
			switch {
			case errors.Is(err, domaccount.ErrNotFound):
				writeError(w, http.StatusForbidden, "forbidden access")
				return
			case err != nil:
				logctx.FromOr(r.Context(), log).Error("role_resolve_failed", observability.F("error", err.Error()))
				writeError(w, http.StatusInternalServerError, msgInternal)
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden access")
		})
	}
}
