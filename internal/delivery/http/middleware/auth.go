package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal returns a context carrying the authenticated caller.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated caller, if present.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*domain.Principal)
	return p, ok && p != nil
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", false
	}
	return p.UserID, true
}

// bearerToken reads the token from the Authorization header. When allowQuery
// is set and the header is absent, the token query parameter is used instead.
func bearerToken(r *http.Request, allowQuery bool) (string, string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		if allowQuery {
			if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
				return t, ""
			}
		}
		return "", "missing authorization header"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", "invalid authorization format"
	}
	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", "missing token"
	}
	return token, ""
}

// RequireAuth returns a wrapper that resolves the bearer token to an active
// principal and stores it in the request context. Missing or invalid tokens get
// 401; disabled accounts get 403. When roles are given, callers with any other
// role get 403.
func RequireAuth(authn domain.Authenticator, logger *slog.Logger, roles ...domain.Role) func(http.HandlerFunc) http.HandlerFunc {
	return requireAuth(authn, logger, false, roles)
}

// RequireAuthQuery is RequireAuth that also accepts ?token= for clients that
// cannot set headers, such as browser WebSocket upgrades.
func RequireAuthQuery(authn domain.Authenticator, logger *slog.Logger, roles ...domain.Role) func(http.HandlerFunc) http.HandlerFunc {
	return requireAuth(authn, logger, true, roles)
}

func requireAuth(authn domain.Authenticator, logger *slog.Logger, allowQuery bool, roles []domain.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r, allowQuery)
			if problem != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, problem)
				return
			}
			p, err := authn.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, domain.ErrAccountDisabled):
				h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "account is disabled")
				return
			case errors.Is(err, domain.ErrInvalidCredentials):
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			case err != nil:
				logger.ErrorContext(r.Context(), "authenticate failed", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal server error")
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, p.Role) {
				h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "insufficient role")
				return
			}
			next(w, r.WithContext(WithPrincipal(r.Context(), p)))
		}
	}
}
