package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/userdeck/userdeck/internal/platform/httpx"
	"github.com/userdeck/userdeck/internal/shared"
)

// BearerToken extracts the bearer token from a request, or "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Middleware resolves the bearer token to a principal and stores it in
// the request context. Requests without a valid token are refused with
// 401 before reaching any handler.
type Middleware struct {
	Store  *TokenStore
	Logger *slog.Logger
}

// RequirePrincipal guards a route subtree.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		principal, err := m.Store.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, shared.ErrTokenUnknown) && m.Logger != nil {
				m.Logger.Error("resolve token", slog.Any("error", err))
			}
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}
