package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kapehan/pos-backend/internal/auth"
)

type Verifier interface {
	Me(ctx context.Context, token string) (auth.Identity, error)
}

// Authenticate resolves the bearer token once per request and stores the
// caller's identity in the request context.
func Authenticate(v Verifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			token := strings.TrimSpace(header[7:])
			id, err := v.Me(r.Context(), token)
			if err != nil {
				writeDomainError(w, log, err, "Failed to verify credentials.")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// Require rejects callers whose role may not perform op, before any data access.
func Require(op auth.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if !auth.Allowed(op, id.Role) {
				writeError(w, http.StatusForbidden, "Permission denied.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
