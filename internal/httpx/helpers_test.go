package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kapehan/pos-backend/internal/auth"
)

// tokenVerifier resolves tokens from a fixed table; unknown tokens are
// rejected the way the auth service rejects them.
type tokenVerifier struct {
	ids  map[string]auth.Identity
	down bool
}

func (v *tokenVerifier) Me(ctx context.Context, token string) (auth.Identity, error) {
	if v.down {
		return auth.Identity{}, auth.ErrUnavailable
	}
	id, ok := v.ids[token]
	if !ok {
		return auth.Identity{}, &auth.UpstreamError{Status: http.StatusUnauthorized, Body: "invalid token"}
	}
	id.Token = token
	return id, nil
}

func newVerifier() *tokenVerifier {
	return &tokenVerifier{ids: map[string]auth.Identity{
		"admin-token":   {Username: "root", Role: auth.RoleAdmin},
		"manager-token": {Username: "boss", Role: auth.RoleManager},
		"staff-token":   {Username: "sam", Role: auth.RoleStaff},
		"cashier-token": {Username: "jdoe", Role: auth.RoleCashier},
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func do(t *testing.T, h http.Handler, method, path, token, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newTestRouter(register func(chi.Router)) *chi.Mux {
	r := NewRouter([]string{"http://localhost:3000"}, "test")
	register(r)
	return r
}
