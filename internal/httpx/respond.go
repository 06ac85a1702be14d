package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kapehan/pos-backend/internal/auth"
	"github.com/kapehan/pos-backend/internal/sales"
	"github.com/kapehan/pos-backend/internal/session"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

// writeDomainError maps service errors to HTTP statuses. Anything unexpected
// is logged with details and reported to the caller as a generic failure.
func writeDomainError(w http.ResponseWriter, log *slog.Logger, err error, generic string) {
	var up *auth.UpstreamError
	switch {
	case errors.As(err, &up):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, up.Status, "Invalid token or user not found: "+up.Body)
	case errors.Is(err, auth.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Could not connect to the authentication service.")
	case errors.Is(err, sales.ErrInvalidInput), errors.Is(err, session.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sales.ErrNotFound), errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sales.ErrInvalidTransition), errors.Is(err, session.ErrActiveSession):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error(generic, "err", err)
		writeError(w, http.StatusInternalServerError, generic)
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
