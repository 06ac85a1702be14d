package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kapehan/pos-backend/internal/auth"
	"github.com/kapehan/pos-backend/internal/session"
)

type SessionService interface {
	Status(ctx context.Context, cashier string) (session.StatusView, error)
	Start(ctx context.Context, cashier string, initialCash decimal.Decimal) (session.Session, error)
	Close(ctx context.Context, req session.CloseRequest) (session.Tally, error)
}

type SessionHandler struct {
	Sessions SessionService
	Auth     Verifier
	Log      *slog.Logger
}

type startSessionResponse struct {
	Message   string `json:"message"`
	SessionID int64  `json:"sessionId"`
}

type closeSessionResponse struct {
	Message          string  `json:"message"`
	SessionID        int64   `json:"sessionId"`
	ClosingCash      float64 `json:"closingCash"`
	CashSalesAtClose float64 `json:"cashSalesAtClose"`
}

func (h *SessionHandler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(h.Auth, h.Log))
		r.With(Require(auth.OpSessionStatus)).Get("/session/status", h.status)
		r.With(Require(auth.OpSessionStart)).Post("/session/start", h.start)
		r.With(Require(auth.OpSessionClose)).Post("/auth/cash_tally/close_session", h.closeSession)
	})
}

func (h *SessionHandler) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Sessions.Status(ctx, r.URL.Query().Get("cashier_name"))
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to check cashier session status.")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *SessionHandler) start(w http.ResponseWriter, r *http.Request) {
	// PostFormValue parses urlencoded and multipart bodies alike
	initial, err := decimal.NewFromString(r.PostFormValue("initial_cash"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "initial_cash must be a number")
		return
	}
	caller := identity(r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Sessions.Start(ctx, caller.Username, initial)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to start cashier session.")
		return
	}
	writeJSON(w, http.StatusCreated, startSessionResponse{
		Message:   fmt.Sprintf("Cashier session for '%s' started successfully.", caller.Username),
		SessionID: s.ID,
	})
}

func (h *SessionHandler) closeSession(w http.ResponseWriter, r *http.Request) {
	var req session.CloseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	t, err := h.Sessions.Close(ctx, req)
	if err != nil {
		writeDomainError(w, h.Log, err, "An error occurred while closing the session.")
		return
	}
	writeJSON(w, http.StatusOK, closeSessionResponse{
		Message:          "Session closed successfully",
		SessionID:        t.SessionID,
		ClosingCash:      t.Counted.InexactFloat64(),
		CashSalesAtClose: t.Expected.InexactFloat64(),
	})
}
