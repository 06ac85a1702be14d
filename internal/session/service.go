package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	kafkax "github.com/kapehan/pos-backend/internal/kafka"
)

const (
	TopicSessionEvents  = "pos.session.events"
	EventSessionStarted = "SessionStarted"
	EventSessionClosed  = "SessionClosed"
)

type Store interface {
	Active(ctx context.Context, cashier string) (Session, error)
	Start(ctx context.Context, cashier string, initialCash decimal.Decimal) (Session, error)
	Close(ctx context.Context, sessionID int64, counted decimal.Decimal) (Tally, error)
}

type EventPublisher interface {
	PublishEvent(key string, env kafkax.Envelope)
}

type Service struct {
	Store       Store
	Events      EventPublisher
	ServiceName string
	Log         *slog.Logger
}

type CloseRequest struct {
	SessionID  int64          `json:"sessionId"`
	CashCounts map[string]int `json:"cashCounts"`
}

type SessionStartedPayload struct {
	SessionID   int64  `json:"session_id"`
	CashierName string `json:"cashier_name"`
	InitialCash string `json:"initial_cash"`
}

type SessionClosedPayload struct {
	SessionID   int64  `json:"session_id"`
	CashierName string `json:"cashier_name"`
	ClosingCash string `json:"closing_cash"`
	CashSales   string `json:"cash_sales_at_close"`
}

func (s *Service) Status(ctx context.Context, cashier string) (StatusView, error) {
	if strings.TrimSpace(cashier) == "" {
		return StatusView{}, fmt.Errorf("%w: cashier_name is required", ErrInvalidInput)
	}
	sess, err := s.Store.Active(ctx, cashier)
	if errors.Is(err, ErrNotFound) {
		return StatusView{CashierName: cashier}, nil
	}
	if err != nil {
		return StatusView{}, err
	}
	return StatusView{HasActiveSession: true, CashierName: cashier, Session: &sess}, nil
}

// Start opens a session for cashier. A second start while one is Active
// fails with ErrActiveSession.
func (s *Service) Start(ctx context.Context, cashier string, initialCash decimal.Decimal) (Session, error) {
	if strings.TrimSpace(cashier) == "" {
		return Session{}, fmt.Errorf("%w: username not found in authentication token", ErrInvalidInput)
	}
	if initialCash.IsNegative() {
		return Session{}, fmt.Errorf("%w: initial cash amount cannot be negative", ErrInvalidInput)
	}
	sess, err := s.Store.Start(ctx, cashier, initialCash)
	if err != nil {
		return Session{}, err
	}
	s.Log.Info("session started", "session_id", sess.ID, "cashier", cashier)
	s.publish(sess.ID, EventSessionStarted, SessionStartedPayload{
		SessionID: sess.ID, CashierName: cashier, InitialCash: initialCash.StringFixed(2),
	})
	return sess, nil
}

// Close tallies the counted cash and closes the session, persisting the
// counted figure next to the expected cash sales.
func (s *Service) Close(ctx context.Context, req CloseRequest) (Tally, error) {
	if req.SessionID <= 0 {
		return Tally{}, fmt.Errorf("%w: sessionId must be positive", ErrInvalidInput)
	}
	counted, err := CountCash(req.CashCounts)
	if err != nil {
		return Tally{}, err
	}
	t, err := s.Store.Close(ctx, req.SessionID, counted)
	if err != nil {
		return Tally{}, err
	}
	s.Log.Info("session closed", "session_id", t.SessionID, "cashier", t.CashierName,
		"closing_cash", t.Counted.StringFixed(2), "cash_sales", t.Expected.StringFixed(2))
	s.publish(t.SessionID, EventSessionClosed, SessionClosedPayload{
		SessionID: t.SessionID, CashierName: t.CashierName,
		ClosingCash: t.Counted.StringFixed(2), CashSales: t.Expected.StringFixed(2),
	})
	return t, nil
}

func (s *Service) publish(sessionID int64, eventType string, payload any) {
	if s.Events == nil {
		return
	}
	key := fmt.Sprintf("session-%d", sessionID)
	s.Events.PublishEvent(key, kafkax.NewEnvelope(eventType, s.ServiceName, key, payload))
}
