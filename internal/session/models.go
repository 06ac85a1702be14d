package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive Status = "Active"
	StatusClosed Status = "Closed"
)

var (
	ErrNotFound      = errors.New("no active session found")
	ErrActiveSession = errors.New("an active session already exists for this cashier")
	ErrInvalidInput  = errors.New("invalid input")
)

type Session struct {
	ID          int64
	CashierName string
	Status      Status
	InitialCash decimal.Decimal
	Start       time.Time
	End         *time.Time
	// set on close
	ClosingCash      decimal.NullDecimal
	CashSalesAtClose decimal.NullDecimal
}

// Tally is the outcome of closing a session. Counted and Expected are kept
// side by side; the variance is left to reporting.
type Tally struct {
	SessionID   int64
	CashierName string
	Counted     decimal.Decimal
	Expected    decimal.Decimal
	ClosedAt    time.Time
}

// StatusView is the session-status response.
type StatusView struct {
	HasActiveSession bool
	CashierName      string
	Session          *Session
}

func (v StatusView) MarshalJSON() ([]byte, error) {
	if !v.HasActiveSession || v.Session == nil {
		return json.Marshal(struct {
			HasActiveSession bool   `json:"hasActiveSession"`
			CashierName      string `json:"cashierName"`
		}{false, v.CashierName})
	}
	return json.Marshal(struct {
		HasActiveSession bool    `json:"hasActiveSession"`
		CashierName      string  `json:"cashierName"`
		SessionID        int64   `json:"sessionId"`
		InitialCash      float64 `json:"initialCash"`
		SessionStart     string  `json:"sessionStart"`
	}{true, v.CashierName, v.Session.ID, v.Session.InitialCash.InexactFloat64(), v.Session.Start.Format(time.RFC3339)})
}
