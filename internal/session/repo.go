package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kapehan/pos-backend/internal/postgres"
)

type Repo struct{ DB postgres.DB }

func (r *Repo) Active(ctx context.Context, cashier string) (Session, error) {
	s := Session{CashierName: cashier, Status: StatusActive}
	err := r.DB.QueryRow(ctx, `
		SELECT session_id, initial_cash, session_start
		FROM cashier_sessions
		WHERE cashier_name=$1 AND status='Active'`, cashier).Scan(&s.ID, &s.InitialCash, &s.Start)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

// Start checks for an Active session and inserts a new one in a serializable
// transaction; the partial unique index on Active sessions backs it up, so
// concurrent starts for one cashier yield exactly one session.
func (r *Repo) Start(ctx context.Context, cashier string, initialCash decimal.Decimal) (Session, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return Session{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM cashier_sessions WHERE cashier_name=$1 AND status='Active')`,
		cashier).Scan(&exists); err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, ErrActiveSession
	}

	s := Session{CashierName: cashier, Status: StatusActive, InitialCash: initialCash}
	err = tx.QueryRow(ctx, `
		INSERT INTO cashier_sessions(cashier_name, status, initial_cash, session_start)
		VALUES ($1, 'Active', $2, NOW())
		RETURNING session_id, session_start`, cashier, initialCash).Scan(&s.ID, &s.Start)
	if err != nil {
		if postgres.IsUniqueViolation(err) || isSerializationFailure(err) {
			return Session{}, ErrActiveSession
		}
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		if postgres.IsUniqueViolation(err) || isSerializationFailure(err) {
			return Session{}, ErrActiveSession
		}
		return Session{}, err
	}
	return s, nil
}

// Close locks the Active session, sums its completed cash sales since the
// session started, and stamps both figures while flipping it to Closed.
func (r *Repo) Close(ctx context.Context, sessionID int64, counted decimal.Decimal) (Tally, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Tally{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var s Session
	err = tx.QueryRow(ctx, `
		SELECT session_id, cashier_name, initial_cash, session_start
		FROM cashier_sessions
		WHERE session_id=$1 AND status='Active'
		FOR UPDATE`, sessionID).Scan(&s.ID, &s.CashierName, &s.InitialCash, &s.Start)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tally{}, ErrNotFound
	}
	if err != nil {
		return Tally{}, err
	}

	t := Tally{SessionID: s.ID, CashierName: s.CashierName, Counted: counted}
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(si.unit_price * si.quantity), 0)
		FROM sales AS s
		JOIN sale_items AS si ON s.sale_id = si.sale_id
		WHERE s.cashier_name = $1
		  AND s.payment_method = 'Cash'
		  AND s.status = 'completed'
		  AND s.created_at >= $2`, s.CashierName, s.Start).Scan(&t.Expected); err != nil {
		return Tally{}, fmt.Errorf("sum cash sales: %w", err)
	}

	if err := tx.QueryRow(ctx, `
		UPDATE cashier_sessions
		SET status='Closed', session_end=NOW(), closing_cash=$2, cash_sales_at_close=$3
		WHERE session_id=$1
		RETURNING session_end`, sessionID, counted, t.Expected).Scan(&t.ClosedAt); err != nil {
		return Tally{}, fmt.Errorf("close session: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Tally{}, err
	}
	return t, nil
}

func isSerializationFailure(err error) bool {
	return postgres.HasCode(err, "40001")
}
