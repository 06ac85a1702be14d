package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/kapehan/pos-backend/internal/kafka"
)

// memStore mirrors the repo's rules: one Active session per cashier, close
// only Active sessions.
type memStore struct {
	sessions  map[int64]*Session
	nextID    int64
	cashSales map[string]decimal.Decimal
}

func newMemStore() *memStore {
	return &memStore{sessions: map[int64]*Session{}, cashSales: map[string]decimal.Decimal{}}
}

func (m *memStore) Active(ctx context.Context, cashier string) (Session, error) {
	for _, s := range m.sessions {
		if s.CashierName == cashier && s.Status == StatusActive {
			return *s, nil
		}
	}
	return Session{}, ErrNotFound
}

func (m *memStore) Start(ctx context.Context, cashier string, initial decimal.Decimal) (Session, error) {
	if _, err := m.Active(ctx, cashier); err == nil {
		return Session{}, ErrActiveSession
	}
	m.nextID++
	s := &Session{ID: m.nextID, CashierName: cashier, Status: StatusActive, InitialCash: initial, Start: time.Now()}
	m.sessions[s.ID] = s
	return *s, nil
}

func (m *memStore) Close(ctx context.Context, id int64, counted decimal.Decimal) (Tally, error) {
	s, ok := m.sessions[id]
	if !ok || s.Status != StatusActive {
		return Tally{}, ErrNotFound
	}
	expected := m.cashSales[s.CashierName]
	now := time.Now()
	s.Status = StatusClosed
	s.End = &now
	s.ClosingCash = decimal.NullDecimal{Decimal: counted, Valid: true}
	s.CashSalesAtClose = decimal.NullDecimal{Decimal: expected, Valid: true}
	return Tally{SessionID: id, CashierName: s.CashierName, Counted: counted, Expected: expected, ClosedAt: now}, nil
}

type fakeEvents struct{ envs []kafkax.Envelope }

func (f *fakeEvents) PublishEvent(key string, env kafkax.Envelope) { f.envs = append(f.envs, env) }

func newTestService() (*Service, *memStore, *fakeEvents) {
	store := newMemStore()
	ev := &fakeEvents{}
	return &Service{
		Store:       store,
		Events:      ev,
		ServiceName: "pos-session-test",
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, store, ev
}

func TestStart_ThenConflict(t *testing.T) {
	svc, _, ev := newTestService()
	ctx := context.Background()

	s, err := svc.Start(ctx, "jdoe", decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Greater(t, s.ID, int64(0))
	assert.Equal(t, StatusActive, s.Status)

	_, err = svc.Start(ctx, "jdoe", decimal.NewFromInt(500))
	assert.ErrorIs(t, err, ErrActiveSession)

	other, err := svc.Start(ctx, "amy", decimal.Zero)
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, other.ID)

	require.Len(t, ev.envs, 2)
	assert.Equal(t, EventSessionStarted, ev.envs[0].EventType)
}

func TestStart_Validation(t *testing.T) {
	svc, store, _ := newTestService()

	_, err := svc.Start(context.Background(), "jdoe", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Start(context.Background(), "", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, store.sessions)
}

func TestClose_TalliesCountedAndExpected(t *testing.T) {
	svc, store, ev := newTestService()
	ctx := context.Background()
	s, err := svc.Start(ctx, "jdoe", decimal.NewFromInt(1000))
	require.NoError(t, err)
	store.cashSales["jdoe"] = decimal.RequireFromString("735.50")

	tally, err := svc.Close(ctx, CloseRequest{
		SessionID:  s.ID,
		CashCounts: map[string]int{"bills500": 1, "bills100": 2, "coins10": 1, "stickers": 3},
	})
	require.NoError(t, err)
	assert.True(t, tally.Counted.Equal(decimal.NewFromInt(710)), tally.Counted.String())
	assert.True(t, tally.Expected.Equal(decimal.RequireFromString("735.50")))

	stored := store.sessions[s.ID]
	assert.Equal(t, StatusClosed, stored.Status)
	assert.NotNil(t, stored.End)
	assert.True(t, stored.ClosingCash.Decimal.Equal(decimal.NewFromInt(710)))

	require.Len(t, ev.envs, 2)
	assert.Equal(t, EventSessionClosed, ev.envs[1].EventType)

	// a new session may start once the old one is closed
	_, err = svc.Start(ctx, "jdoe", decimal.NewFromInt(1000))
	assert.NoError(t, err)
}

func TestClose_UnknownOrClosedSession(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Close(ctx, CloseRequest{SessionID: 99, CashCounts: map[string]int{"coins1": 1}})
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := svc.Start(ctx, "jdoe", decimal.Zero)
	require.NoError(t, err)
	_, err = svc.Close(ctx, CloseRequest{SessionID: s.ID, CashCounts: map[string]int{"coins1": 5}})
	require.NoError(t, err)

	_, err = svc.Close(ctx, CloseRequest{SessionID: s.ID, CashCounts: map[string]int{"coins1": 9}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, store.sessions[s.ID].ClosingCash.Decimal.Equal(decimal.NewFromInt(5)))
}

func TestClose_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Close(context.Background(), CloseRequest{SessionID: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Close(context.Background(), CloseRequest{SessionID: 1, CashCounts: map[string]int{"bills20": -2}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatus(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	v, err := svc.Status(ctx, "jdoe")
	require.NoError(t, err)
	assert.False(t, v.HasActiveSession)
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hasActiveSession":false,"cashierName":"jdoe"}`, string(b))

	s, err := svc.Start(ctx, "jdoe", decimal.RequireFromString("1500.50"))
	require.NoError(t, err)
	v, err = svc.Status(ctx, "jdoe")
	require.NoError(t, err)
	assert.True(t, v.HasActiveSession)

	b, err = json.Marshal(v)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, float64(s.ID), got["sessionId"])
	assert.Equal(t, 1500.5, got["initialCash"])
	assert.NotEmpty(t, got["sessionStart"])

	_, err = svc.Status(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
