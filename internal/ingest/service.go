package ingest

import (
	"context"
	"errors"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/kapehan/pos-backend/internal/kafka"
	"github.com/kapehan/pos-backend/internal/sales"
)

type OrderCreator interface {
	CreateOnlineOrder(ctx context.Context, o sales.OnlineOrder) (saleID int64, existed bool, err error)
}

type Deduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// Service stores online orders arriving on the online.order.placed topic.
type Service struct {
	Orders OrderCreator
	Dedup  Deduper
	Log    *slog.Logger
}

// HandleOnlineOrderPlaced is installed as the consumer handler. Invalid
// orders are logged and committed. Storage failures release the dedup claim
// and are returned, so the consumer retries the same message before it
// commits anything later in the partition.
func (s *Service) HandleOnlineOrderPlaced(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		s.Log.Error("drop undecodable message", "offset", m.Offset, "err", err)
		return nil
	}
	if env.EventType != sales.EventOnlineOrderPlaced {
		return nil
	}

	first, err := s.Dedup.Claim(ctx, env.EventID)
	if err != nil {
		s.Log.Warn("dedup unavailable, relying on db idempotency", "event_id", env.EventID, "err", err)
	} else if !first {
		return nil
	}

	order, err := kafkax.UnwrapPayload[sales.OnlineOrder](env.Payload)
	if err != nil {
		s.Log.Error("drop undecodable online order", "event_id", env.EventID, "err", err)
		return nil
	}

	saleID, existed, err := s.Orders.CreateOnlineOrder(ctx, order)
	switch {
	case errors.Is(err, sales.ErrInvalidInput):
		s.Log.Error("drop invalid online order", "event_id", env.EventID, "online_order_id", order.OnlineOrderID, "err", err)
		return nil
	case err != nil:
		if rerr := s.Dedup.Release(ctx, env.EventID); rerr != nil {
			s.Log.Warn("dedup release failed", "event_id", env.EventID, "err", rerr)
		}
		return err
	}
	s.Log.Info("online order ingested", "event_id", env.EventID, "online_order_id", order.OnlineOrderID,
		"sale_id", saleID, "replay", existed)
	return nil
}
