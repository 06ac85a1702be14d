package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kapehan/pos-backend/internal/auth"
	kafkax "github.com/kapehan/pos-backend/internal/kafka"
)

type Store interface {
	ListCancelledToday(ctx context.Context, cashier string) ([]Order, error)
	ListOrders(ctx context.Context, cashier string) ([]Order, error)
	ListAllOrders(ctx context.Context) ([]Order, error)
	CreateOnlineOrder(ctx context.Context, o OnlineOrder) (saleID int64, existed bool, err error)
	UpdateStatus(ctx context.Context, saleID int64, to Status) (from Status, err error)
	Cancel(ctx context.Context, saleID int64, managerUsername string) ([]RestockItem, error)
	ActiveSessionStart(ctx context.Context, cashier string) (time.Time, bool, error)
	MetricsSince(ctx context.Context, cashier string, since time.Time) (Metrics, error)
	MetricsToday(ctx context.Context, cashier string) (Metrics, error)
	TopProductsToday(ctx context.Context, cashier string, limit int) ([]TopProduct, error)
}

// Restocker returns cancelled items to inventory. It is best-effort and
// reports failures through its own logging.
type Restocker interface {
	Restock(ctx context.Context, token string, items []RestockItem)
}

// Idempotency remembers which POS sale an online order was stored as.
type Idempotency interface {
	Lookup(ctx context.Context, onlineOrderID int64) (saleID int64, ok bool)
	Remember(ctx context.Context, onlineOrderID, saleID int64)
}

type Service struct {
	Store       Store
	Restocker   Restocker
	Events      EventPublisher
	Idem        Idempotency
	ServiceName string
	Log         *slog.Logger
}

type StatusUpdate struct {
	NewStatus       string
	ManagerUsername string
}

func (s *Service) CancelledToday(ctx context.Context, cashier string) ([]Order, error) {
	if cashier == "" {
		return nil, fmt.Errorf("%w: cashierName is required", ErrInvalidInput)
	}
	return s.Store.ListCancelledToday(ctx, cashier)
}

// Orders lists processing, completed and cancelled orders. Admins and
// managers may filter by cashier (empty means everyone); other roles only
// ever see their own orders.
func (s *Service) Orders(ctx context.Context, caller auth.Identity, cashier string) ([]Order, error) {
	if !caller.Role.Supervises() {
		cashier = caller.Username
	}
	return s.Store.ListOrders(ctx, cashier)
}

func (s *Service) AllOrders(ctx context.Context) ([]Order, error) {
	return s.Store.ListAllOrders(ctx)
}

func (s *Service) CreateOnlineOrder(ctx context.Context, o OnlineOrder) (int64, bool, error) {
	if err := o.Validate(); err != nil {
		return 0, false, err
	}
	if s.Idem != nil {
		if id, ok := s.Idem.Lookup(ctx, o.OnlineOrderID); ok {
			return id, true, nil
		}
	}
	saleID, existed, err := s.Store.CreateOnlineOrder(ctx, o)
	if err != nil {
		return 0, false, err
	}
	if s.Idem != nil {
		s.Idem.Remember(ctx, o.OnlineOrderID, saleID)
	}
	if existed {
		return saleID, true, nil
	}
	s.Log.Info("online order saved", "online_order_id", o.OnlineOrderID, "sale_id", saleID)
	s.publish(FormatOrderID(saleID), EventOnlineOrderSaved, OnlineOrderSavedPayload{SaleID: saleID, OnlineOrderID: o.OnlineOrderID})
	return saleID, false, nil
}

// UpdateStatus moves an order to a new status. Cancelling records the
// approving manager and, after the commit, asks inventory to restock the
// order's items; restock failures never fail the request.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Identity, saleID int64, req StatusUpdate) (Status, error) {
	to, ok := ParseStatus(req.NewStatus)
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.NewStatus)
	}
	orderID := FormatOrderID(saleID)

	if to != StatusCancelled {
		from, err := s.Store.UpdateStatus(ctx, saleID, to)
		if err != nil {
			return "", err
		}
		s.publish(orderID, EventOrderStatusChanged, OrderStatusChangedPayload{
			SaleID: saleID, OrderID: orderID, From: from, To: to, ChangedBy: caller.Username,
		})
		return to, nil
	}

	if req.ManagerUsername == "" {
		return "", ErrManagerRequired
	}
	items, err := s.Store.Cancel(ctx, saleID, req.ManagerUsername)
	if err != nil {
		return "", err
	}
	s.Log.Info("order cancelled", "order_id", orderID, "manager", req.ManagerUsername, "by", caller.Username)
	s.publish(orderID, EventOrderCancelled, OrderCancelledPayload{
		SaleID: saleID, OrderID: orderID, ManagerUsername: req.ManagerUsername, CancelledBy: caller.Username, Items: items,
	})
	if len(items) > 0 && s.Restocker != nil {
		s.Restocker.Restock(ctx, caller.Token, items)
	}
	return to, nil
}

// CurrentSessionMetrics aggregates completed sales since the cashier's active
// session started. Without an active session every figure is zero.
func (s *Service) CurrentSessionMetrics(ctx context.Context, cashier string) (Metrics, error) {
	if cashier == "" {
		return Metrics{}, fmt.Errorf("%w: cashierName is required", ErrInvalidInput)
	}
	start, ok, err := s.Store.ActiveSessionStart(ctx, cashier)
	if err != nil || !ok {
		return Metrics{}, err
	}
	return s.Store.MetricsSince(ctx, cashier, start)
}

func (s *Service) TodayMetrics(ctx context.Context, cashier string) (Metrics, error) {
	if cashier == "" {
		return Metrics{}, fmt.Errorf("%w: cashierName is required", ErrInvalidInput)
	}
	return s.Store.MetricsToday(ctx, cashier)
}

func (s *Service) TopProductsToday(ctx context.Context, cashier string) ([]TopProduct, error) {
	if cashier == "" {
		return nil, fmt.Errorf("%w: cashierName is required", ErrInvalidInput)
	}
	return s.Store.TopProductsToday(ctx, cashier, TopProductsLimit)
}

func (s *Service) publish(key, eventType string, payload any) {
	if s.Events == nil {
		return
	}
	s.Events.PublishEvent(key, kafkax.NewEnvelope(eventType, s.ServiceName, key, payload))
}
