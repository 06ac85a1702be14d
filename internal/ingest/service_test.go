package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/kapehan/pos-backend/internal/kafka"
	"github.com/kapehan/pos-backend/internal/redisx"
	"github.com/kapehan/pos-backend/internal/sales"
)

type fakeOrders struct {
	got  []sales.OnlineOrder
	fail error
}

func (f *fakeOrders) CreateOnlineOrder(ctx context.Context, o sales.OnlineOrder) (int64, bool, error) {
	if f.fail != nil {
		return 0, false, f.fail
	}
	if err := o.Validate(); err != nil {
		return 0, false, err
	}
	f.got = append(f.got, o)
	return int64(len(f.got)), false, nil
}

func newService(t *testing.T, orders *fakeOrders) *Service {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Service{
		Orders: orders,
		Dedup:  &redisx.Dedup{RDB: rdb, Service: "online-ingest"},
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func placedMessage(env kafkax.Envelope) kafkago.Message {
	return kafkago.Message{Key: []byte(env.CorrelationID), Value: kafkax.MustMarshal(env)}
}

func onlineOrder() sales.OnlineOrder {
	return sales.OnlineOrder{
		OnlineOrderID: 501,
		CustomerName:  "Ana",
		OrderType:     "Delivery",
		PaymentMethod: "GCash",
		Subtotal:      decimal.NewFromInt(300),
		TotalAmount:   decimal.NewFromInt(270),
		Status:        "processing",
		Items:         []sales.OnlineItem{{Name: "Frappe", Quantity: 2, Price: decimal.NewFromInt(150)}},
	}
}

func TestHandleOnlineOrderPlaced_StoresOnce(t *testing.T) {
	orders := &fakeOrders{}
	svc := newService(t, orders)
	env := kafkax.NewEnvelope(sales.EventOnlineOrderPlaced, "storefront", "online-501", onlineOrder())

	require.NoError(t, svc.HandleOnlineOrderPlaced(context.Background(), placedMessage(env)))
	require.NoError(t, svc.HandleOnlineOrderPlaced(context.Background(), placedMessage(env)))

	require.Len(t, orders.got, 1)
	assert.Equal(t, int64(501), orders.got[0].OnlineOrderID)
	assert.True(t, orders.got[0].Discount().Equal(decimal.NewFromInt(30)))
}

func TestHandleOnlineOrderPlaced_IgnoresOtherEvents(t *testing.T) {
	orders := &fakeOrders{}
	svc := newService(t, orders)
	env := kafkax.NewEnvelope("SomethingElse", "storefront", "x", onlineOrder())

	require.NoError(t, svc.HandleOnlineOrderPlaced(context.Background(), placedMessage(env)))
	require.NoError(t, svc.HandleOnlineOrderPlaced(context.Background(), kafkago.Message{Value: []byte("garbage")}))
	assert.Empty(t, orders.got)
}

func TestHandleOnlineOrderPlaced_InvalidOrderIsDropped(t *testing.T) {
	orders := &fakeOrders{}
	svc := newService(t, orders)
	bad := onlineOrder()
	bad.Items = nil
	env := kafkax.NewEnvelope(sales.EventOnlineOrderPlaced, "storefront", "online-501", bad)

	assert.NoError(t, svc.HandleOnlineOrderPlaced(context.Background(), placedMessage(env)))
	assert.Empty(t, orders.got)
}

func TestHandleOnlineOrderPlaced_StoreFailureReleasesClaimForRetry(t *testing.T) {
	orders := &fakeOrders{fail: errors.New("db down")}
	svc := newService(t, orders)
	env := kafkax.NewEnvelope(sales.EventOnlineOrderPlaced, "storefront", "online-501", onlineOrder())

	assert.Error(t, svc.HandleOnlineOrderPlaced(context.Background(), placedMessage(env)))

	orders.fail = nil
	require.NoError(t, svc.HandleOnlineOrderPlaced(context.Background(), placedMessage(env)))
	assert.Len(t, orders.got, 1)
}
