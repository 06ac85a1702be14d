package redisx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// OnlineOrders is the Redis fast path for online-order idempotency. The
// database stays authoritative, so Redis errors only cost a round trip.
type OnlineOrders struct {
	RDB *redis.Client
	Log *slog.Logger
}

func (o *OnlineOrders) Lookup(ctx context.Context, onlineOrderID int64) (int64, bool) {
	id, err := o.RDB.Get(ctx, fmt.Sprintf(KeyIdemOnlineOrder, onlineOrderID)).Int64()
	if err != nil {
		if err != redis.Nil {
			o.Log.Warn("idempotency lookup failed", "online_order_id", onlineOrderID, "err", err)
		}
		return 0, false
	}
	return id, true
}

func (o *OnlineOrders) Remember(ctx context.Context, onlineOrderID, saleID int64) {
	key := fmt.Sprintf(KeyIdemOnlineOrder, onlineOrderID)
	if err := o.RDB.Set(ctx, key, saleID, TTLIdempotency).Err(); err != nil {
		o.Log.Warn("idempotency store failed", "online_order_id", onlineOrderID, "err", err)
	}
}

// Dedup tracks event ids a consumer has already handled.
type Dedup struct {
	RDB     *redis.Client
	Service string
}

// Claim marks eventID as seen and reports whether this caller is the first.
func (d *Dedup) Claim(ctx context.Context, eventID string) (bool, error) {
	return d.RDB.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID), "1", TTLDedup).Result()
}

// Release forgets eventID so a redelivery is processed again.
func (d *Dedup) Release(ctx context.Context, eventID string) error {
	return d.RDB.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID)).Err()
}
