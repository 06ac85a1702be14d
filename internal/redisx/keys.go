package redisx

import "time"

const (
	// idem:online_order:{online_order_id} -> POS sale id
	KeyIdemOnlineOrder = "idem:online_order:%d"

	// dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
