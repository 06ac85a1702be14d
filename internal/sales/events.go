package sales

import kafkax "github.com/kapehan/pos-backend/internal/kafka"

const (
	TopicOrderEvents       = "pos.order.events"
	TopicOnlineOrderPlaced = "online.order.placed"
)

const (
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"
	EventOnlineOrderSaved   = "OnlineOrderSaved"
	EventOnlineOrderPlaced  = "OnlineOrderPlaced"
)

type OrderStatusChangedPayload struct {
	SaleID    int64  `json:"sale_id"`
	OrderID   string `json:"order_id"`
	From      Status `json:"from"`
	To        Status `json:"to"`
	ChangedBy string `json:"changed_by"`
}

type OrderCancelledPayload struct {
	SaleID          int64         `json:"sale_id"`
	OrderID         string        `json:"order_id"`
	ManagerUsername string        `json:"manager_username"`
	CancelledBy     string        `json:"cancelled_by"`
	Items           []RestockItem `json:"items"`
}

type OnlineOrderSavedPayload struct {
	SaleID        int64 `json:"sale_id"`
	OnlineOrderID int64 `json:"online_order_id"`
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(key string, env kafkax.Envelope)
}
