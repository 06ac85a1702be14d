package sales

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one record of a sales LEFT JOIN sale_items scan. Item columns are
// nil when the order has no items.
type Row struct {
	SaleID           int64
	OrderType        string
	PaymentMethod    string
	CreatedAt        time.Time
	CashierName      string
	TotalDiscount    decimal.Decimal
	Status           Status
	PaymentReference *string

	ItemID    *int64
	ItemName  *string
	Quantity  *int
	UnitPrice decimal.NullDecimal
	Category  *string
	Addons    []byte
}

// Aggregator folds flat order×item rows into nested orders. Orders keep the
// order in which their key was first seen; items keep row order.
type Aggregator struct {
	index     map[int64]int
	orders    []Order
	subtotals []decimal.Decimal
}

func NewAggregator() *Aggregator {
	return &Aggregator{index: make(map[int64]int)}
}

func (a *Aggregator) Add(r Row) error {
	i, ok := a.index[r.SaleID]
	if !ok {
		i = len(a.orders)
		a.index[r.SaleID] = i
		a.orders = append(a.orders, Order{
			SaleID:           r.SaleID,
			CreatedAt:        r.CreatedAt,
			Status:           r.Status,
			OrderType:        r.OrderType,
			PaymentMethod:    r.PaymentMethod,
			CashierName:      r.CashierName,
			PaymentReference: r.PaymentReference,
			TotalDiscount:    r.TotalDiscount,
			Items:            []LineItem{},
		})
		a.subtotals = append(a.subtotals, decimal.Zero)
	}
	if r.ItemID == nil {
		return nil
	}

	addons := Addons{}
	if len(r.Addons) > 0 {
		if err := json.Unmarshal(r.Addons, &addons); err != nil {
			return fmt.Errorf("decode addons of sale item %d: %w", *r.ItemID, err)
		}
		if addons == nil {
			addons = Addons{}
		}
	}
	qty := 0
	if r.Quantity != nil {
		qty = *r.Quantity
	}
	price := decimal.Zero
	if r.UnitPrice.Valid {
		price = r.UnitPrice.Decimal
	}
	item := LineItem{Quantity: qty, Price: price, Addons: addons}
	if r.ItemName != nil {
		item.Name = *r.ItemName
	}
	if r.Category != nil {
		item.Category = *r.Category
	}

	o := &a.orders[i]
	o.ItemCount += qty
	o.Items = append(o.Items, item)
	a.subtotals[i] = a.subtotals[i].Add(price.Mul(decimal.NewFromInt(int64(qty))))
	return nil
}

// Orders finalizes totals and returns the aggregated orders.
func (a *Aggregator) Orders() []Order {
	out := make([]Order, len(a.orders))
	for i, o := range a.orders {
		o.Total = a.subtotals[i].Sub(o.TotalDiscount)
		out[i] = o
	}
	return out
}

func Aggregate(rows []Row) ([]Order, error) {
	a := NewAggregator()
	for _, r := range rows {
		if err := a.Add(r); err != nil {
			return nil, err
		}
	}
	return a.Orders(), nil
}
