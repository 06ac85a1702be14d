package sales

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is how order timestamps are rendered to POS clients.
const DateLayout = "January 02, 2006 03:04 PM"

// TopProductsLimit caps the top-products listing.
const TopProductsLimit = 10

// Addons is free-form per-item customization data (size, extra shots, notes).
type Addons map[string]any

type LineItem struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Category string
	Addons   Addons
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	addons := li.Addons
	if addons == nil {
		addons = Addons{}
	}
	return json.Marshal(struct {
		Name     string  `json:"name"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
		Category string  `json:"category"`
		Addons   Addons  `json:"addons"`
	}{li.Name, li.Quantity, li.Price.InexactFloat64(), li.Category, addons})
}

type Order struct {
	SaleID           int64
	CreatedAt        time.Time
	Status           Status
	OrderType        string
	PaymentMethod    string
	CashierName      string
	PaymentReference *string
	TotalDiscount    decimal.Decimal
	ItemCount        int
	Items            []LineItem
	// Total is Σ(price × quantity) − TotalDiscount, set once every row of the
	// order has been folded in.
	Total decimal.Decimal
}

func (o Order) MarshalJSON() ([]byte, error) {
	items := o.Items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(struct {
		ID                   string     `json:"id"`
		Date                 string     `json:"date"`
		Items                int        `json:"items"`
		Total                float64    `json:"total"`
		Status               Status     `json:"status"`
		OrderType            string     `json:"orderType"`
		PaymentMethod        string     `json:"paymentMethod"`
		CashierName          string     `json:"cashierName"`
		GCashReferenceNumber *string    `json:"GCashReferenceNumber"`
		OrderItems           []LineItem `json:"orderItems"`
	}{
		ID:                   FormatOrderID(o.SaleID),
		Date:                 o.CreatedAt.Format(DateLayout),
		Items:                o.ItemCount,
		Total:                o.Total.InexactFloat64(),
		Status:               o.Status,
		OrderType:            o.OrderType,
		PaymentMethod:        o.PaymentMethod,
		CashierName:          o.CashierName,
		GCashReferenceNumber: o.PaymentReference,
		OrderItems:           items,
	})
}

func FormatOrderID(saleID int64) string {
	return fmt.Sprintf("SO-%d", saleID)
}

// ParseOrderID accepts "SO-42" as well as a bare "42".
func ParseOrderID(s string) (int64, error) {
	part := s
	if i := strings.LastIndex(s, "-"); i >= 0 {
		part = s[i+1:]
	}
	id, err := strconv.ParseInt(part, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid order id %q", ErrInvalidInput, s)
	}
	return id, nil
}

// RestockItem is one cancelled line returned to inventory.
type RestockItem struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Category    string `json:"category"`
}

type Metrics struct {
	TotalSales decimal.Decimal
	CashSales  decimal.Decimal
	GCashSales decimal.Decimal
	ItemsSold  int64
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalSales float64 `json:"totalSales"`
		CashSales  float64 `json:"cashSales"`
		GCashSales float64 `json:"gcashSales"`
		ItemsSold  int64   `json:"itemsSold"`
	}{m.TotalSales.InexactFloat64(), m.CashSales.InexactFloat64(), m.GCashSales.InexactFloat64(), m.ItemsSold})
}

type TopProduct struct {
	Name  string `json:"name"`
	Sales int64  `json:"sales"`
}

type OnlineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Addons   Addons          `json:"addons"`
}

// OnlineOrder is an order placed through the online storefront. Discount is
// derived as Subtotal − TotalAmount.
type OnlineOrder struct {
	OnlineOrderID int64           `json:"online_order_id"`
	CustomerName  string          `json:"customer_name"`
	OrderType     string          `json:"order_type"`
	PaymentMethod string          `json:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	Items         []OnlineItem    `json:"items"`
}

func (o *OnlineOrder) Validate() error {
	switch {
	case o.OnlineOrderID <= 0:
		return fmt.Errorf("%w: online_order_id must be positive", ErrInvalidInput)
	case strings.TrimSpace(o.CustomerName) == "":
		return fmt.Errorf("%w: customer_name is required", ErrInvalidInput)
	case o.OrderType == "" || o.PaymentMethod == "":
		return fmt.Errorf("%w: order_type and payment_method are required", ErrInvalidInput)
	case len(o.Items) == 0:
		return fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}
	if _, ok := ParseStatus(o.Status); !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, o.Status)
	}
	for i := range o.Items {
		it := &o.Items[i]
		if it.Name == "" || it.Quantity <= 0 || it.Price.IsNegative() {
			return fmt.Errorf("%w: item %d needs a name, positive quantity and non-negative price", ErrInvalidInput, i)
		}
		if it.Category == "" {
			it.Category = "Online"
		}
	}
	return nil
}

func (o OnlineOrder) Discount() decimal.Decimal {
	return o.Subtotal.Sub(o.TotalAmount)
}

func (o OnlineOrder) PaymentReference() string {
	return fmt.Sprintf("ONLINE-%d", o.OnlineOrderID)
}
