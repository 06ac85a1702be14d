package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderID(t *testing.T) {
	id, err := ParseOrderID("SO-42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = ParseOrderID("17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	for _, bad := range []string{"", "SO-", "SO-abc", "SO-0"} {
		_, err := ParseOrderID(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func validOnlineOrder() OnlineOrder {
	return OnlineOrder{
		OnlineOrderID: 77,
		CustomerName:  "Ana",
		OrderType:     "Pick Up",
		PaymentMethod: "GCash",
		Subtotal:      decimal.RequireFromString("250.00"),
		TotalAmount:   decimal.RequireFromString("225.00"),
		Status:        "processing",
		Items: []OnlineItem{
			{Name: "Latte", Quantity: 2, Price: decimal.RequireFromString("125.00")},
		},
	}
}

func TestOnlineOrderValidate(t *testing.T) {
	o := validOnlineOrder()
	require.NoError(t, o.Validate())
	assert.Equal(t, "Online", o.Items[0].Category)
	assert.True(t, o.Discount().Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, "ONLINE-77", o.PaymentReference())

	cases := map[string]func(*OnlineOrder){
		"no id":        func(o *OnlineOrder) { o.OnlineOrderID = 0 },
		"no customer":  func(o *OnlineOrder) { o.CustomerName = " " },
		"no items":     func(o *OnlineOrder) { o.Items = nil },
		"bad status":   func(o *OnlineOrder) { o.Status = "pending" },
		"zero qty":     func(o *OnlineOrder) { o.Items[0].Quantity = 0 },
		"negative fee": func(o *OnlineOrder) { o.Items[0].Price = decimal.NewFromInt(-1) },
	}
	for name, mutate := range cases {
		o := validOnlineOrder()
		mutate(&o)
		assert.ErrorIs(t, o.Validate(), ErrInvalidInput, name)
	}
}

func TestMetricsJSONZero(t *testing.T) {
	b, err := Metrics{}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalSales":0,"cashSales":0,"gcashSales":0,"itemsSold":0}`, string(b))
}
