package sales

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapehan/pos-backend/internal/postgres/pgtest"
)

const yesterday = "NOW() - INTERVAL '2 days'"

func TestRepoIntegration_TopProductsToday(t *testing.T) {
	db := pgtest.Open(t, "sales_repo_test")
	repo := &Repo{DB: db}
	ctx := context.Background()

	items := []pgtest.Item{{Name: "Latte", Quantity: 5, Price: "120"}, {Name: "Mocha", Quantity: 3, Price: "130"}, {Name: "Cookie", Quantity: 3, Price: "45"}}
	for i := 1; i <= 10; i++ {
		items = append(items, pgtest.Item{Name: fmt.Sprintf("Item%02d", i), Quantity: 1, Price: "10"})
	}
	pgtest.InsertSale(t, db, "jdoe", "Cash", "completed", "NOW()", items...)
	pgtest.InsertSale(t, db, "jdoe", "GCash", "completed", "NOW()", pgtest.Item{Name: "Latte", Quantity: 2, Price: "120"})
	// none of these count
	pgtest.InsertSale(t, db, "jdoe", "Cash", "processing", "NOW()", pgtest.Item{Name: "Tea", Quantity: 50, Price: "90"})
	pgtest.InsertSale(t, db, "jdoe", "Cash", "cancelled", "NOW()", pgtest.Item{Name: "Cake", Quantity: 40, Price: "150"})
	pgtest.InsertSale(t, db, "jdoe", "Cash", "completed", yesterday, pgtest.Item{Name: "Water", Quantity: 30, Price: "20"})
	pgtest.InsertSale(t, db, "amy", "Cash", "completed", "NOW()", pgtest.Item{Name: "Juice", Quantity: 20, Price: "60"})

	top, err := repo.TopProductsToday(ctx, "jdoe", TopProductsLimit)
	require.NoError(t, err)
	require.Len(t, top, TopProductsLimit)
	assert.Equal(t, TopProduct{Name: "Latte", Sales: 7}, top[0])
	assert.Equal(t, TopProduct{Name: "Cookie", Sales: 3}, top[1])
	assert.Equal(t, TopProduct{Name: "Mocha", Sales: 3}, top[2])
	for i, p := range top[3:] {
		assert.Equal(t, TopProduct{Name: fmt.Sprintf("Item%02d", i+1), Sales: 1}, p)
	}
}

func TestRepoIntegration_CancelWritesOneRecord(t *testing.T) {
	db := pgtest.Open(t, "sales_repo_test")
	repo := &Repo{DB: db}
	ctx := context.Background()

	id := pgtest.InsertSale(t, db, "jdoe", "Cash", "processing", "NOW()",
		pgtest.Item{Name: "Latte", Quantity: 2, Price: "120"}, pgtest.Item{Name: "Cookie", Quantity: 1, Price: "45"})

	items, err := repo.Cancel(ctx, id, "boss")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = repo.Cancel(ctx, id, "boss")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = repo.UpdateStatus(ctx, id, StatusProcessing)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = repo.Cancel(ctx, id+1000, "boss")
	assert.ErrorIs(t, err, ErrNotFound)

	var records int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM cancelled_orders WHERE sale_id=$1`, id).Scan(&records))
	assert.Equal(t, 1, records)

	cancelled, err := repo.ListCancelledToday(ctx, "jdoe")
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, StatusCancelled, cancelled[0].Status)
	assert.True(t, cancelled[0].Total.Equal(decimal.NewFromInt(285)), cancelled[0].Total.String())
}

func TestRepoIntegration_MetricsTodayCountsCompletedOnly(t *testing.T) {
	db := pgtest.Open(t, "sales_repo_test")
	repo := &Repo{DB: db}

	pgtest.InsertSale(t, db, "jdoe", "Cash", "completed", "NOW()", pgtest.Item{Name: "Latte", Quantity: 2, Price: "120.50"})
	pgtest.InsertSale(t, db, "jdoe", "GCash", "completed", "NOW()", pgtest.Item{Name: "Mocha", Quantity: 1, Price: "130"})
	pgtest.InsertSale(t, db, "jdoe", "Cash", "processing", "NOW()", pgtest.Item{Name: "Tea", Quantity: 9, Price: "90"})
	pgtest.InsertSale(t, db, "jdoe", "Cash", "completed", yesterday, pgtest.Item{Name: "Water", Quantity: 9, Price: "20"})

	m, err := repo.MetricsToday(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.True(t, m.TotalSales.Equal(decimal.RequireFromString("371")), m.TotalSales.String())
	assert.True(t, m.CashSales.Equal(decimal.RequireFromString("241")), m.CashSales.String())
	assert.True(t, m.GCashSales.Equal(decimal.NewFromInt(130)), m.GCashSales.String())
	assert.Equal(t, int64(3), m.ItemsSold)
}

func TestRepoIntegration_OnlineOrderReplay(t *testing.T) {
	db := pgtest.Open(t, "sales_repo_test")
	repo := &Repo{DB: db}
	ctx := context.Background()
	o := OnlineOrder{
		OnlineOrderID: 77, CustomerName: "Ana", OrderType: "Delivery", PaymentMethod: "GCash",
		Subtotal: decimal.NewFromInt(240), TotalAmount: decimal.NewFromInt(220), Status: "processing",
		Items: []OnlineItem{{Name: "Latte", Quantity: 2, Price: decimal.NewFromInt(120), Category: "Coffee",
			Addons: Addons{"size": "grande"}}},
	}

	id, existed, err := repo.CreateOnlineOrder(ctx, o)
	require.NoError(t, err)
	assert.False(t, existed)
	again, existed, err := repo.CreateOnlineOrder(ctx, o)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, id, again)

	orders, err := repo.ListAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Total.Equal(decimal.NewFromInt(220)), orders[0].Total.String())
	assert.Equal(t, "grande", orders[0].Items[0].Addons["size"])
}
