package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kapehan/pos-backend/internal/postgres"
)

type Repo struct{ DB postgres.DB }

const orderColumns = `
	s.sale_id, s.order_type, s.payment_method, s.created_at, s.cashier_name,
	s.total_discount_amount, s.status, s.payment_reference,
	si.sale_item_id, si.item_name, si.quantity, si.unit_price, si.category, si.addons`

func (r *Repo) ListCancelledToday(ctx context.Context, cashier string) ([]Order, error) {
	return r.queryOrders(ctx, `
		SELECT`+orderColumns+`
		FROM sales AS s
		JOIN cancelled_orders AS co ON s.sale_id = co.sale_id
		LEFT JOIN sale_items AS si ON s.sale_id = si.sale_id
		WHERE s.status = 'cancelled'
		  AND s.cashier_name = $1
		  AND co.cancelled_at::date = CURRENT_DATE
		ORDER BY co.cancelled_at DESC, s.sale_id, si.sale_item_id`, cashier)
}

// ListOrders returns orders oldest first, optionally restricted to one cashier.
func (r *Repo) ListOrders(ctx context.Context, cashier string) ([]Order, error) {
	return r.queryOrders(ctx, `
		SELECT`+orderColumns+`
		FROM sales AS s
		LEFT JOIN sale_items AS si ON s.sale_id = si.sale_id
		WHERE s.status IN ('processing', 'completed', 'cancelled')
		  AND ($1 = '' OR s.cashier_name = $1)
		ORDER BY s.created_at ASC, s.sale_id ASC, si.sale_item_id`, cashier)
}

func (r *Repo) ListAllOrders(ctx context.Context) ([]Order, error) {
	return r.queryOrders(ctx, `
		SELECT`+orderColumns+`
		FROM sales AS s
		LEFT JOIN sale_items AS si ON s.sale_id = si.sale_id
		WHERE s.status IN ('completed', 'processing', 'cancelled')
		ORDER BY s.created_at DESC, s.sale_id DESC, si.sale_item_id`)
}

func (r *Repo) queryOrders(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agg := NewAggregator()
	for rows.Next() {
		var row Row
		var status string
		if err := rows.Scan(
			&row.SaleID, &row.OrderType, &row.PaymentMethod, &row.CreatedAt, &row.CashierName,
			&row.TotalDiscount, &status, &row.PaymentReference,
			&row.ItemID, &row.ItemName, &row.Quantity, &row.UnitPrice, &row.Category, &row.Addons,
		); err != nil {
			return nil, err
		}
		row.Status = Status(status)
		if err := agg.Add(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return agg.Orders(), nil
}

// CreateOnlineOrder stores an online order and its items in one transaction.
// A replay of the same online order returns the existing sale (existed=true).
func (r *Repo) CreateOnlineOrder(ctx context.Context, o OnlineOrder) (saleID int64, existed bool, err error) {
	ref := o.PaymentReference()
	err = r.DB.QueryRow(ctx, `SELECT sale_id FROM sales WHERE payment_reference=$1`, ref).Scan(&saleID)
	if err == nil {
		return saleID, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO sales(order_type, payment_method, cashier_name, total_discount_amount, status, payment_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING sale_id`,
		o.OrderType, o.PaymentMethod, o.CustomerName, o.Discount(), o.Status, ref,
	).Scan(&saleID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			// a concurrent replay won the insert
			var id int64
			if qerr := r.DB.QueryRow(ctx, `SELECT sale_id FROM sales WHERE payment_reference=$1`, ref).Scan(&id); qerr == nil {
				return id, true, nil
			}
		}
		return 0, false, fmt.Errorf("insert sale: %w", err)
	}

	for _, it := range o.Items {
		var addons []byte
		if len(it.Addons) > 0 {
			if addons, err = json.Marshal(it.Addons); err != nil {
				return 0, false, fmt.Errorf("encode addons: %w", err)
			}
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO sale_items(sale_id, item_name, quantity, unit_price, category, addons)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			saleID, it.Name, it.Quantity, it.Price, it.Category, addons,
		); err != nil {
			return 0, false, fmt.Errorf("insert sale item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return saleID, false, nil
}

// lockStatus reads and row-locks the order's status inside tx.
func lockStatus(ctx context.Context, tx pgx.Tx, saleID int64, to Status) (Status, error) {
	var s string
	err := tx.QueryRow(ctx, `SELECT status FROM sales WHERE sale_id=$1 FOR UPDATE`, saleID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	from := Status(s)
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return from, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, saleID int64, to Status) (Status, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	from, err := lockStatus(ctx, tx, saleID, to)
	if err != nil {
		return from, err
	}
	if _, err := tx.Exec(ctx, `UPDATE sales SET status=$2, updated_at=NOW() WHERE sale_id=$1`, saleID, string(to)); err != nil {
		return from, err
	}
	return from, tx.Commit(ctx)
}

// Cancel marks the order cancelled, writes its cancellation record and
// returns the items to restock. All of it commits or none of it does.
func (r *Repo) Cancel(ctx context.Context, saleID int64, managerUsername string) ([]RestockItem, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := lockStatus(ctx, tx, saleID, StatusCancelled); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE sales SET status='cancelled', updated_at=NOW() WHERE sale_id=$1`, saleID); err != nil {
		return nil, fmt.Errorf("update sale: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO cancelled_orders(sale_id, manager_username, cancelled_at)
		VALUES ($1, $2, NOW())`, saleID, managerUsername); err != nil {
		return nil, fmt.Errorf("insert cancellation: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT item_name, quantity, category FROM sale_items WHERE sale_id=$1 ORDER BY sale_item_id`, saleID)
	if err != nil {
		return nil, err
	}
	var items []RestockItem
	for rows.Next() {
		var it RestockItem
		if err := rows.Scan(&it.ProductName, &it.Quantity, &it.Category); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repo) ActiveSessionStart(ctx context.Context, cashier string) (time.Time, bool, error) {
	var start time.Time
	err := r.DB.QueryRow(ctx, `
		SELECT session_start FROM cashier_sessions
		WHERE cashier_name=$1 AND status='Active'`, cashier).Scan(&start)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return start, true, nil
}

const metricsSelect = `
	SELECT
		COALESCE(SUM(si.unit_price * si.quantity), 0),
		COALESCE(SUM(CASE WHEN s.payment_method = 'Cash' THEN si.unit_price * si.quantity ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN s.payment_method = 'GCash' THEN si.unit_price * si.quantity ELSE 0 END), 0),
		COALESCE(SUM(si.quantity), 0)
	FROM sales AS s
	JOIN sale_items AS si ON s.sale_id = si.sale_id
	WHERE s.status = 'completed'
	  AND s.cashier_name = $1`

func (r *Repo) MetricsSince(ctx context.Context, cashier string, since time.Time) (Metrics, error) {
	return r.queryMetrics(ctx, metricsSelect+` AND s.created_at >= $2`, cashier, since)
}

func (r *Repo) MetricsToday(ctx context.Context, cashier string) (Metrics, error) {
	return r.queryMetrics(ctx, metricsSelect+` AND s.created_at::date = CURRENT_DATE`, cashier)
}

func (r *Repo) queryMetrics(ctx context.Context, sql string, args ...any) (Metrics, error) {
	var m Metrics
	var total, cash, gcash decimal.Decimal
	if err := r.DB.QueryRow(ctx, sql, args...).Scan(&total, &cash, &gcash, &m.ItemsSold); err != nil {
		return Metrics{}, err
	}
	m.TotalSales, m.CashSales, m.GCashSales = total, cash, gcash
	return m, nil
}

func (r *Repo) TopProductsToday(ctx context.Context, cashier string, limit int) ([]TopProduct, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT si.item_name, SUM(si.quantity) AS total_quantity
		FROM sales AS s
		JOIN sale_items AS si ON s.sale_id = si.sale_id
		WHERE s.status = 'completed'
		  AND s.cashier_name = $1
		  AND s.created_at::date = CURRENT_DATE
		GROUP BY si.item_name
		ORDER BY total_quantity DESC, si.item_name
		LIMIT $2`, cashier, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TopProduct{}
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.Name, &p.Sales); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
