package session

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Denominations maps cash-count keys to their peso value. Read-only.
var Denominations = map[string]decimal.Decimal{
	"bills1000": decimal.NewFromInt(1000),
	"bills500":  decimal.NewFromInt(500),
	"bills200":  decimal.NewFromInt(200),
	"bills100":  decimal.NewFromInt(100),
	"bills50":   decimal.NewFromInt(50),
	"bills20":   decimal.NewFromInt(20),
	"coins10":   decimal.NewFromInt(10),
	"coins5":    decimal.NewFromInt(5),
	"coins1":    decimal.NewFromInt(1),
	"cents25":   decimal.New(25, -2),
	"cents10":   decimal.New(10, -2),
	"cents05":   decimal.New(5, -2),
}

// CountCash sums value × count over counts. Unknown denominations are ignored.
func CountCash(counts map[string]int) (decimal.Decimal, error) {
	total := decimal.Zero
	for key, n := range counts {
		v, ok := Denominations[key]
		if !ok {
			continue
		}
		if n < 0 {
			return decimal.Zero, fmt.Errorf("%w: negative count for %s", ErrInvalidInput, key)
		}
		total = total.Add(v.Mul(decimal.NewFromInt(int64(n))))
	}
	return total, nil
}
