package analytics

import "github.com/shopspring/decimal"

// precision is the number of decimals kept in reported metrics
const precision = 2

// round rounds half away from zero on the shortest decimal form of v,
// so 1.005 becomes 1.01.
func round(v float64) float64 {
	v = finite(v)
	f, _ := decimal.NewFromFloat(v).Round(precision).Float64()
	return f
}
