// Package report renders budget sheets for people and machines.
package report

import (
	"math"

	"github.com/shopspring/decimal"
)

// SignificantFigures formats v rounded to n significant figures in fixed
// notation, keeping trailing zeros: SignificantFigures(5.7736e-5, 4) is
// "0.00005774". Undefined values format as "undefined".
func SignificantFigures(v float64, n int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "undefined"
	}
	if n < 1 {
		n = 1
	}
	if v == 0 {
		return Fixed(0, n-1)
	}

	exp := int(math.Floor(math.Log10(math.Abs(v))))
	places := n - 1 - exp
	d := decimal.NewFromFloat(v).Round(int32(places))

	// 9.9996 rounds up to 10.000; drop the extra digit
	limit := decimal.New(1, int32(exp+1))
	if d.Abs().GreaterThanOrEqual(limit) {
		places--
		d = decimal.NewFromFloat(v).Round(int32(places))
	}

	if places <= 0 {
		return d.StringFixed(0)
	}
	return d.StringFixed(int32(places))
}

// Fixed formats v with exactly places decimal places.
func Fixed(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "undefined"
	}
	if places < 0 {
		places = 0
	}
	return decimal.NewFromFloat(v).StringFixed(int32(places))
}
