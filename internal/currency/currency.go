// Package currency formats ledger amounts for display.
package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// USD renders d as US dollars, e.g. "$1,234.56". Sub-cent digits are
// rounded half away from zero.
func USD(d decimal.Decimal) string {
	cents := d.Round(2).Shift(2).IntPart()
	if cents < 0 {
		return "-" + money.New(-cents, money.USD).Display()
	}
	return money.New(cents, money.USD).Display()
}

// Percent renders d with two decimals and a percent sign.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}
