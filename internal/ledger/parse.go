package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseShareAmount parses a whole, positive number of shares.
func ParseShareAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return n, nil
}

const centsScale = 2

// MaxBalance bounds every stored cash value. decimal(20,8) leaves twelve
// integer digits and sqlite keeps fifteen significant digits, so whole-cent
// values below it round-trip exactly on both drivers.
var MaxBalance = decimal.New(1, 12)

// ParseBalance parses a cash amount in whole cents. Sign checks are left to
// EditBalance.
func ParseBalance(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, s)
	}
	if !isCents(d) {
		return decimal.Zero, fmt.Errorf("%w: %q has fractions of a cent", ErrInvalidAmountFormat, s)
	}
	return d, nil
}

func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(centsScale))
}
