// Package core provides the ledger domain types and amount handling.
//
// Amounts are stored in the sheet as plain numbers but may come back as
// arbitrary text, so reading is lenient: the longest numeric prefix wins and
// anything else counts as zero.
package core

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is the fixed display symbol for every amount.
const CurrencySymbol = "₹"

// MaxAmount bounds the magnitude of any amount read or written. Larger values,
// and values that are not finite, are treated as out of range.
const MaxAmount = 1e12

// ErrAmountOutOfRange is returned by ParseAmount for numbers beyond MaxAmount.
var ErrAmountOutOfRange = errors.New("amount out of range")

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount reads the numeric prefix of s. Text with no numeric prefix is
// zero; a prefix whose value is not finite or exceeds MaxAmount yields
// ErrAmountOutOfRange.
func ParseAmount(s string) (decimal.Decimal, error) {
	m := numericPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Zero, nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return decimal.Zero, nil
	}
	return fromFloat(f)
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > MaxAmount {
		return decimal.Zero, ErrAmountOutOfRange
	}
	return decimal.NewFromFloat(f), nil
}

// CoerceAmount converts a cell or form value to a decimal amount. Out of range
// values become zero.
//
// Examples:
//
//	CoerceAmount("3.5")    -> 3.5
//	CoerceAmount(" 12abc") -> 12
//	CoerceAmount("")       -> 0
//	CoerceAmount("n/a")    -> 0
//	CoerceAmount("1e400")  -> 0
func CoerceAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CoerceCell is CoerceAmount for values returned by the Sheets API, which may
// already be numbers.
func CoerceCell(v interface{}) decimal.Decimal {
	var (
		d   decimal.Decimal
		err error
	)
	switch n := v.(type) {
	case float64:
		d, err = fromFloat(n)
	case int:
		d, err = fromFloat(float64(n))
	case int64:
		d, err = fromFloat(float64(n))
	case string:
		return CoerceAmount(n)
	default:
		return decimal.Zero
	}
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount with two decimals and the currency symbol,
// e.g. "₹3.50".
func FormatAmount(d decimal.Decimal) string {
	return CurrencySymbol + d.StringFixed(2)
}
