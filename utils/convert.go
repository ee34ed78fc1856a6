// Package utils
package utils

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the number of decimals of the chain's native currency.
const NativeDecimals = 18

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrTooManyDecimal = errors.New("amount has too many decimals")
)

func StrToUint64(data string) uint64 {
	i, _ := strconv.ParseUint(data, 10, 64)
	return i
}

// FormatUnits renders a smallest-unit integer as a human decimal string.
// The result always carries a fractional part: 10^18 with 18 decimals is "1.0".
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0.0"
	}
	s := decimal.NewFromBigInt(amount, -decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatUnitsString is FormatUnits for a base-10 string amount.
func FormatUnitsString(raw string, decimals int32) (string, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return "", ErrInvalidAmount
	}
	return FormatUnits(v, decimals), nil
}

// ParseUnits converts a human decimal string to the smallest unit.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if d.IsNegative() {
		return nil, ErrInvalidAmount
	}
	shifted := d.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, ErrTooManyDecimal
	}
	return shifted.BigInt(), nil
}

// PercentOf returns pct percent of a human decimal amount, rounded to 6 places.
func PercentOf(amount string, pct int) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", ErrInvalidAmount
	}
	return d.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100)).Round(6).String(), nil
}
