package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Denomination constants. One OCT is 10^6 raw units.
const (
	Decimals = 6
	Coin     = 1_000_000
)

// ErrInvalidAmountFormat is returned when a decimal amount cannot be parsed.
var ErrInvalidAmountFormat = errors.New("invalid amount")

// Amount is a quantity in raw ledger units (micro-OCT).
type Amount uint64

// String formats the amount as a decimal with six fractional digits.
func (a Amount) String() string {
	return fmt.Sprintf("%d.%06d", uint64(a)/Coin, uint64(a)%Coin)
}

// Raw returns the integer wire representation ("10500000").
func (a Amount) Raw() string {
	return strconv.FormatUint(uint64(a), 10)
}

// Float64 returns the amount in OCT. Display only.
func (a Amount) Float64() float64 {
	return float64(a) / Coin
}

// ParseAmount converts a user-supplied decimal string ("10.5") to raw units.
// More than Decimals fractional digits is an error.
func ParseAmount(s string) (Amount, error) {
	return parseDecimal(s, true)
}

// TruncateAmount converts a decimal string to raw units, dropping any
// fractional digits beyond Decimals (floor). Exponent notation is accepted.
func TruncateAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidAmountFormat, err)
		}
		return AmountFromFloat(f)
	}
	return parseDecimal(s, false)
}

// AmountFromFloat converts a decimal OCT value to raw units as
// floor(v * 10^6). The conversion works on the shortest decimal
// representation of v, so 10.5 yields exactly 10500000.
func AmountFromFloat(v float64) (Amount, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: not a finite number", ErrInvalidAmountFormat)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative amount", ErrInvalidAmountFormat)
	}
	return parseDecimal(strconv.FormatFloat(v, 'f', -1, 64), false)
}

func parseDecimal(s string, strict bool) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmountFormat)
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: negative amount", ErrInvalidAmountFormat)
	}
	s = strings.TrimPrefix(s, "+")

	parts := strings.SplitN(s, ".", 2)
	if parts[0] == "" {
		parts[0] = "0"
	}
	whole, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: whole part: %v", ErrInvalidAmountFormat, err)
	}

	var frac uint64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > Decimals {
			if strict {
				return 0, fmt.Errorf("%w: too many decimal places (max %d)", ErrInvalidAmountFormat, Decimals)
			}
			fracStr = fracStr[:Decimals]
		}
		if fracStr != "" {
			for _, c := range fracStr {
				if c < '0' || c > '9' {
					return 0, fmt.Errorf("%w: fractional part %q", ErrInvalidAmountFormat, parts[1])
				}
			}
			fracStr += strings.Repeat("0", Decimals-len(fracStr))
			frac, err = strconv.ParseUint(fracStr, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: fractional part: %v", ErrInvalidAmountFormat, err)
			}
		}
	}

	if whole > math.MaxUint64/Coin {
		return 0, fmt.Errorf("%w: amount too large", ErrInvalidAmountFormat)
	}
	result := whole * Coin
	if result > math.MaxUint64-frac {
		return 0, fmt.Errorf("%w: amount too large", ErrInvalidAmountFormat)
	}
	return Amount(result + frac), nil
}
