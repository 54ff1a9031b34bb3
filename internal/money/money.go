// Package money provides a decimal-safe amount representation.
//
// Amounts are held as integer hundredths so that summing many small
// transactions never accumulates floating-point drift. The JSON form is a
// plain number ("450", "12.34") and round-trips through ParseDecimal.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount is returned for amounts that are negative, non-numeric,
// or otherwise not representable.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a monetary value in hundredths of the currency unit.
// Arithmetic results (e.g. a balance) may be negative; parsing at the
// input boundary only accepts non-negative values.
type Amount int64

// ParseDecimal converts a decimal string to an Amount with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted. Negative values and signs are rejected.
//
// Examples:
//
//	ParseDecimal("12.34")  -> 1234, nil
//	ParseDecimal("12,34")  -> 1234, nil
//	ParseDecimal("12.345") -> 1235, nil (rounds up)
//	ParseDecimal("450")    -> 45000, nil
func ParseDecimal(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = math.MaxInt64 / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}

	// Take the first two fractional digits, then half-up rounding on the third.
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}

	return Amount(iv*100 + frac), nil
}

// FromFloat converts a float to an Amount with half-up rounding.
// NaN, infinities and negative values are rejected.
func FromFloat(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, ErrInvalidAmount
	}
	if f > float64(math.MaxInt64)/100 {
		return 0, ErrInvalidAmount
	}
	return Amount(math.Round(f * 100)), nil
}

// Float64 returns the amount in currency units for display purposes.
// Use Amount directly for calculations.
func (a Amount) Float64() float64 {
	return float64(a) / 100.0
}

// String renders the amount in its canonical decimal form, without
// trailing zeros ("450", "12.34", "0.5").
func (a Amount) String() string {
	return strconv.FormatFloat(a.Float64(), 'f', -1, 64)
}

// MarshalJSON encodes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number (or a quoted decimal string, which
// some clients send) and converts it to hundredths.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "null" {
		return nil
	}
	v, err := ParseDecimal(s)
	if err != nil {
		// Fall back to float parsing for exponent notation.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("Amount.UnmarshalJSON: %w", ErrInvalidAmount)
		}
		v, err = FromFloat(f)
		if err != nil {
			return fmt.Errorf("Amount.UnmarshalJSON: %w", err)
		}
	}
	*a = v
	return nil
}
