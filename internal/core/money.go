// Package core provides the expense domain: money handling, validation,
// querying and aggregation.
//
// This file contains the money codec that converts between decimal amounts
// and integer minor units (cents).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitDigits is the number of fractional digits carried by an amount.
const MinorUnitDigits = 2

// MaxAmountCents caps a single amount at 999,999,999.99. Sums of up to
// ninety million such amounts still fit in an int64.
const MaxAmountCents int64 = 99_999_999_999

var maxCents = decimal.NewFromInt(MaxAmountCents)

// ToMinorUnits converts a decimal amount to cents.
//
// It never rounds: an amount with more than two fractional digits fails with
// ErrAmountPrecision, and a zero, negative or above MaxAmountCents amount
// fails with ErrAmountRange.
//
// Examples:
//   ToMinorUnits(12.34)  -> 1234, nil
//   ToMinorUnits(12.5)   -> 1250, nil
//   ToMinorUnits(12.345) -> 0, ErrAmountPrecision
//   ToMinorUnits(0)      -> 0, ErrAmountRange
func ToMinorUnits(d decimal.Decimal) (int64, error) {
	if !d.Equal(d.Truncate(MinorUnitDigits)) {
		return 0, ErrAmountPrecision
	}
	if d.Sign() <= 0 {
		return 0, ErrAmountRange
	}
	shifted := d.Shift(MinorUnitDigits)
	if shifted.GreaterThan(maxCents) {
		return 0, ErrAmountRange
	}
	return shifted.IntPart(), nil
}

// ToDecimal returns the decimal value of an amount expressed in cents.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -MinorUnitDigits)
}

// ParseAmount converts a textual amount to cents.
//
// Both dot (12.34) and a lone decimal comma (12,34) are accepted. Text that is
// not a number fails with ErrInvalidAmount; everything else goes through
// ToMinorUnits.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	// decimal accepts exponents; amounts on the wire are plain decimals.
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return ToMinorUnits(d)
}

// NewMoney builds a Money value from a decimal amount.
func NewMoney(d decimal.Decimal) (Money, error) {
	cents, err := ToMinorUnits(d)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// Decimal returns the amount as a decimal for boundary formatting.
// Use Cents for arithmetic.
func (m Money) Decimal() decimal.Decimal {
	return ToDecimal(m.Cents)
}

// String formats the amount with exactly two decimals, e.g. "100.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(MinorUnitDigits)
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// Validate reports ErrAmountRange for amounts outside (0, MaxAmountCents].
func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmountCents {
		return ErrAmountRange
	}
	return nil
}
