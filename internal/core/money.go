// Package core provides the spending domain types.
//
// This file contains Amount, the numeric "count" of a spending, backed by
// shopspring/decimal so values survive JSON and SQL round trips exactly.
package core

import (
	"github.com/shopspring/decimal"
)

// Amount is a decimal quantity. It marshals to a bare JSON number, which is
// what the API sends and expects, and unmarshals from either a number or a
// quoted string.
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from a float.
func NewAmount(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

// ParseAmount parses a decimal string. Comma decimal separators are
// accepted.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(normalizeDecimal(s))
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{Decimal: d}, nil
}

// MustAmount is ParseAmount for literals; it panics on bad input.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// Validate rejects zero and negative amounts.
func (a Amount) Validate() error {
	if !a.Decimal.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Equal compares values, ignoring representation (1.50 == 1.5).
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

func normalizeDecimal(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			continue
		case c == ',':
			out = append(out, '.')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
