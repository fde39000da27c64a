package domain

import (
	"github.com/shopspring/decimal"
)

// Money is a decimal amount that always serializes with two fraction digits.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(d), nil
}

// MustMoney is for literals in tests and seed code.
func MustMoney(s string) Money {
	m, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

func (m Money) String() string {
	return m.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// LineTotal is quantity × price rounded to cents.
func LineTotal(quantity int, price Money) Money {
	return NewMoney(price.Mul(decimal.NewFromInt(int64(quantity))))
}
