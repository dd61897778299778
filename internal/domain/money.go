package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func ZeroMoney(cur currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: cur}
}

// MoneyFromMinor converts an integer amount of minor units (cents for USD)
// into major units using the currency's standard scale.
func MoneyFromMinor(minor int64, cur currency.Unit) Money {
	return Money{
		Amount:   decimal.New(minor, -minorScale(cur)),
		Currency: cur,
	}
}

// MinorUnits rounds the amount to the currency's standard scale, so 49.99 USD is 4999.
func (m Money) MinorUnits() int64 {
	return m.Amount.Shift(minorScale(m.Currency)).Round(0).IntPart()
}

func (m Money) Times(quantity int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(quantity))), Currency: m.Currency}
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// AmountString formats the amount with the currency's standard scale, "50.00" for 50 USD.
func (m Money) AmountString() string {
	return m.Amount.StringFixed(minorScale(m.Currency))
}

func (m Money) String() string {
	return m.AmountString() + " " + m.Currency.String()
}

// GatewayCurrency is the lowercase ISO code payment processors expect.
func GatewayCurrency(cur currency.Unit) string {
	return strings.ToLower(cur.String())
}

func ParseCurrency(code string) (currency.Unit, error) {
	cur, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return currency.Unit{}, fmt.Errorf("%w: currency[%s] is not valid", ErrValidation, code)
	}

	return cur, nil
}

func minorScale(cur currency.Unit) int32 {
	scale, _ := currency.Standard.Rounding(cur)
	return int32(scale)
}
