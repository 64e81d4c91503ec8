// Package money holds decimal amounts tagged with an ISO 4217 currency and
// converts them to and from the integer minor units payment gateways use.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch is returned when combining amounts in different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrMinorUnitOverflow is returned when an amount has no int64 minor-unit form.
	ErrMinorUnitOverflow = errors.New("amount exceeds the minor unit range")
)

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// Money is an amount in a single currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New returns amount in currency. The currency code is upper-cased.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}
}

// Zero returns a zero amount in currency.
func Zero(currency string) Money {
	return New(decimal.Zero, currency)
}

// Add returns m+o. Both must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("add %s to %s: %w", o.Currency, m.Currency, ErrCurrencyMismatch)
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Mul returns m multiplied by a quantity.
func (m Money) Mul(quantity int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(quantity))), Currency: m.Currency}
}

// Equal compares currency and numeric value, ignoring decimal scale.
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) String() string {
	return m.Amount.StringFixed(Precision(m.Currency)) + " " + m.Currency
}

var (
	zeroDecimal = map[string]struct{}{
		"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "ISK": {}, "JPY": {}, "KMF": {}, "KRW": {},
		"MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
	}
	threeDecimal = map[string]struct{}{
		"BHD": {}, "IQD": {}, "JOD": {}, "KWD": {}, "LYD": {}, "OMR": {}, "TND": {},
	}
)

// Precision returns the number of minor-unit digits for an ISO 4217 currency.
func Precision(currency string) int32 {
	code := strings.ToUpper(currency)
	if _, ok := zeroDecimal[code]; ok {
		return 0
	}
	if _, ok := threeDecimal[code]; ok {
		return 3
	}
	return 2
}

// ToMinorUnit rounds amount half-up to the currency precision and returns it
// as an integer count of minor units, e.g. 10.005 USD -> 1001. Amounts whose
// minor-unit value does not fit in an int64 fail with ErrMinorUnitOverflow.
func ToMinorUnit(amount decimal.Decimal, currency string) (int64, error) {
	prec := Precision(currency)
	minor := amount.Round(prec).Shift(prec)
	if minor.LessThan(minInt64) || minor.GreaterThan(maxInt64) {
		return 0, fmt.Errorf("%s %s: %w", amount.String(), strings.ToUpper(currency), ErrMinorUnitOverflow)
	}
	return minor.IntPart(), nil
}

// FromMinorUnit converts an integer minor-unit value back to a decimal amount.
func FromMinorUnit(value int64, currency string) decimal.Decimal {
	return decimal.New(value, -Precision(currency))
}
