package entities

import (
	"fmt"
	"math"
	"strings"
)

// Money is a fixed-point decimal amount with 4 fractional digits, per spec.
// Internally stored as minor units scaled by 10^4 to avoid float drift.
type Money struct {
	MinorUnits int64  `json:"-"`
	Currency   string `json:"currency"`
}

const moneyScale = 10000

// errNegativeAmount is returned when an amount would be negative.
var errNegativeAmount = fmt.Errorf("amount must not be negative")

// NewMoney builds a Money from a decimal string amount (e.g. "1000.00") and an ISO 4217 currency code.
func NewMoney(amount string, currency string) (Money, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return Money{}, fmt.Errorf("amount is required")
	}
	neg := strings.HasPrefix(amount, "-")
	if neg {
		return Money{}, errNegativeAmount
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 4 {
		return Money{}, fmt.Errorf("amount %q exceeds 4 fractional digits", amount)
	}
	for len(frac) < 4 {
		frac += "0"
	}

	var wholeUnits, fracUnits int64
	if _, err := fmt.Sscanf(whole, "%d", &wholeUnits); err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if frac != "" {
		if _, err := fmt.Sscanf(frac, "%d", &fracUnits); err != nil {
			return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
		}
	}

	return Money{
		MinorUnits: wholeUnits*moneyScale + fracUnits,
		Currency:   strings.ToUpper(currency),
	}, nil
}

// MustMoney is NewMoney but panics on error; used for test fixtures and constants.
func MustMoney(amount, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// String renders the amount as a decimal string with 4 fractional digits.
func (m Money) String() string {
	whole := m.MinorUnits / moneyScale
	frac := m.MinorUnits % moneyScale
	return fmt.Sprintf("%d.%04d", whole, frac)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.MinorUnits > 0
}

// Compare returns -1, 0, or 1 when m is less than, equal to, or greater than other.
// Panics if currencies differ; callers must check CurrencyEquals first.
func (m Money) Compare(other Money) int {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("cannot compare %s to %s", m.Currency, other.Currency))
	}
	switch {
	case m.MinorUnits < other.MinorUnits:
		return -1
	case m.MinorUnits > other.MinorUnits:
		return 1
	default:
		return 0
	}
}

// CurrencyEquals reports whether both amounts share the same ISO 4217 code.
func (m Money) CurrencyEquals(other Money) bool {
	return m.Currency == other.Currency
}

// knownCurrencies is a minimal ISO 4217 allowlist for structural validation at acceptance.
var knownCurrencies = map[string]bool{
	"ZAR": true, "USD": true, "EUR": true, "GBP": true, "BWP": true, "NAD": true,
}

// IsKnownCurrency reports whether currency is in the accepted ISO 4217 set.
func IsKnownCurrency(currency string) bool {
	return knownCurrencies[strings.ToUpper(currency)]
}

// Float64 returns an approximate float64 representation, for heuristics only
// (amount-band routing, fee display) — never for ledger-affecting arithmetic.
func (m Money) Float64() float64 {
	return float64(m.MinorUnits) / moneyScale
}

// Abs returns the absolute value, useful for diffing settlement amounts.
func (m Money) Abs() Money {
	v := m.MinorUnits
	if v < 0 {
		v = -v
	}
	return Money{MinorUnits: v, Currency: m.Currency}
}

// roundPercent returns minor units after applying a percentage (0-100) fee.
func roundPercent(minorUnits int64, percent float64) int64 {
	return int64(math.Round(float64(minorUnits) * percent / 100))
}
