// Package model defines the core domain types for the household budget application.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
)

// currencyCodePattern matches three-letter ISO 4217 style codes.
var currencyCodePattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

const (
	maxCurrencySymbolLength = 5
	maxCurrencyNameLength   = 100
)

// Currency is an immutable currency descriptor. Two currencies are equal iff
// their codes match.
type Currency struct {
	Code   string
	Symbol string
	Name   string
}

// NewCurrency validates and builds a Currency. The code is normalized to
// uppercase on creation.
func NewCurrency(code, symbol, name string) (Currency, error) {
	normalized, err := NormalizeCurrencyCode(code)
	if err != nil {
		return Currency{}, err
	}
	if len(symbol) > maxCurrencySymbolLength {
		return Currency{}, common.NewValidationError("symbol", fmt.Sprintf("must be at most %d characters", maxCurrencySymbolLength))
	}
	if len(name) > maxCurrencyNameLength {
		return Currency{}, common.NewValidationError("name", fmt.Sprintf("must be at most %d characters", maxCurrencyNameLength))
	}
	return Currency{Code: normalized, Symbol: symbol, Name: name}, nil
}

// Equal reports whether both currencies denote the same code.
func (c Currency) Equal(other Currency) bool {
	return c.Code == other.Code
}

// IsZero reports whether the currency is the zero value (no code).
func (c Currency) IsZero() bool {
	return c.Code == ""
}

// NormalizeCurrencyCode validates the shape of a currency code and returns it
// uppercased.
func NormalizeCurrencyCode(code string) (string, error) {
	if !currencyCodePattern.MatchString(code) {
		return "", common.NewValidationError("currency code", "must be exactly 3 ASCII letters")
	}
	return strings.ToUpper(code), nil
}

// ExchangeRate is a directional conversion factor between two currency codes.
// It is not symmetric: rate(A→B) is independent of rate(B→A).
type ExchangeRate struct {
	From      string
	To        string
	Rate      decimal.Decimal
	FetchedAt time.Time
}

// NewExchangeRate validates and builds an ExchangeRate. A zero fetchedAt is
// stamped with the current time.
func NewExchangeRate(from, to string, rate decimal.Decimal, fetchedAt time.Time) (ExchangeRate, error) {
	fromCode, err := NormalizeCurrencyCode(from)
	if err != nil {
		return ExchangeRate{}, err
	}
	toCode, err := NormalizeCurrencyCode(to)
	if err != nil {
		return ExchangeRate{}, err
	}
	if rate.Sign() <= 0 {
		return ExchangeRate{}, common.NewValidationError("rate", "must be positive")
	}
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	return ExchangeRate{From: fromCode, To: toCode, Rate: rate, FetchedAt: fetchedAt}, nil
}
