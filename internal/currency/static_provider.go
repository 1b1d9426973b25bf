package currency

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

// StaticProvider is a RateProvider backed by an in-memory currency set and
// rate table.
type StaticProvider struct {
	mu         sync.RWMutex
	currencies map[string]model.Currency
	rates      map[pairKey]decimal.Decimal
}

// NewStaticProvider creates an empty provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		currencies: make(map[string]model.Currency),
		rates:      make(map[pairKey]decimal.Decimal),
	}
}

// NewDefaultProvider creates a provider seeded with the default supported
// currency set.
func NewDefaultProvider() *StaticProvider {
	p := NewStaticProvider()
	defaults := []struct {
		code, symbol, name string
	}{
		{"USD", "$", "United States Dollar"},
		{"EUR", "€", "Euro"},
		{"GBP", "£", "British Pound"},
		{"PLN", "zł", "Polish Złoty"},
		{"JPY", "¥", "Japanese Yen"},
		{"CHF", "CHF", "Swiss Franc"},
	}
	for _, d := range defaults {
		currency, err := model.NewCurrency(d.code, d.symbol, d.name)
		if err != nil {
			// The built-in set is static and valid.
			panic(fmt.Sprintf("invalid built-in currency %s: %v", d.code, err))
		}
		p.AddCurrency(currency)
	}
	return p
}

// AddCurrency registers a supported currency.
func (p *StaticProvider) AddCurrency(currency model.Currency) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currencies[currency.Code] = currency
}

// SetRate defines the conversion factor for an ordered currency pair.
func (p *StaticProvider) SetRate(from, to string, rate decimal.Decimal) error {
	fromCode, err := model.NormalizeCurrencyCode(from)
	if err != nil {
		return err
	}
	toCode, err := model.NormalizeCurrencyCode(to)
	if err != nil {
		return err
	}
	if rate.Sign() <= 0 {
		return common.NewValidationError("rate", "must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.rates[pairKey{from: fromCode, to: toCode}] = rate
	return nil
}

// GetCurrency returns the supported currency with the given code.
func (p *StaticProvider) GetCurrency(_ context.Context, code string) (model.Currency, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	currency, ok := p.currencies[code]
	if !ok {
		return model.Currency{}, common.ErrUnsupportedCurrency
	}
	return currency, nil
}

// SupportedCurrencies returns all registered currencies sorted by code.
func (p *StaticProvider) SupportedCurrencies(_ context.Context) ([]model.Currency, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	currencies := make([]model.Currency, 0, len(p.currencies))
	for _, currency := range p.currencies {
		currencies = append(currencies, currency)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].Code < currencies[j].Code })
	return currencies, nil
}

// GetRate returns the rate for an ordered pair, stamped with the current
// time.
func (p *StaticProvider) GetRate(_ context.Context, from, to string) (model.ExchangeRate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.currencies[from]; !ok {
		return model.ExchangeRate{}, common.ErrUnsupportedCurrency
	}
	if _, ok := p.currencies[to]; !ok {
		return model.ExchangeRate{}, common.ErrUnsupportedCurrency
	}
	rate, ok := p.rates[pairKey{from: from, to: to}]
	if !ok {
		return model.ExchangeRate{}, common.ErrRateUnavailable
	}
	return model.NewExchangeRate(from, to, rate, time.Now().UTC())
}
