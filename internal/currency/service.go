// Package currency implements currency metadata lookup and monetary
// conversion with a TTL-bounded exchange rate cache.
package currency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

// DefaultRateTTL is how long a fetched exchange rate stays valid.
const DefaultRateTTL = 15 * time.Minute

// RateProvider supplies currency metadata and raw exchange rates. It may be
// backed by a static table or a live external service.
type RateProvider interface {
	GetCurrency(ctx context.Context, code string) (model.Currency, error)
	SupportedCurrencies(ctx context.Context) ([]model.Currency, error)
	GetRate(ctx context.Context, from, to string) (model.ExchangeRate, error)
}

type pairKey struct {
	from string
	to   string
}

// Service resolves currencies and converts amounts between them. Rate
// lookups for an ordered currency pair are cached; expiry is measured from
// the rate's retrieval time, not from when it entered the cache.
type Service struct {
	provider RateProvider
	ttl      time.Duration

	mu    sync.RWMutex
	cache map[pairKey]model.ExchangeRate
}

// NewService creates a currency service. A non-positive ttl falls back to
// DefaultRateTTL.
func NewService(provider RateProvider, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}
	return &Service{
		provider: provider,
		ttl:      ttl,
		cache:    make(map[pairKey]model.ExchangeRate),
	}
}

// GetCurrencyByCode looks up a supported currency, case-insensitively.
func (s *Service) GetCurrencyByCode(ctx context.Context, code string) (model.Currency, error) {
	normalized, err := model.NormalizeCurrencyCode(code)
	if err != nil {
		return model.Currency{}, err
	}
	currency, err := s.provider.GetCurrency(ctx, normalized)
	if err != nil {
		return model.Currency{}, fmt.Errorf("currency %s: %w", normalized, err)
	}
	return currency, nil
}

// GetSupportedCurrencies returns the provider's supported currency set.
func (s *Service) GetSupportedCurrencies(ctx context.Context) ([]model.Currency, error) {
	return s.provider.SupportedCurrencies(ctx)
}

// GetExchangeRate resolves the rate for an ordered currency pair, serving
// from the cache while the cached rate is still within its TTL.
func (s *Service) GetExchangeRate(ctx context.Context, fromCode, toCode string) (model.ExchangeRate, error) {
	from, err := model.NormalizeCurrencyCode(fromCode)
	if err != nil {
		return model.ExchangeRate{}, err
	}
	to, err := model.NormalizeCurrencyCode(toCode)
	if err != nil {
		return model.ExchangeRate{}, err
	}

	key := pairKey{from: from, to: to}

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && time.Since(cached.FetchedAt) < s.ttl {
		return cached, nil
	}

	rate, err := s.provider.GetRate(ctx, from, to)
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("rate %s->%s: %w", from, to, err)
	}

	// Last write wins; stale entries are simply overwritten.
	s.mu.Lock()
	s.cache[key] = rate
	s.mu.Unlock()

	slog.Debug("fetched exchange rate", "from", from, "to", to, "rate", rate.Rate)
	return rate, nil
}

// Convert converts an amount between two currencies. Same-currency
// conversions return the amount unchanged without a rate lookup.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to model.Currency) (decimal.Decimal, error) {
	if from.IsZero() {
		return decimal.Decimal{}, common.NewValidationError("from currency", "is required")
	}
	if to.IsZero() {
		return decimal.Decimal{}, common.NewValidationError("to currency", "is required")
	}
	if from.Equal(to) {
		return amount, nil
	}

	rate, err := s.GetExchangeRate(ctx, from.Code, to.Code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate.Rate), nil
}
