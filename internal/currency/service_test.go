package currency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

// countingProvider wraps a StaticProvider and counts rate lookups.
type countingProvider struct {
	*StaticProvider
	rateCalls int
	fetchedAt time.Time
}

func (p *countingProvider) GetRate(ctx context.Context, from, to string) (model.ExchangeRate, error) {
	p.rateCalls++
	rate, err := p.StaticProvider.GetRate(ctx, from, to)
	if err != nil {
		return model.ExchangeRate{}, err
	}
	if !p.fetchedAt.IsZero() {
		rate.FetchedAt = p.fetchedAt
	}
	return rate, nil
}

func newTestProvider(t *testing.T) *countingProvider {
	t.Helper()
	provider := &countingProvider{StaticProvider: NewDefaultProvider()}
	require.NoError(t, provider.SetRate("EUR", "USD", decimal.RequireFromString("1.1")))
	require.NoError(t, provider.SetRate("USD", "EUR", decimal.RequireFromString("0.91")))
	return provider
}

func mustCurrency(t *testing.T, svc *Service, code string) model.Currency {
	t.Helper()
	currency, err := svc.GetCurrencyByCode(context.Background(), code)
	require.NoError(t, err)
	return currency
}

func TestService_GetCurrencyByCode(t *testing.T) {
	svc := NewService(newTestProvider(t), 0)
	ctx := context.Background()

	currency, err := svc.GetCurrencyByCode(ctx, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", currency.Code)
	assert.Equal(t, "$", currency.Symbol)

	_, err = svc.GetCurrencyByCode(ctx, "XYZ")
	assert.True(t, errors.Is(err, common.ErrUnsupportedCurrency))

	_, err = svc.GetCurrencyByCode(ctx, "not-a-code")
	assert.True(t, common.IsValidation(err))
}

func TestService_GetSupportedCurrencies(t *testing.T) {
	svc := NewService(newTestProvider(t), 0)

	currencies, err := svc.GetSupportedCurrencies(context.Background())
	require.NoError(t, err)
	require.Len(t, currencies, 6)

	codes := make([]string, len(currencies))
	for i, c := range currencies {
		codes[i] = c.Code
	}
	assert.Equal(t, []string{"CHF", "EUR", "GBP", "JPY", "PLN", "USD"}, codes)
}

func TestService_GetExchangeRate_CachesWithinTTL(t *testing.T) {
	provider := newTestProvider(t)
	svc := NewService(provider, time.Hour)
	ctx := context.Background()

	first, err := svc.GetExchangeRate(ctx, "EUR", "USD")
	require.NoError(t, err)
	second, err := svc.GetExchangeRate(ctx, "eur", "usd")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.rateCalls, "second lookup within the TTL is served from the cache")
	assert.True(t, first.Rate.Equal(second.Rate))
	assert.Equal(t, first.FetchedAt, second.FetchedAt)
}

func TestService_GetExchangeRate_RefetchesExpiredRate(t *testing.T) {
	provider := newTestProvider(t)
	provider.fetchedAt = time.Now().UTC().Add(-2 * time.Hour)
	svc := NewService(provider, time.Hour)
	ctx := context.Background()

	_, err := svc.GetExchangeRate(ctx, "EUR", "USD")
	require.NoError(t, err)
	_, err = svc.GetExchangeRate(ctx, "EUR", "USD")
	require.NoError(t, err)

	assert.Equal(t, 2, provider.rateCalls, "an expired cache entry triggers a fresh lookup")
}

func TestService_GetExchangeRate_DirectionalPairs(t *testing.T) {
	provider := newTestProvider(t)
	svc := NewService(provider, time.Hour)
	ctx := context.Background()

	forward, err := svc.GetExchangeRate(ctx, "EUR", "USD")
	require.NoError(t, err)
	reverse, err := svc.GetExchangeRate(ctx, "USD", "EUR")
	require.NoError(t, err)

	assert.Equal(t, 2, provider.rateCalls, "each direction is its own cache entry")
	assert.False(t, forward.Rate.Equal(reverse.Rate))
}

func TestService_GetExchangeRate_Errors(t *testing.T) {
	svc := NewService(newTestProvider(t), 0)
	ctx := context.Background()

	_, err := svc.GetExchangeRate(ctx, "USD", "XXX")
	assert.True(t, errors.Is(err, common.ErrUnsupportedCurrency))

	// Both currencies supported but no rate defined for the pair.
	_, err = svc.GetExchangeRate(ctx, "GBP", "JPY")
	assert.True(t, errors.Is(err, common.ErrRateUnavailable))
}

func TestService_Convert(t *testing.T) {
	provider := newTestProvider(t)
	svc := NewService(provider, time.Hour)
	ctx := context.Background()

	eur := mustCurrency(t, svc, "EUR")
	usd := mustCurrency(t, svc, "USD")

	converted, err := svc.Convert(ctx, decimal.NewFromInt(100), eur, usd)
	require.NoError(t, err)
	assert.True(t, converted.Equal(decimal.NewFromInt(110)), "got %s", converted)
}

func TestService_Convert_SameCurrencySkipsRateLookup(t *testing.T) {
	provider := newTestProvider(t)
	svc := NewService(provider, time.Hour)
	ctx := context.Background()

	usd := mustCurrency(t, svc, "USD")
	amount := decimal.RequireFromString("42.42")

	converted, err := svc.Convert(ctx, amount, usd, usd)
	require.NoError(t, err)
	assert.True(t, converted.Equal(amount))
	assert.Equal(t, 0, provider.rateCalls, "identity conversion must not consult the provider")
}

func TestService_Convert_RejectsZeroCurrencies(t *testing.T) {
	svc := NewService(newTestProvider(t), 0)
	ctx := context.Background()
	usd := mustCurrency(t, svc, "USD")

	_, err := svc.Convert(ctx, decimal.NewFromInt(1), model.Currency{}, usd)
	assert.True(t, common.IsValidation(err))

	_, err = svc.Convert(ctx, decimal.NewFromInt(1), usd, model.Currency{})
	assert.True(t, common.IsValidation(err))
}

func TestStaticProvider_SetRate_Validation(t *testing.T) {
	provider := NewStaticProvider()

	assert.Error(t, provider.SetRate("EURO", "USD", decimal.NewFromInt(1)))
	assert.Error(t, provider.SetRate("EUR", "USD", decimal.Zero))
	assert.Error(t, provider.SetRate("EUR", "USD", decimal.NewFromInt(-2)))
}
