package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/analysis"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/budget"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/config"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/currency"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/engine"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/events"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/ledger"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/session"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/storage"
)

// app wires the full service graph for one CLI invocation.
type app struct {
	storage      *storage.SQLiteStorage
	currency     *currency.Service
	categories   *ledger.CategoryStore
	transactions *ledger.TransactionStore
	plans        *budget.PlanService
	engine       *engine.ExecutionEngine
	reports      *analysis.ReportService
	session      session.Provider
	userID       string
}

func newApp(ctx context.Context) (*app, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	userID := viper.GetString("session.user")
	if userID == "" {
		_ = store.Close()
		return nil, fmt.Errorf("%w: session.user (set --user or the config file)", common.ErrMissingConfig)
	}
	if err := ensureUser(ctx, store, userID); err != nil {
		_ = store.Close()
		return nil, err
	}

	provider := currency.NewDefaultProvider()
	if err := loadConfiguredRates(provider); err != nil {
		_ = store.Close()
		return nil, err
	}
	currencySvc := currency.NewService(provider, viper.GetDuration("currency.rate_ttl"))

	publisher := events.NewPublisher()
	categories := ledger.NewCategoryStore(store)
	transactions := ledger.NewTransactionStore(store, categories, publisher)
	plans := budget.NewPlanService(store)
	executionEngine := engine.New(plans, transactions, currencySvc, store)
	plans.BindRefresher(executionEngine)
	executionEngine.SubscribeTo(publisher)

	sessionProvider := session.NewStaticProvider(store, userID)
	reports := analysis.NewReportService(transactions, currencySvc, sessionProvider)

	return &app{
		storage:      store,
		currency:     currencySvc,
		categories:   categories,
		transactions: transactions,
		plans:        plans,
		engine:       executionEngine,
		reports:      reports,
		session:      sessionProvider,
		userID:       userID,
	}, nil
}

func (a *app) Close() {
	_ = a.storage.Close()
}

// ensureUser creates the session user on first run.
func ensureUser(ctx context.Context, store *storage.SQLiteStorage, userID string) error {
	_, err := store.GetUserByID(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	defaultCurrency, err := model.NormalizeCurrencyCode(viper.GetString("session.currency"))
	if err != nil {
		return err
	}
	return store.SaveUser(ctx, &model.User{
		ID:                  userID,
		Name:                userID,
		DefaultCurrencyCode: defaultCurrency,
		CreatedAt:           time.Now().UTC(),
	})
}

// loadConfiguredRates reads rate entries of the form "EUR/USD=1.1000" from
// the currency.rates config list.
func loadConfiguredRates(provider *currency.StaticProvider) error {
	for _, entry := range viper.GetStringSlice("currency.rates") {
		pair, value, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("%w: rate entry %q (expected FROM/TO=RATE)", common.ErrInvalidConfig, entry)
		}
		from, to, ok := strings.Cut(pair, "/")
		if !ok {
			return fmt.Errorf("%w: rate entry %q (expected FROM/TO=RATE)", common.ErrInvalidConfig, entry)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: rate entry %q: %v", common.ErrInvalidConfig, entry, err)
		}
		if err := provider.SetRate(strings.TrimSpace(from), strings.TrimSpace(to), rate); err != nil {
			return err
		}
	}
	return nil
}

// parseDate accepts YYYY-MM-DD. An empty value returns the zero time.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return parsed.UTC(), nil
}
