// Package engine implements the budget execution engine: it keeps each
// allocation's executed totals in sync with actual transactions, either by
// applying a single transaction incrementally or by replaying the full
// history.
package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
)

// PlanSource is the read-only slice of the plan service the engine needs.
type PlanSource interface {
	GetAll(ctx context.Context, userID string) ([]*model.BudgetPlan, error)
	GetByID(ctx context.Context, planID string) (*model.BudgetPlan, error)
}

// TransactionSource supplies the transaction history for replay.
type TransactionSource interface {
	Get(ctx context.Context, userID string, filter *service.TransactionFilter) ([]*model.Transaction, error)
}

// CurrencyConverter resolves currencies and converts amounts between them.
type CurrencyConverter interface {
	GetCurrencyByCode(ctx context.Context, code string) (model.Currency, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to model.Currency) (decimal.Decimal, error)
}
