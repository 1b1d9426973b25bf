package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/budget"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/currency"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/events"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/ledger"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/testutil"
)

type engineFixture struct {
	engine       *ExecutionEngine
	plans        *budget.PlanService
	transactions *ledger.TransactionStore
	categories   *ledger.CategoryStore
	provider     *currency.StaticProvider
	repo         service.Repository
	category     *model.Category
}

// setupEngine wires the full graph the way the application composes it:
// transaction events drive the engine, plan mutations trigger refreshes.
func setupEngine(t *testing.T) *engineFixture {
	t.Helper()
	ctx := context.Background()
	repo := testutil.SetupTestDB(t)

	provider := currency.NewDefaultProvider()
	require.NoError(t, provider.SetRate("EUR", "USD", decimal.RequireFromString("1.1")))
	currencySvc := currency.NewService(provider, time.Hour)

	publisher := events.NewPublisher()
	categories := ledger.NewCategoryStore(repo)
	transactions := ledger.NewTransactionStore(repo, categories, publisher)
	plans := budget.NewPlanService(repo)

	eng := New(plans, transactions, currencySvc, repo)
	plans.BindRefresher(eng)
	eng.SubscribeTo(publisher)

	category, err := categories.Create(ctx, "user-1", "Groceries", model.TypeExpense)
	require.NoError(t, err)

	return &engineFixture{
		engine:       eng,
		plans:        plans,
		transactions: transactions,
		categories:   categories,
		provider:     provider,
		repo:         repo,
		category:     category,
	}
}

func (f *engineFixture) createPlan(t *testing.T, currencyCode string) *model.BudgetPlan {
	t.Helper()
	allocation, err := model.NewCategoryBudgetPlan(f.category.ID, currencyCode, decimal.Zero, decimal.NewFromInt(500))
	require.NoError(t, err)

	plan, err := f.plans.Create(context.Background(), budget.CreatePlanInput{
		UserID:        "user-1",
		Name:          "January",
		StartDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		CategoryPlans: []*model.CategoryBudgetPlan{allocation},
	})
	require.NoError(t, err)
	return plan
}

func (f *engineFixture) createTransaction(t *testing.T, date time.Time, amount, currencyCode string, txType model.TransactionType) *model.Transaction {
	t.Helper()
	txn, err := f.transactions.Create(context.Background(), ledger.CreateTransactionInput{
		UserID:       "user-1",
		CategoryID:   f.category.ID,
		Amount:       decimal.RequireFromString(amount),
		CurrencyCode: currencyCode,
		Type:         txType,
		Date:         date,
	})
	require.NoError(t, err)
	return txn
}

func (f *engineFixture) execution(t *testing.T, planID string) *model.CategoryBudgetPlan {
	t.Helper()
	plan, err := f.plans.GetByID(context.Background(), planID)
	require.NoError(t, err)
	allocation := plan.CategoryPlan(f.category.ID)
	require.NotNil(t, allocation)
	return allocation
}

func TestEngine_ExpenseConvertedIntoAllocationCurrency(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")

	// 100 EUR at EUR->USD 1.1 lands as 110 USD executed expense.
	f.createTransaction(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "100", "EUR", model.TypeExpense)

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.Equal(decimal.NewFromInt(110)), "got %s", allocation.ExpenseExecuted)
	assert.True(t, allocation.IncomeExecuted.IsZero())
}

func TestEngine_IncomeAndExpenseTrackedSeparately(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	f.createTransaction(t, jan, "200", "USD", model.TypeIncome)
	f.createTransaction(t, jan, "75", "USD", model.TypeExpense)

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.IncomeExecuted.Equal(decimal.NewFromInt(200)))
	assert.True(t, allocation.ExpenseExecuted.Equal(decimal.NewFromInt(75)))
}

func TestEngine_TransactionOutsidePlanRangeIgnored(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")

	f.createTransaction(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "50", "USD", model.TypeExpense)

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.IsZero())
}

func TestEngine_BoundaryDatesIncluded(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")

	f.createTransaction(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "10", "USD", model.TypeExpense)
	f.createTransaction(t, time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC), "20", "USD", model.TypeExpense)

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.Equal(decimal.NewFromInt(30)))
}

func TestEngine_UnallocatedCategorySkipped(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	other, err := f.categories.Create(ctx, "user-1", "Travel", model.TypeExpense)
	require.NoError(t, err)
	_, err = f.transactions.Create(ctx, ledger.CreateTransactionInput{
		UserID:       "user-1",
		CategoryID:   other.ID,
		Amount:       decimal.NewFromInt(300),
		CurrencyCode: "USD",
		Type:         model.TypeExpense,
		Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err, "a transaction without a matching allocation is not an error")

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.IsZero())
}

func TestEngine_RefreshIsIdempotent(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	f.createTransaction(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "100", "USD", model.TypeExpense)

	require.NoError(t, f.engine.RefreshPlan(ctx, plan.ID))
	require.NoError(t, f.engine.RefreshPlan(ctx, plan.ID))

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.Equal(decimal.NewFromInt(100)), "repeated refreshes must not double-count")
}

func TestEngine_IncrementalMatchesFullRefresh(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	f.createTransaction(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "40", "USD", model.TypeExpense)
	f.createTransaction(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), "100", "EUR", model.TypeExpense)

	incremental := f.execution(t, plan.ID).ExpenseExecuted

	require.NoError(t, f.engine.RefreshPlan(ctx, plan.ID))
	refreshed := f.execution(t, plan.ID).ExpenseExecuted

	assert.True(t, incremental.Equal(refreshed), "incremental %s vs refresh %s", incremental, refreshed)
}

func TestEngine_TransactionUpdateRecomputesExecution(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	txn := f.createTransaction(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "100", "USD", model.TypeExpense)
	_, err := f.transactions.UpdateAmount(ctx, "user-1", txn.ID, decimal.NewFromInt(250))
	require.NoError(t, err)

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.Equal(decimal.NewFromInt(250)), "the old amount must not linger")
}

func TestEngine_TransactionDeleteRecomputesExecution(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	f.createTransaction(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "60", "USD", model.TypeExpense)
	gone := f.createTransaction(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), "40", "USD", model.TypeExpense)

	require.NoError(t, f.transactions.Delete(ctx, "user-1", gone.ID))

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.Equal(decimal.NewFromInt(60)), "deleted transaction must not count")
}

func TestEngine_DateMoveOutOfRangeRecomputesExecution(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	txn := f.createTransaction(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "80", "USD", model.TypeExpense)
	_, err := f.transactions.UpdateDate(ctx, "user-1", txn.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.IsZero())
}

func TestEngine_CategoryMoveRecomputesExecution(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	other, err := f.categories.Create(ctx, "user-1", "Travel", model.TypeExpense)
	require.NoError(t, err)

	txn := f.createTransaction(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "80", "USD", model.TypeExpense)
	require.True(t, f.execution(t, plan.ID).ExpenseExecuted.Equal(decimal.NewFromInt(80)))

	// Moving the transaction to an unallocated category must drop it from
	// the plan it used to count toward.
	_, err = f.transactions.UpdateCategory(ctx, "user-1", txn.ID, other.ID)
	require.NoError(t, err)

	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.IsZero(), "got %s", allocation.ExpenseExecuted)
}

func TestEngine_PlanDateChangeRecomputesExecution(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	f.createTransaction(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "120", "USD", model.TypeExpense)
	assert.True(t, f.execution(t, plan.ID).ExpenseExecuted.IsZero())

	require.NoError(t, f.plans.UpdateDates(ctx, plan.ID,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))

	assert.True(t, f.execution(t, plan.ID).ExpenseExecuted.Equal(decimal.NewFromInt(120)))
}

func TestEngine_AddingAllocationBackfillsHistory(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	plan, err := f.plans.Create(ctx, budget.CreatePlanInput{
		UserID:    "user-1",
		Name:      "Empty",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	f.createTransaction(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "90", "USD", model.TypeExpense)

	allocation, err := model.NewCategoryBudgetPlan(f.category.ID, "USD", decimal.Zero, decimal.NewFromInt(500))
	require.NoError(t, err)
	require.NoError(t, f.plans.AddCategoryPlan(ctx, plan.ID, allocation))

	assert.True(t, f.execution(t, plan.ID).ExpenseExecuted.Equal(decimal.NewFromInt(90)),
		"a new allocation picks up pre-existing transactions")
}

func TestEngine_ConversionFailureAbortsRefresh(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	f.createTransaction(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "100", "USD", model.TypeExpense)

	// GBP is supported but no GBP->USD rate exists. Dated before the USD
	// transaction, it fails the replay partway through.
	_, err := f.transactions.Create(ctx, ledger.CreateTransactionInput{
		UserID:       "user-1",
		CategoryID:   f.category.ID,
		Amount:       decimal.NewFromInt(10),
		CurrencyCode: "GBP",
		Type:         model.TypeExpense,
		Date:         time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRateUnavailable))

	// The aborted refresh must leave the pre-existing totals intact, both in
	// the cached plan and in the database.
	allocation := f.execution(t, plan.ID)
	assert.True(t, allocation.ExpenseExecuted.Equal(decimal.NewFromInt(100)),
		"cached total clobbered by aborted refresh: got %s", allocation.ExpenseExecuted)

	freshPlans := budget.NewPlanService(f.repo)
	persisted, err := freshPlans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	stored := persisted.CategoryPlan(f.category.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.ExpenseExecuted.Equal(decimal.NewFromInt(100)),
		"persisted total clobbered by aborted refresh: got %s", stored.ExpenseExecuted)
}

func TestEngine_RefreshPlanNotFound(t *testing.T) {
	f := setupEngine(t)
	err := f.engine.RefreshPlan(context.Background(), "missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestEngine_RefreshAllPlans(t *testing.T) {
	f := setupEngine(t)
	first := f.createPlan(t, "USD")
	ctx := context.Background()

	second, err := f.plans.Create(ctx, budget.CreatePlanInput{
		UserID:    "user-1",
		Name:      "Overlap",
		StartDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		CategoryPlans: func() []*model.CategoryBudgetPlan {
			cp, cpErr := model.NewCategoryBudgetPlan(f.category.ID, "USD", decimal.Zero, decimal.NewFromInt(100))
			require.NoError(t, cpErr)
			return []*model.CategoryBudgetPlan{cp}
		}(),
	})
	require.NoError(t, err)

	f.createTransaction(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "50", "USD", model.TypeExpense)

	require.NoError(t, f.engine.RefreshAllPlans(ctx, "user-1"))

	assert.True(t, f.execution(t, first.ID).ExpenseExecuted.Equal(decimal.NewFromInt(50)))
	assert.True(t, f.execution(t, second.ID).ExpenseExecuted.Equal(decimal.NewFromInt(50)),
		"overlapping plans each count the transaction")
}

func TestEngine_ApplyTransactionValidation(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	assert.Error(t, f.engine.ApplyTransaction(ctx, nil))

	txn := &model.Transaction{
		ID: "txn-1", UserID: "user-1", CategoryID: f.category.ID,
		Amount: decimal.Zero, CurrencyCode: "USD", Type: model.TypeExpense,
	}
	err := f.engine.ApplyTransaction(ctx, txn)
	assert.True(t, common.IsValidation(err))
}

func TestEngine_ExecutionSurvivesRestart(t *testing.T) {
	f := setupEngine(t)
	plan := f.createPlan(t, "USD")
	ctx := context.Background()

	f.createTransaction(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "100", "EUR", model.TypeExpense)

	// Simulate a restart: a fresh plan service reads straight from the database.
	freshPlans := budget.NewPlanService(f.repo)
	loaded, err := freshPlans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	allocation := loaded.CategoryPlan(f.category.ID)
	require.NotNil(t, allocation)
	assert.True(t, allocation.ExpenseExecuted.Equal(decimal.NewFromInt(110)))
}
