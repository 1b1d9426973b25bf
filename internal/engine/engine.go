package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/events"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
)

// ExecutionEngine synchronizes budget plan executed totals with transaction
// reality. Execution is a commutative sum per category and currency, so
// results are independent of transaction processing order, and a full
// refresh is idempotent.
type ExecutionEngine struct {
	plans        PlanSource
	transactions TransactionSource
	currency     CurrencyConverter
	repo         service.Repository
}

// New creates an execution engine.
func New(plans PlanSource, transactions TransactionSource, currency CurrencyConverter, repo service.Repository) *ExecutionEngine {
	return &ExecutionEngine{
		plans:        plans,
		transactions: transactions,
		currency:     currency,
		repo:         repo,
	}
}

// SubscribeTo registers the engine on the transaction event publisher.
func (e *ExecutionEngine) SubscribeTo(publisher *events.Publisher) {
	publisher.Subscribe(e.HandleTransactionEvent)
}

// ApplyTransaction incrementally applies one transaction to every plan whose
// date range includes it. Plans without an allocation for the transaction's
// category are skipped; that is an intentional no-op, not an error.
func (e *ExecutionEngine) ApplyTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateApplicable(txn); err != nil {
		return err
	}

	plans, err := e.plans.GetAll(ctx, txn.UserID)
	if err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}

	for _, plan := range plans {
		if !plan.IncludesDate(txn.Date) {
			continue
		}
		applied, err := e.applyToPlan(ctx, plan, txn)
		if err != nil {
			return err
		}
		if !applied {
			continue
		}
		if err := e.persistPlan(ctx, plan); err != nil {
			return err
		}
	}
	return nil
}

// RefreshPlan clears a plan's executed totals and replays the owner's entire
// transaction history. Running it twice in a row yields identical totals.
func (e *ExecutionEngine) RefreshPlan(ctx context.Context, planID string) error {
	plan, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	return e.refreshPlan(ctx, plan, "")
}

// RefreshAllPlans performs a full refresh of every plan owned by the user.
func (e *ExecutionEngine) RefreshAllPlans(ctx context.Context, userID string) error {
	plans, err := e.plans.GetAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}
	for _, plan := range plans {
		if err := e.refreshPlan(ctx, plan, ""); err != nil {
			return err
		}
	}
	return nil
}

// HandleTransactionEvent reacts to a transaction lifecycle event by fully
// refreshing exactly the plans affected by it. An update can move a
// transaction between dates or categories, so both the pre-mutation state
// (event.Previous) and the new state select plans: the plan the transaction
// left must forget it, the plan it entered must count it.
func (e *ExecutionEngine) HandleTransactionEvent(ctx context.Context, event events.TransactionEvent) error {
	txn := event.Transaction
	if txn == nil {
		return nil
	}

	// A deletion event arrives before the transaction leaves the store, so
	// the replay must exclude it.
	skipID := ""
	if event.Kind == events.TransactionDeleted {
		skipID = txn.ID
	}

	plans, err := e.plans.GetAll(ctx, txn.UserID)
	if err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}

	for _, plan := range plans {
		if !planCovers(plan, txn) && !planCovers(plan, event.Previous) {
			continue
		}
		if err := e.refreshPlan(ctx, plan, skipID); err != nil {
			return err
		}
	}
	return nil
}

// planCovers reports whether the transaction state falls inside the plan's
// date range with an allocation for its category.
func planCovers(plan *model.BudgetPlan, txn *model.Transaction) bool {
	if txn == nil {
		return false
	}
	return plan.IncludesDate(txn.Date) && plan.CategoryPlan(txn.CategoryID) != nil
}

// refreshPlan replays the full history, skipping the transaction with skipID
// when set. The replay runs against scratch copies of the allocations; the
// live plan only absorbs the result once it has been persisted, so an aborted
// refresh (a conversion failure, a write error) leaves both the cached and the
// stored totals untouched. Silently skipping an unconvertible transaction
// would under-report execution, hence the abort.
func (e *ExecutionEngine) refreshPlan(ctx context.Context, plan *model.BudgetPlan, skipID string) error {
	scratch := make([]*model.CategoryBudgetPlan, len(plan.CategoryPlans))
	for i, categoryPlan := range plan.CategoryPlans {
		clone := *categoryPlan
		clone.ClearExecution()
		scratch[i] = &clone
	}
	replayed := *plan
	replayed.CategoryPlans = scratch

	transactions, err := e.transactions.Get(ctx, plan.UserID, nil)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	for _, txn := range transactions {
		if skipID != "" && txn.ID == skipID {
			continue
		}
		if !replayed.IncludesDate(txn.Date) {
			continue
		}
		if _, err := e.applyToPlan(ctx, &replayed, txn); err != nil {
			return err
		}
	}

	if err := e.persistPlan(ctx, &replayed); err != nil {
		return err
	}

	for i, categoryPlan := range plan.CategoryPlans {
		categoryPlan.IncomeExecuted = scratch[i].IncomeExecuted
		categoryPlan.ExpenseExecuted = scratch[i].ExpenseExecuted
	}

	slog.Debug("refreshed plan execution", "plan_id", plan.ID, "allocations", len(plan.CategoryPlans))
	return nil
}

// applyToPlan converts the transaction amount into the allocation's currency
// and adds it to the matching executed total. Returns false when the plan
// holds no allocation for the transaction's category.
func (e *ExecutionEngine) applyToPlan(ctx context.Context, plan *model.BudgetPlan, txn *model.Transaction) (bool, error) {
	allocation := plan.CategoryPlan(txn.CategoryID)
	if allocation == nil {
		return false, nil
	}

	from, err := e.currency.GetCurrencyByCode(ctx, txn.CurrencyCode)
	if err != nil {
		return false, err
	}
	to, err := e.currency.GetCurrencyByCode(ctx, allocation.CurrencyCode)
	if err != nil {
		return false, err
	}
	converted, err := e.currency.Convert(ctx, txn.Amount, from, to)
	if err != nil {
		return false, err
	}

	if txn.Type == model.TypeIncome {
		allocation.AddExecution(converted, decimal.Zero)
	} else {
		allocation.AddExecution(decimal.Zero, converted)
	}
	return true, nil
}

func (e *ExecutionEngine) persistPlan(ctx context.Context, plan *model.BudgetPlan) error {
	if err := e.repo.UpdateBudgetPlan(ctx, plan); err != nil {
		return fmt.Errorf("failed to persist plan execution: %w", err)
	}
	return e.repo.SaveChanges(ctx)
}

// validateApplicable guards the incremental path's preconditions. A
// non-positive amount or missing currency here is a programming error in the
// caller, not a normal business outcome.
func validateApplicable(txn *model.Transaction) error {
	if txn == nil {
		return common.NewValidationError("transaction", "cannot be nil")
	}
	if txn.Amount.Sign() <= 0 {
		return common.NewValidationError("amount", "must be positive")
	}
	if txn.CurrencyCode == "" {
		return common.NewValidationError("currency", "is required")
	}
	return nil
}
