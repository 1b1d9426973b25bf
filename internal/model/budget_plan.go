package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
)

// CategoryBudgetPlan is a single category's planned vs executed income and
// expense figures within a budget plan, denominated in one currency.
type CategoryBudgetPlan struct {
	CategoryID      string
	CurrencyCode    string
	IncomePlanned   decimal.Decimal
	IncomeExecuted  decimal.Decimal
	ExpensePlanned  decimal.Decimal
	ExpenseExecuted decimal.Decimal
}

// NewCategoryBudgetPlan validates and builds an allocation with zero executed
// totals.
func NewCategoryBudgetPlan(categoryID, currencyCode string, incomePlanned, expensePlanned decimal.Decimal) (*CategoryBudgetPlan, error) {
	if strings.TrimSpace(categoryID) == "" {
		return nil, common.NewValidationError("category id", "cannot be empty")
	}
	code, err := NormalizeCurrencyCode(currencyCode)
	if err != nil {
		return nil, err
	}
	if incomePlanned.Sign() < 0 {
		return nil, common.NewValidationError("income planned", "cannot be negative")
	}
	if expensePlanned.Sign() < 0 {
		return nil, common.NewValidationError("expense planned", "cannot be negative")
	}
	return &CategoryBudgetPlan{
		CategoryID:      categoryID,
		CurrencyCode:    code,
		IncomePlanned:   incomePlanned,
		IncomeExecuted:  decimal.Zero,
		ExpensePlanned:  expensePlanned,
		ExpenseExecuted: decimal.Zero,
	}, nil
}

// AddExecution increments the executed totals by the given deltas.
func (p *CategoryBudgetPlan) AddExecution(incomeDelta, expenseDelta decimal.Decimal) {
	p.IncomeExecuted = p.IncomeExecuted.Add(incomeDelta)
	p.ExpenseExecuted = p.ExpenseExecuted.Add(expenseDelta)
}

// ClearExecution resets both executed totals to zero.
func (p *CategoryBudgetPlan) ClearExecution() {
	p.IncomeExecuted = decimal.Zero
	p.ExpenseExecuted = decimal.Zero
}

// IncomeProgress returns executed/planned income, or zero when nothing is
// planned.
func (p *CategoryBudgetPlan) IncomeProgress() decimal.Decimal {
	return progress(p.IncomeExecuted, p.IncomePlanned)
}

// ExpenseProgress returns executed/planned expenses, or zero when nothing is
// planned.
func (p *CategoryBudgetPlan) ExpenseProgress() decimal.Decimal {
	return progress(p.ExpenseExecuted, p.ExpensePlanned)
}

func progress(executed, planned decimal.Decimal) decimal.Decimal {
	if planned.IsZero() {
		return decimal.Zero
	}
	return executed.Div(planned)
}

// clone returns a copy of the allocation.
func (p *CategoryBudgetPlan) clone() *CategoryBudgetPlan {
	cp := *p
	return &cp
}

// BudgetPlan is a date-bounded plan holding per-category allocations. At most
// one allocation per category id may exist within a plan.
type BudgetPlan struct {
	ID            string
	UserID        string
	Name          string
	Description   string
	StartDate     time.Time
	EndDate       time.Time
	CategoryPlans []*CategoryBudgetPlan
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBudgetPlan validates and builds a BudgetPlan.
func NewBudgetPlan(userID, name string, startDate, endDate time.Time, description string, categoryPlans []*CategoryBudgetPlan) (*BudgetPlan, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.NewValidationError("user id", "cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, common.NewValidationError("name", "cannot be empty")
	}
	if err := validatePlanDates(startDate, endDate); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	plan := &BudgetPlan{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		StartDate:   startDate.UTC(),
		EndDate:     endDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, cp := range categoryPlans {
		if err := plan.AddCategoryPlan(cp); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// IncludesDate reports whether the given date falls within the plan range.
// Comparison is date-only and inclusive on both ends.
func (p *BudgetPlan) IncludesDate(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

// CategoryPlan returns the allocation for the given category id, or nil when
// the plan holds none.
func (p *BudgetPlan) CategoryPlan(categoryID string) *CategoryBudgetPlan {
	for _, cp := range p.CategoryPlans {
		if cp.CategoryID == categoryID {
			return cp
		}
	}
	return nil
}

// AddCategoryPlan appends an allocation. A second allocation for the same
// category id is rejected.
func (p *BudgetPlan) AddCategoryPlan(cp *CategoryBudgetPlan) error {
	if cp == nil {
		return common.NewValidationError("category plan", "cannot be nil")
	}
	if p.CategoryPlan(cp.CategoryID) != nil {
		return common.NewValidationError("category plan", fmt.Sprintf("duplicate allocation for category %s", cp.CategoryID))
	}
	p.CategoryPlans = append(p.CategoryPlans, cp)
	p.touch()
	return nil
}

// RemoveCategoryPlan removes the allocation for the given category id.
func (p *BudgetPlan) RemoveCategoryPlan(categoryID string) error {
	for i, cp := range p.CategoryPlans {
		if cp.CategoryID == categoryID {
			p.CategoryPlans = append(p.CategoryPlans[:i], p.CategoryPlans[i+1:]...)
			p.touch()
			return nil
		}
	}
	return fmt.Errorf("allocation for category %s: %w", categoryID, common.ErrNotFound)
}

// ReplaceCategoryPlans swaps in a new allocation set wholesale. There is no
// implicit merge with the previous set.
func (p *BudgetPlan) ReplaceCategoryPlans(categoryPlans []*CategoryBudgetPlan) error {
	replacement := make([]*CategoryBudgetPlan, 0, len(categoryPlans))
	seen := make(map[string]struct{}, len(categoryPlans))
	for _, cp := range categoryPlans {
		if cp == nil {
			return common.NewValidationError("category plan", "cannot be nil")
		}
		if _, ok := seen[cp.CategoryID]; ok {
			return common.NewValidationError("category plan", fmt.Sprintf("duplicate allocation for category %s", cp.CategoryID))
		}
		seen[cp.CategoryID] = struct{}{}
		replacement = append(replacement, cp)
	}
	p.CategoryPlans = replacement
	p.touch()
	return nil
}

// UpdateName changes the plan name.
func (p *BudgetPlan) UpdateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return common.NewValidationError("name", "cannot be empty")
	}
	p.Name = name
	p.touch()
	return nil
}

// UpdateDescription changes the plan description.
func (p *BudgetPlan) UpdateDescription(description string) error {
	if err := validateDescription(description); err != nil {
		return err
	}
	p.Description = description
	p.touch()
	return nil
}

// UpdateDates changes the plan range. It does not recompute execution; that
// is the execution engine's responsibility, triggered by the owning service.
func (p *BudgetPlan) UpdateDates(startDate, endDate time.Time) error {
	if err := validatePlanDates(startDate, endDate); err != nil {
		return err
	}
	p.StartDate = startDate.UTC()
	p.EndDate = endDate.UTC()
	p.touch()
	return nil
}

func (p *BudgetPlan) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func validatePlanDates(startDate, endDate time.Time) error {
	if startDate.IsZero() || endDate.IsZero() {
		return common.NewValidationError("dates", "start and end date are required")
	}
	if DateOnly(startDate).After(DateOnly(endDate)) {
		return common.NewValidationError("dates", "start date must not be after end date")
	}
	return nil
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
