package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

// SaveBudgetPlan inserts a new budget plan together with its allocations.
func (s *SQLiteStorage) SaveBudgetPlan(ctx context.Context, plan *model.BudgetPlan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("%w: plan", ErrNilParameter)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO budget_plans (id, user_id, name, description, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.UserID,
		plan.Name,
		plan.Description,
		plan.StartDate,
		plan.EndDate,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget plan: %w", err)
	}

	if err := insertCategoryPlans(ctx, tx, plan); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit budget plan: %w", err)
	}

	slog.Debug("saved budget plan", "id", plan.ID, "allocations", len(plan.CategoryPlans))
	return nil
}

// UpdateBudgetPlan overwrites an existing plan and its full allocation set.
func (s *SQLiteStorage) UpdateBudgetPlan(ctx context.Context, plan *model.BudgetPlan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("%w: plan", ErrNilParameter)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE budget_plans
		SET name = ?, description = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		plan.Name,
		plan.Description,
		plan.StartDate,
		plan.EndDate,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget plan: %w", err)
	}
	if err := requireRowAffected(result, "budget plan", plan.ID); err != nil {
		return err
	}

	// Allocations are replaced wholesale on every update.
	if _, err := tx.ExecContext(ctx, `DELETE FROM category_budget_plans WHERE plan_id = ?`, plan.ID); err != nil {
		return fmt.Errorf("failed to clear allocations: %w", err)
	}
	if err := insertCategoryPlans(ctx, tx, plan); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit budget plan: %w", err)
	}
	return nil
}

// DeleteBudgetPlan removes a plan and its allocations.
func (s *SQLiteStorage) DeleteBudgetPlan(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM category_budget_plans WHERE plan_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete allocations: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM budget_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget plan: %w", err)
	}
	if err := requireRowAffected(result, "budget plan", id); err != nil {
		return err
	}

	return tx.Commit()
}

// GetBudgetPlanByID returns a single plan with its allocations.
func (s *SQLiteStorage) GetBudgetPlanByID(ctx context.Context, id string) (*model.BudgetPlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, start_date, end_date, created_at, updated_at
		FROM budget_plans
		WHERE id = ?`, id)

	plan, err := scanBudgetPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget plan %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadCategoryPlans(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// GetBudgetPlansByUser returns all of a user's plans with allocations,
// ordered by start date.
func (s *SQLiteStorage) GetBudgetPlansByUser(ctx context.Context, userID string) ([]*model.BudgetPlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, start_date, end_date, created_at, updated_at
		FROM budget_plans
		WHERE user_id = ?
		ORDER BY start_date ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var plans []*model.BudgetPlan
	for rows.Next() {
		plan, err := scanBudgetPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget plans: %w", err)
	}

	for _, plan := range plans {
		if err := s.loadCategoryPlans(ctx, plan); err != nil {
			return nil, err
		}
	}

	slog.Debug("retrieved budget plans", "user_id", userID, "count", len(plans))
	return plans, nil
}

func insertCategoryPlans(ctx context.Context, tx *sql.Tx, plan *model.BudgetPlan) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO category_budget_plans (
			plan_id, category_id, currency,
			income_planned, income_executed, expense_planned, expense_executed, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare allocation insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, cp := range plan.CategoryPlans {
		_, err := stmt.ExecContext(ctx,
			plan.ID,
			cp.CategoryID,
			cp.CurrencyCode,
			cp.IncomePlanned.String(),
			cp.IncomeExecuted.String(),
			cp.ExpensePlanned.String(),
			cp.ExpenseExecuted.String(),
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert allocation for category %s: %w", cp.CategoryID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) loadCategoryPlans(ctx context.Context, plan *model.BudgetPlan) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, currency, income_planned, income_executed, expense_planned, expense_executed
		FROM category_budget_plans
		WHERE plan_id = ?
		ORDER BY position ASC`, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to query allocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categoryPlans []*model.CategoryBudgetPlan
	for rows.Next() {
		var (
			cp   model.CategoryBudgetPlan
			raws [4]string
		)
		if err := rows.Scan(&cp.CategoryID, &cp.CurrencyCode, &raws[0], &raws[1], &raws[2], &raws[3]); err != nil {
			return fmt.Errorf("failed to scan allocation: %w", err)
		}
		fields := []*decimal.Decimal{&cp.IncomePlanned, &cp.IncomeExecuted, &cp.ExpensePlanned, &cp.ExpenseExecuted}
		for i, raw := range raws {
			value, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("failed to parse allocation amount %q: %w", raw, err)
			}
			*fields[i] = value
		}
		categoryPlans = append(categoryPlans, &cp)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating allocations: %w", err)
	}

	plan.CategoryPlans = categoryPlans
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudgetPlan(row rowScanner) (*model.BudgetPlan, error) {
	var (
		plan        model.BudgetPlan
		description sql.NullString
	)
	if err := row.Scan(
		&plan.ID, &plan.UserID, &plan.Name, &description,
		&plan.StartDate, &plan.EndDate, &plan.CreatedAt, &plan.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan budget plan: %w", err)
	}
	plan.Description = description.String
	return &plan, nil
}
