// Package service defines the contracts between the domain services and
// their collaborators.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

// TransactionFilter defines filtering options for transaction queries. All
// set predicates are combined with AND.
type TransactionFilter struct {
	CategoryIDs  []string
	Date         *time.Time
	StartDate    *time.Time
	EndDate      *time.Time
	Description  string
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
	CurrencyCode string
	CategoryType *model.TransactionType
	Type         *model.TransactionType
}

// IsEmpty reports whether no predicate is set.
func (f *TransactionFilter) IsEmpty() bool {
	if f == nil {
		return true
	}
	return len(f.CategoryIDs) == 0 &&
		f.Date == nil &&
		f.StartDate == nil &&
		f.EndDate == nil &&
		f.Description == "" &&
		f.MinAmount == nil &&
		f.MaxAmount == nil &&
		f.CurrencyCode == "" &&
		f.CategoryType == nil &&
		f.Type == nil
}

// Repository defines the contract for the persistence layer. Implementations
// stage writes and flush them on SaveChanges; autocommitting implementations
// may treat SaveChanges as a no-op.
type Repository interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransactionsByUser(ctx context.Context, userID string) ([]*model.Transaction, error)

	// Category operations
	SaveCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	GetCategoriesByUser(ctx context.Context, userID string) ([]*model.Category, error)

	// Budget plan operations
	SaveBudgetPlan(ctx context.Context, plan *model.BudgetPlan) error
	UpdateBudgetPlan(ctx context.Context, plan *model.BudgetPlan) error
	DeleteBudgetPlan(ctx context.Context, id string) error
	GetBudgetPlanByID(ctx context.Context, id string) (*model.BudgetPlan, error)
	GetBudgetPlansByUser(ctx context.Context, userID string) ([]*model.BudgetPlan, error)

	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// SaveChanges flushes staged writes.
	SaveChanges(ctx context.Context) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
