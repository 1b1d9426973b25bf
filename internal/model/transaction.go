package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
)

// TransactionType indicates whether a transaction is income or an expense.
type TransactionType string

const (
	// TypeIncome represents money coming in.
	TypeIncome TransactionType = "income"
	// TypeExpense represents money going out.
	TypeExpense TransactionType = "expense"
)

const maxDescriptionLength = 250

// ParseTransactionType converts a raw string into a TransactionType.
func ParseTransactionType(raw string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeIncome:
		return TypeIncome, nil
	case TypeExpense:
		return TypeExpense, nil
	default:
		return "", common.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", raw))
	}
}

// Valid reports whether the type is one of the known values.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction represents a single income or expense entry. It belongs to
// exactly one user and one category.
type Transaction struct {
	ID           string
	UserID       string
	CategoryID   string
	Amount       decimal.Decimal
	CurrencyCode string
	Type         TransactionType
	Date         time.Time
	Description  string
	Tags         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewTransaction validates and builds a Transaction. A zero date defaults to
// the current time; dates are always stored in UTC.
func NewTransaction(userID, categoryID string, amount decimal.Decimal, currencyCode string, txType TransactionType, date time.Time, description string, tags []string) (*Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.NewValidationError("user id", "cannot be empty")
	}
	if strings.TrimSpace(categoryID) == "" {
		return nil, common.NewValidationError("category id", "cannot be empty")
	}
	if amount.Sign() <= 0 {
		return nil, common.NewValidationError("amount", "must be positive")
	}
	code, err := NormalizeCurrencyCode(currencyCode)
	if err != nil {
		return nil, err
	}
	if !txType.Valid() {
		return nil, common.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", txType))
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	cleanTags, err := validateTags(tags)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if date.IsZero() {
		date = now
	}

	return &Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		CategoryID:   categoryID,
		Amount:       amount,
		CurrencyCode: code,
		Type:         txType,
		Date:         date.UTC(),
		Description:  description,
		Tags:         cleanTags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// SetAmount replaces the amount after re-validating it.
func (t *Transaction) SetAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return common.NewValidationError("amount", "must be positive")
	}
	t.Amount = amount
	t.touch()
	return nil
}

// SetCategory reassigns the transaction to another category.
func (t *Transaction) SetCategory(categoryID string) error {
	if strings.TrimSpace(categoryID) == "" {
		return common.NewValidationError("category id", "cannot be empty")
	}
	t.CategoryID = categoryID
	t.touch()
	return nil
}

// SetCurrency replaces the currency code after re-validating it.
func (t *Transaction) SetCurrency(currencyCode string) error {
	code, err := NormalizeCurrencyCode(currencyCode)
	if err != nil {
		return err
	}
	t.CurrencyCode = code
	t.touch()
	return nil
}

// SetDate replaces the transaction date, normalized to UTC.
func (t *Transaction) SetDate(date time.Time) error {
	if date.IsZero() {
		return common.NewValidationError("date", "cannot be zero")
	}
	t.Date = date.UTC()
	t.touch()
	return nil
}

// SetDescription replaces the description after re-validating its length.
func (t *Transaction) SetDescription(description string) error {
	if err := validateDescription(description); err != nil {
		return err
	}
	t.Description = description
	t.touch()
	return nil
}

// SetTags replaces the tag set, rejecting empty or duplicate tags.
func (t *Transaction) SetTags(tags []string) error {
	cleanTags, err := validateTags(tags)
	if err != nil {
		return err
	}
	t.Tags = cleanTags
	t.touch()
	return nil
}

// SetType replaces the transaction type.
func (t *Transaction) SetType(txType TransactionType) error {
	if !txType.Valid() {
		return common.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", txType))
	}
	t.Type = txType
	t.touch()
	return nil
}

func (t *Transaction) touch() {
	t.UpdatedAt = time.Now().UTC()
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLength {
		return common.NewValidationError("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLength))
	}
	return nil
}

func validateTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(tags))
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return nil, common.NewValidationError("tags", "cannot contain empty tags")
		}
		if _, ok := seen[tag]; ok {
			return nil, common.NewValidationError("tags", fmt.Sprintf("duplicate tag %q", tag))
		}
		seen[tag] = struct{}{}
		clean = append(clean, tag)
	}
	return clean, nil
}
