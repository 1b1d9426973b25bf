package ledger

import (
	"strings"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
)

// matchesFilter evaluates all set predicates against a transaction. Date
// comparisons are date-only and inclusive; the description match is a
// case-insensitive substring test.
func matchesFilter(txn *model.Transaction, filter *service.TransactionFilter, typeCategories map[string]struct{}) bool {
	if filter.IsEmpty() {
		return true
	}

	if len(filter.CategoryIDs) > 0 {
		found := false
		for _, id := range filter.CategoryIDs {
			if txn.CategoryID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	date := model.DateOnly(txn.Date)
	if filter.Date != nil && !date.Equal(model.DateOnly(*filter.Date)) {
		return false
	}
	if filter.StartDate != nil && date.Before(model.DateOnly(*filter.StartDate)) {
		return false
	}
	if filter.EndDate != nil && date.After(model.DateOnly(*filter.EndDate)) {
		return false
	}

	if filter.Description != "" &&
		!strings.Contains(strings.ToLower(txn.Description), strings.ToLower(filter.Description)) {
		return false
	}

	if filter.MinAmount != nil && txn.Amount.LessThan(*filter.MinAmount) {
		return false
	}
	if filter.MaxAmount != nil && txn.Amount.GreaterThan(*filter.MaxAmount) {
		return false
	}

	if filter.CurrencyCode != "" && txn.CurrencyCode != filter.CurrencyCode {
		return false
	}

	if filter.CategoryType != nil {
		if _, ok := typeCategories[txn.CategoryID]; !ok {
			return false
		}
	}

	if filter.Type != nil && txn.Type != *filter.Type {
		return false
	}

	return true
}
