// Package analysis produces currency-normalized reports over the transaction
// history: period totals, per-category breakdowns, daily trend series, and
// composed monthly summaries. It reads the transaction store directly and is
// independent of the execution engine.
package analysis

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals aggregates income and expenses over a period, normalized into one
// reference currency.
type Totals struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	CurrencyCode  string
}

// CategoryTotals aggregates one category's income and expenses. Categories
// with no matching transactions in range are absent from breakdown results.
type CategoryTotals struct {
	CategoryID    string
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	CurrencyCode  string
}

// DailyTotals aggregates one calendar day. Trend series include an entry for
// every day in range, zero-filled when nothing happened.
type DailyTotals struct {
	Date          time.Time
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	CurrencyCode  string
}

// MonthlySummary composes the totals, breakdown, and daily trend for one
// calendar month.
type MonthlySummary struct {
	Year       int
	Month      time.Month
	Totals     Totals
	Categories []CategoryTotals
	Daily      []DailyTotals
}
