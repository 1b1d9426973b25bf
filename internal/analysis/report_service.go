package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/session"
)

// TransactionSource supplies the transactions to aggregate.
type TransactionSource interface {
	Get(ctx context.Context, userID string, filter *service.TransactionFilter) ([]*model.Transaction, error)
}

// CurrencyConverter resolves currencies and converts amounts between them.
type CurrencyConverter interface {
	GetCurrencyByCode(ctx context.Context, code string) (model.Currency, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to model.Currency) (decimal.Decimal, error)
}

// ReportService builds aggregated reports in the session user's default
// currency.
type ReportService struct {
	transactions TransactionSource
	currency     CurrencyConverter
	session      session.Provider
}

// NewReportService creates a report service.
func NewReportService(transactions TransactionSource, currency CurrencyConverter, sessionProvider session.Provider) *ReportService {
	return &ReportService{
		transactions: transactions,
		currency:     currency,
		session:      sessionProvider,
	}
}

// Totals sums income and expenses over an optional date range.
func (s *ReportService) Totals(ctx context.Context, start, end *time.Time) (Totals, error) {
	user, reference, err := s.resolveReference(ctx)
	if err != nil {
		return Totals{}, err
	}

	transactions, err := s.transactions.Get(ctx, user.ID, &service.TransactionFilter{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return Totals{}, err
	}

	totals := Totals{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		CurrencyCode:  reference.Code,
	}
	for _, txn := range transactions {
		converted, err := s.convert(ctx, txn, reference)
		if err != nil {
			return Totals{}, err
		}
		if txn.Type == model.TypeIncome {
			totals.TotalIncome = totals.TotalIncome.Add(converted)
		} else {
			totals.TotalExpenses = totals.TotalExpenses.Add(converted)
		}
	}
	return totals, nil
}

// CategoryBreakdown groups converted amounts by category id over the range.
// Categories without matching transactions are omitted, not zero-filled.
func (s *ReportService) CategoryBreakdown(ctx context.Context, start, end time.Time) ([]CategoryTotals, error) {
	user, reference, err := s.resolveReference(ctx)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactions.Get(ctx, user.ID, &service.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]*CategoryTotals)
	for _, txn := range transactions {
		converted, err := s.convert(ctx, txn, reference)
		if err != nil {
			return nil, err
		}
		entry, ok := byCategory[txn.CategoryID]
		if !ok {
			entry = &CategoryTotals{
				CategoryID:    txn.CategoryID,
				TotalIncome:   decimal.Zero,
				TotalExpenses: decimal.Zero,
				CurrencyCode:  reference.Code,
			}
			byCategory[txn.CategoryID] = entry
		}
		if txn.Type == model.TypeIncome {
			entry.TotalIncome = entry.TotalIncome.Add(converted)
		} else {
			entry.TotalExpenses = entry.TotalExpenses.Add(converted)
		}
	}

	breakdown := make([]CategoryTotals, 0, len(byCategory))
	for _, entry := range byCategory {
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].CategoryID < breakdown[j].CategoryID })
	return breakdown, nil
}

// DailyTrend returns one entry per calendar day in [start, end] inclusive,
// zero-filled for days without transactions.
func (s *ReportService) DailyTrend(ctx context.Context, start, end time.Time) ([]DailyTotals, error) {
	user, reference, err := s.resolveReference(ctx)
	if err != nil {
		return nil, err
	}

	first := model.DateOnly(start)
	last := model.DateOnly(end)
	if first.After(last) {
		return nil, common.NewValidationError("dates", "start date must not be after end date")
	}

	transactions, err := s.transactions.Get(ctx, user.ID, &service.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]*DailyTotals)
	for _, txn := range transactions {
		converted, err := s.convert(ctx, txn, reference)
		if err != nil {
			return nil, err
		}
		day := model.DateOnly(txn.Date)
		entry, ok := byDay[day]
		if !ok {
			entry = &DailyTotals{Date: day, TotalIncome: decimal.Zero, TotalExpenses: decimal.Zero, CurrencyCode: reference.Code}
			byDay[day] = entry
		}
		if txn.Type == model.TypeIncome {
			entry.TotalIncome = entry.TotalIncome.Add(converted)
		} else {
			entry.TotalExpenses = entry.TotalExpenses.Add(converted)
		}
	}

	var trend []DailyTotals
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if entry, ok := byDay[day]; ok {
			trend = append(trend, *entry)
			continue
		}
		trend = append(trend, DailyTotals{
			Date:          day,
			TotalIncome:   decimal.Zero,
			TotalExpenses: decimal.Zero,
			CurrencyCode:  reference.Code,
		})
	}
	return trend, nil
}

// MonthlySummary composes totals, category breakdown, and daily trend for
// one calendar month.
func (s *ReportService) MonthlySummary(ctx context.Context, year int, month time.Month) (MonthlySummary, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	totals, err := s.Totals(ctx, &start, &end)
	if err != nil {
		return MonthlySummary{}, err
	}
	breakdown, err := s.CategoryBreakdown(ctx, start, end)
	if err != nil {
		return MonthlySummary{}, err
	}
	trend, err := s.DailyTrend(ctx, start, end)
	if err != nil {
		return MonthlySummary{}, err
	}

	return MonthlySummary{
		Year:       year,
		Month:      month,
		Totals:     totals,
		Categories: breakdown,
		Daily:      trend,
	}, nil
}

// resolveReference returns the session user and their default currency as
// the reference currency for aggregation.
func (s *ReportService) resolveReference(ctx context.Context) (*model.User, model.Currency, error) {
	user, err := s.session.CurrentUser(ctx)
	if err != nil {
		return nil, model.Currency{}, err
	}
	reference, err := s.currency.GetCurrencyByCode(ctx, user.DefaultCurrencyCode)
	if err != nil {
		return nil, model.Currency{}, fmt.Errorf("%w: default currency %s", common.ErrCurrencyNotFound, user.DefaultCurrencyCode)
	}
	return user, reference, nil
}

func (s *ReportService) convert(ctx context.Context, txn *model.Transaction, reference model.Currency) (decimal.Decimal, error) {
	from, err := s.currency.GetCurrencyByCode(ctx, txn.CurrencyCode)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return s.currency.Convert(ctx, txn.Amount, from, reference)
}
