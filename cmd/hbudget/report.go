package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/analysis"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregated reports in your default currency",
	}
	cmd.AddCommand(reportTotalsCmd())
	cmd.AddCommand(reportMonthCmd())
	return cmd
}

func reportTotalsCmd() *cobra.Command {
	var (
		fromFlag string
		toFlag   string
	)

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Income and expense totals over an optional date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var start, end *time.Time
			if fromFlag != "" {
				from, err := parseDate(fromFlag)
				if err != nil {
					return err
				}
				start = &from
			}
			if toFlag != "" {
				to, err := parseDate(toFlag)
				if err != nil {
					return err
				}
				end = &to
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			totals, err := app.reports.Totals(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			fmt.Printf("Income:   %s %s\n", totals.TotalIncome, totals.CurrencyCode)
			fmt.Printf("Expenses: %s %s\n", totals.TotalExpenses, totals.CurrencyCode)
			fmt.Printf("Net:      %s %s\n", totals.TotalIncome.Sub(totals.TotalExpenses), totals.CurrencyCode)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromFlag, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func reportMonthCmd() *cobra.Command {
	var (
		yearFlag  int
		monthFlag int
	)

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Monthly summary with category breakdown and daily trend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().UTC()
			if yearFlag == 0 {
				yearFlag = now.Year()
			}
			if monthFlag == 0 {
				monthFlag = int(now.Month())
			}
			if monthFlag < 1 || monthFlag > 12 {
				return fmt.Errorf("invalid month %d", monthFlag)
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			summary, err := app.reports.MonthlySummary(cmd.Context(), yearFlag, time.Month(monthFlag))
			if err != nil {
				return err
			}
			printMonthlySummary(cmd.Context(), app, summary)
			return nil
		},
	}
	cmd.Flags().IntVar(&yearFlag, "year", 0, "year (default: current)")
	cmd.Flags().IntVar(&monthFlag, "month", 0, "month 1-12 (default: current)")
	return cmd
}

func printMonthlySummary(ctx context.Context, app *app, summary analysis.MonthlySummary) {
	fmt.Printf("%s %d\n\n", summary.Month, summary.Year)
	fmt.Printf("Income:   %s %s\n", summary.Totals.TotalIncome, summary.Totals.CurrencyCode)
	fmt.Printf("Expenses: %s %s\n", summary.Totals.TotalExpenses, summary.Totals.CurrencyCode)

	if len(summary.Categories) > 0 {
		fmt.Println("\nBy category:")
		for _, entry := range summary.Categories {
			name := entry.CategoryID
			if category, err := app.categories.GetByID(ctx, app.userID, entry.CategoryID); err == nil {
				name = category.Name
			}
			fmt.Printf("  %-20s income %10s  expenses %10s\n",
				name, entry.TotalIncome, entry.TotalExpenses)
		}
	}

	fmt.Println("\nDaily:")
	for _, day := range summary.Daily {
		if day.TotalIncome.IsZero() && day.TotalExpenses.IsZero() {
			continue
		}
		fmt.Printf("  %s  income %10s  expenses %10s\n",
			day.Date.Format("2006-01-02"), day.TotalIncome, day.TotalExpenses)
	}
}
