package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/budget"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

func plansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage budget plans",
	}
	cmd.AddCommand(plansCreateCmd())
	cmd.AddCommand(plansListCmd())
	cmd.AddCommand(plansShowCmd())
	cmd.AddCommand(plansAllocateCmd())
	cmd.AddCommand(plansRefreshCmd())
	cmd.AddCommand(plansDeleteCmd())
	return cmd
}

func plansCreateCmd() *cobra.Command {
	var (
		startFlag       string
		endFlag         string
		descriptionFlag string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a budget plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate(startFlag)
			if err != nil {
				return err
			}
			end, err := parseDate(endFlag)
			if err != nil {
				return err
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			plan, err := app.plans.Create(cmd.Context(), budget.CreatePlanInput{
				UserID:      app.userID,
				Name:        args[0],
				StartDate:   start,
				EndDate:     end,
				Description: descriptionFlag,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created plan %s (%s)\n", plan.Name, plan.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&startFlag, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&descriptionFlag, "description", "", "description")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func plansListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budget plans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			plans, err := app.plans.GetAll(cmd.Context(), app.userID)
			if err != nil {
				return err
			}
			for _, plan := range plans {
				fmt.Printf("%s  %s..%s  %s (%d allocations)\n",
					plan.ID,
					plan.StartDate.Format("2006-01-02"), plan.EndDate.Format("2006-01-02"),
					plan.Name, len(plan.CategoryPlans))
			}
			return nil
		},
	}
}

func plansShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a plan with its executed totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			plan, err := app.plans.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s..%s\n", plan.Name,
				plan.StartDate.Format("2006-01-02"), plan.EndDate.Format("2006-01-02"))
			if plan.Description != "" {
				fmt.Println(plan.Description)
			}
			for _, cp := range plan.CategoryPlans {
				category, err := app.categories.GetByID(cmd.Context(), plan.UserID, cp.CategoryID)
				name := cp.CategoryID
				if err == nil {
					name = category.Name
				}
				fmt.Printf("  %-20s %s  income %s/%s  expenses %s/%s\n",
					name, cp.CurrencyCode,
					cp.IncomeExecuted, cp.IncomePlanned,
					cp.ExpenseExecuted, cp.ExpensePlanned)
			}
			return nil
		},
	}
}

func plansAllocateCmd() *cobra.Command {
	var (
		categoryFlag string
		currencyFlag string
		incomeFlag   string
		expenseFlag  string
	)

	cmd := &cobra.Command{
		Use:   "allocate <plan-id>",
		Short: "Add a category allocation to a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			income, err := decimal.NewFromString(incomeFlag)
			if err != nil {
				return fmt.Errorf("invalid income amount %q: %w", incomeFlag, err)
			}
			expense, err := decimal.NewFromString(expenseFlag)
			if err != nil {
				return fmt.Errorf("invalid expense amount %q: %w", expenseFlag, err)
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			category, err := app.categories.GetByName(cmd.Context(), app.userID, categoryFlag)
			if err != nil {
				return err
			}
			allocation, err := model.NewCategoryBudgetPlan(category.ID, currencyFlag, income, expense)
			if err != nil {
				return err
			}
			if err := app.plans.AddCategoryPlan(cmd.Context(), args[0], allocation); err != nil {
				return err
			}
			fmt.Printf("Allocated %s in plan %s\n", category.Name, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&categoryFlag, "category", "", "category name")
	cmd.Flags().StringVar(&currencyFlag, "currency", "USD", "allocation currency")
	cmd.Flags().StringVar(&incomeFlag, "income", "0", "planned income")
	cmd.Flags().StringVar(&expenseFlag, "expense", "0", "planned expenses")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func plansRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [id]",
		Short: "Recompute executed totals (all plans when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if len(args) == 1 {
				return app.engine.RefreshPlan(cmd.Context(), args[0])
			}
			return app.engine.RefreshAllPlans(cmd.Context(), app.userID)
		},
	}
}

func plansDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			return app.plans.Delete(cmd.Context(), args[0])
		},
	}
}
