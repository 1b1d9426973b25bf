package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/ledger"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn"},
		Short:   "Record and query transactions",
	}
	cmd.AddCommand(transactionsAddCmd())
	cmd.AddCommand(transactionsListCmd())
	cmd.AddCommand(transactionsDeleteCmd())
	return cmd
}

func transactionsAddCmd() *cobra.Command {
	var (
		categoryFlag    string
		amountFlag      string
		currencyFlag    string
		typeFlag        string
		dateFlag        string
		descriptionFlag string
		tagsFlag        []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := decimal.NewFromString(amountFlag)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amountFlag, err)
			}
			txType, err := model.ParseTransactionType(typeFlag)
			if err != nil {
				return err
			}
			date, err := parseDate(dateFlag)
			if err != nil {
				return err
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

			txn, err := app.transactions.Create(cmd.Context(), ledger.CreateTransactionInput{
				UserID:       app.userID,
				CategoryID:   category.ID,
				Amount:       amount,
				CurrencyCode: currencyFlag,
				Type:         txType,
				Date:         date,
				Description:  descriptionFlag,
				Tags:         tagsFlag,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Recorded %s %s %s on %s (%s)\n",
				txn.Type, txn.Amount, txn.CurrencyCode, txn.Date.Format("2006-01-02"), txn.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&categoryFlag, "category", "", "category name")
	cmd.Flags().StringVar(&amountFlag, "amount", "", "amount, e.g. 12.50")
	cmd.Flags().StringVar(&currencyFlag, "currency", "USD", "currency code")
	cmd.Flags().StringVar(&typeFlag, "type", "expense", "transaction type (income, expense)")
	cmd.Flags().StringVar(&dateFlag, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&descriptionFlag, "description", "", "description")
	cmd.Flags().StringSliceVar(&tagsFlag, "tags", nil, "tags")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func transactionsListCmd() *cobra.Command {
	var (
		fromFlag     string
		toFlag       string
		typeFlag     string
		currencyFlag string
		searchFlag   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := &service.TransactionFilter{
				Description:  searchFlag,
				CurrencyCode: currencyFlag,
			}
			if fromFlag != "" {
				from, err := parseDate(fromFlag)
				if err != nil {
					return err
				}
				filter.StartDate = &from
			}
			if toFlag != "" {
				to, err := parseDate(toFlag)
				if err != nil {
					return err
				}
				filter.EndDate = &to
			}
			if typeFlag != "" {
				txType, err := model.ParseTransactionType(typeFlag)
				if err != nil {
					return err
				}
				filter.Type = &txType
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			transactions, err := app.transactions.Get(cmd.Context(), app.userID, filter)
			if err != nil {
				return err
			}
			for _, txn := range transactions {
				fmt.Printf("%s  %s  %-8s  %10s %s  %s\n",
					txn.ID, txn.Date.Format("2006-01-02"), txn.Type,
					txn.Amount, txn.CurrencyCode, txn.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fromFlag, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&typeFlag, "type", "", "transaction type (income, expense)")
	cmd.Flags().StringVar(&currencyFlag, "currency", "", "currency code")
	cmd.Flags().StringVar(&searchFlag, "search", "", "description substring")
	return cmd
}

func transactionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			return app.transactions.Delete(cmd.Context(), app.userID, args[0])
		},
	}
}
