package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
	}
	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())
	cmd.AddCommand(categoriesDeleteCmd())
	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			categories, err := app.categories.GetAll(cmd.Context(), app.userID)
			if err != nil {
				return err
			}
			for _, cat := range categories {
				fmt.Printf("%s  %-8s  %s\n", cat.ID, cat.Type, cat.Name)
			}
			return nil
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catType, err := model.ParseTransactionType(typeFlag)
			if err != nil {
				return err
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			category, err := app.categories.Create(cmd.Context(), app.userID, args[0], catType)
			if err != nil {
				return err
			}
			fmt.Printf("Created category %s (%s)\n", category.Name, category.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&typeFlag, "type", "expense", "category type (income, expense)")
	return cmd
}

func categoriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			return app.categories.Delete(cmd.Context(), app.userID, args[0])
		},
	}
}
