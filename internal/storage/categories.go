package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

// SaveCategory inserts a new category.
func (s *SQLiteStorage) SaveCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.UserID,
		category.Name,
		string(category.Type),
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}

	slog.Debug("saved category", "id", category.ID, "name", category.Name)
	return nil
}

// UpdateCategory overwrites the mutable fields of an existing category.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, type = ?, updated_at = ?
		WHERE id = ?`,
		category.Name,
		string(category.Type),
		category.UpdatedAt,
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return requireRowAffected(result, "category", category.ID)
}

// DeleteCategory removes a category by id.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRowAffected(result, "category", id)
}

// GetCategoriesByUser returns all of a user's categories ordered by name.
func (s *SQLiteStorage) GetCategoriesByUser(ctx context.Context, userID string) ([]*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, created_at, updated_at
		FROM categories
		WHERE user_id = ?
		ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []*model.Category
	for rows.Next() {
		var (
			cat     model.Category
			typeRaw string
		)
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &typeRaw, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Type = model.TransactionType(typeRaw)
		categories = append(categories, &cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "user_id", userID, "count", len(categories))
	return categories, nil
}
