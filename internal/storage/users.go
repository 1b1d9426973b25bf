package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

// SaveUser inserts a user record, replacing an existing one with the same id.
// User identity is owned by an external subsystem; the local row only feeds
// the session provider.
func (s *SQLiteStorage) SaveUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO users (id, name, email, password_hash, default_currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.DefaultCurrencyCode,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUserByID returns the user with the given id.
func (s *SQLiteStorage) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var user model.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, default_currency, created_at
		FROM users
		WHERE id = ?`, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.DefaultCurrencyCode, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}
