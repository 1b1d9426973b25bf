package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

// SaveTransaction inserts a new transaction.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}

	tagsJSON, err := marshalTags(txn.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, category_id, amount, currency, type,
			date, description, tags, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.UserID,
		txn.CategoryID,
		txn.Amount.String(),
		txn.CurrencyCode,
		string(txn.Type),
		txn.Date,
		txn.Description,
		tagsJSON,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	slog.Debug("saved transaction", "id", txn.ID, "user_id", txn.UserID)
	return nil
}

// UpdateTransaction overwrites the mutable fields of an existing transaction.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}

	tagsJSON, err := marshalTags(txn.Tags)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, amount = ?, currency = ?, type = ?,
		    date = ?, description = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		txn.CategoryID,
		txn.Amount.String(),
		txn.CurrencyCode,
		string(txn.Type),
		txn.Date,
		txn.Description,
		tagsJSON,
		txn.UpdatedAt,
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireRowAffected(result, "transaction", txn.ID)
}

// DeleteTransaction removes a transaction by id.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRowAffected(result, "transaction", id)
}

// GetTransactionsByUser returns all of a user's transactions sorted ascending
// by date.
func (s *SQLiteStorage) GetTransactionsByUser(ctx context.Context, userID string) ([]*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, amount, currency, type,
		       date, description, tags, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY date ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []*model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	slog.Debug("retrieved transactions", "user_id", userID, "count", len(transactions))
	return transactions, nil
}

func scanTransaction(rows *sql.Rows) (*model.Transaction, error) {
	var (
		txn         model.Transaction
		amountRaw   string
		typeRaw     string
		description sql.NullString
		tagsRaw     sql.NullString
	)
	if err := rows.Scan(
		&txn.ID, &txn.UserID, &txn.CategoryID, &amountRaw, &txn.CurrencyCode,
		&typeRaw, &txn.Date, &description, &tagsRaw, &txn.CreatedAt, &txn.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	amount, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction amount %q: %w", amountRaw, err)
	}
	txn.Amount = amount
	txn.Type = model.TransactionType(typeRaw)
	txn.Description = description.String

	if tagsRaw.Valid && tagsRaw.String != "" {
		if err := json.Unmarshal([]byte(tagsRaw.String), &txn.Tags); err != nil {
			return nil, fmt.Errorf("failed to parse transaction tags: %w", err)
		}
	}
	return &txn, nil
}

func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(raw), nil
}

func requireRowAffected(result sql.Result, entity, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, common.ErrNotFound)
	}
	return nil
}
