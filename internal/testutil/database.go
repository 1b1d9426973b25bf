// Package testutil provides test helpers for the household budget project.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite database and registers its
// cleanup.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedUser stores a user with the given default currency and returns it.
func SeedUser(t *testing.T, repo service.Repository, id, defaultCurrency string) *model.User {
	t.Helper()

	user := &model.User{
		ID:                  id,
		Name:                id,
		Email:               id + "@example.com",
		DefaultCurrencyCode: defaultCurrency,
		CreatedAt:           time.Now().UTC(),
	}
	if err := repo.SaveUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %q: %v", id, err)
	}
	return user
}
