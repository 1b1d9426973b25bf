package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/testutil"
)

func TestStaticProvider_CurrentUser(t *testing.T) {
	repo := testutil.SetupTestDB(t)
	testutil.SeedUser(t, repo, "user-1", "USD")

	provider := NewStaticProvider(repo, "user-1")
	user, err := provider.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "USD", user.DefaultCurrencyCode)
}

func TestStaticProvider_EmptyUserID(t *testing.T) {
	repo := testutil.SetupTestDB(t)

	provider := NewStaticProvider(repo, "")
	_, err := provider.CurrentUser(context.Background())
	assert.True(t, errors.Is(err, common.ErrNotAuthenticated))
}

func TestStaticProvider_UnknownUser(t *testing.T) {
	repo := testutil.SetupTestDB(t)

	provider := NewStaticProvider(repo, "ghost")
	_, err := provider.CurrentUser(context.Background())
	assert.True(t, errors.Is(err, common.ErrNotAuthenticated))
}
