package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/testutil"
)

// recordingRefresher records which plans were asked to recompute.
type recordingRefresher struct {
	refreshed []string
	err       error
}

func (r *recordingRefresher) RefreshPlan(_ context.Context, planID string) error {
	if r.err != nil {
		return r.err
	}
	r.refreshed = append(r.refreshed, planID)
	return nil
}

func setupPlanService(t *testing.T) (*PlanService, *recordingRefresher) {
	t.Helper()
	repo := testutil.SetupTestDB(t)
	svc := NewPlanService(repo)
	refresher := &recordingRefresher{}
	svc.BindRefresher(refresher)
	return svc, refresher
}

func createPlan(t *testing.T, svc *PlanService) *model.BudgetPlan {
	t.Helper()
	plan, err := svc.Create(context.Background(), CreatePlanInput{
		UserID:    "user-1",
		Name:      "January",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return plan
}

func allocation(t *testing.T, categoryID string) *model.CategoryBudgetPlan {
	t.Helper()
	cp, err := model.NewCategoryBudgetPlan(categoryID, "USD", decimal.Zero, decimal.NewFromInt(500))
	require.NoError(t, err)
	return cp
}

func TestPlanService_CreateAndGet(t *testing.T) {
	svc, _ := setupPlanService(t)
	ctx := context.Background()

	plan := createPlan(t, svc)

	byID, err := svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Name, byID.Name)

	all, err := svc.GetAll(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestPlanService_CreateRejectsInvalidDates(t *testing.T) {
	svc, _ := setupPlanService(t)

	_, err := svc.Create(context.Background(), CreatePlanInput{
		UserID:    "user-1",
		Name:      "Backwards",
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
}

func TestPlanService_CreateRejectsDuplicateAllocations(t *testing.T) {
	svc, _ := setupPlanService(t)

	_, err := svc.Create(context.Background(), CreatePlanInput{
		UserID:    "user-1",
		Name:      "Doubled",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		CategoryPlans: []*model.CategoryBudgetPlan{
			allocation(t, "cat-1"),
			allocation(t, "cat-1"),
		},
	})
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
}

func TestPlanService_NameAndDescriptionChangesSkipRefresh(t *testing.T) {
	svc, refresher := setupPlanService(t)
	ctx := context.Background()
	plan := createPlan(t, svc)

	require.NoError(t, svc.UpdateName(ctx, plan.ID, "Renamed"))
	require.NoError(t, svc.UpdateDescription(ctx, plan.ID, "notes"))
	assert.Empty(t, refresher.refreshed, "cosmetic changes must not recompute execution")

	loaded, err := svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Name)
	assert.Equal(t, "notes", loaded.Description)
}

func TestPlanService_DateChangeTriggersRefresh(t *testing.T) {
	svc, refresher := setupPlanService(t)
	ctx := context.Background()
	plan := createPlan(t, svc)

	err := svc.UpdateDates(ctx, plan.ID,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []string{plan.ID}, refresher.refreshed)
}

func TestPlanService_AllocationChangesTriggerRefresh(t *testing.T) {
	svc, refresher := setupPlanService(t)
	ctx := context.Background()
	plan := createPlan(t, svc)

	require.NoError(t, svc.AddCategoryPlan(ctx, plan.ID, allocation(t, "cat-1")))
	require.NoError(t, svc.RemoveCategoryPlan(ctx, plan.ID, "cat-1"))
	require.NoError(t, svc.ReplaceCategoryPlans(ctx, plan.ID, []*model.CategoryBudgetPlan{allocation(t, "cat-2")}))

	assert.Equal(t, []string{plan.ID, plan.ID, plan.ID}, refresher.refreshed)
}

func TestPlanService_AddDuplicateAllocationRejected(t *testing.T) {
	svc, refresher := setupPlanService(t)
	ctx := context.Background()
	plan := createPlan(t, svc)

	require.NoError(t, svc.AddCategoryPlan(ctx, plan.ID, allocation(t, "cat-1")))
	err := svc.AddCategoryPlan(ctx, plan.ID, allocation(t, "cat-1"))
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Len(t, refresher.refreshed, 1, "the failed mutation must not refresh")
}

func TestPlanService_RefresherErrorSurfaces(t *testing.T) {
	svc, refresher := setupPlanService(t)
	ctx := context.Background()
	plan := createPlan(t, svc)

	refresher.err = errors.New("refresh failed")
	err := svc.AddCategoryPlan(ctx, plan.ID, allocation(t, "cat-1"))
	assert.True(t, errors.Is(err, refresher.err))
}

func TestPlanService_UnboundRefresherIsTolerated(t *testing.T) {
	repo := testutil.SetupTestDB(t)
	svc := NewPlanService(repo)
	ctx := context.Background()

	plan, err := svc.Create(ctx, CreatePlanInput{
		UserID:    "user-1",
		Name:      "Plan",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Mutations still succeed; executed totals just go stale.
	assert.NoError(t, svc.AddCategoryPlan(ctx, plan.ID, allocation(t, "cat-1")))
}

func TestPlanService_Delete(t *testing.T) {
	svc, _ := setupPlanService(t)
	ctx := context.Background()
	plan := createPlan(t, svc)

	require.NoError(t, svc.Delete(ctx, plan.ID))
	_, err := svc.GetByID(ctx, plan.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = svc.Delete(ctx, plan.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestPlanService_GetByIDFallsBackToRepository(t *testing.T) {
	repo := testutil.SetupTestDB(t)
	ctx := context.Background()

	seeded, err := model.NewBudgetPlan("user-1", "Seeded",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), "", nil)
	require.NoError(t, err)
	require.NoError(t, repo.SaveBudgetPlan(ctx, seeded))

	svc := NewPlanService(repo)
	loaded, err := svc.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Seeded", loaded.Name)
}
