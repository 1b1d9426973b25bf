// Package budget implements the budget plan service: plan lifecycle,
// allocation management, and triggering execution recomputation after
// mutations that invalidate executed state.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
)

// Refresher recomputes a plan's executed totals from the full transaction
// history. It is the narrow slice of the execution engine the plan service
// needs; the engine in turn sees this service only through its own read-only
// interface, which keeps the dependency acyclic.
type Refresher interface {
	RefreshPlan(ctx context.Context, planID string) error
}

// CreatePlanInput carries the fields for a new budget plan.
type CreatePlanInput struct {
	UserID        string
	Name          string
	StartDate     time.Time
	EndDate       time.Time
	Description   string
	CategoryPlans []*model.CategoryBudgetPlan
}

// PlanService manages budget plans with a lazily populated per-user cache.
type PlanService struct {
	repo      service.Repository
	refresher Refresher

	mu     sync.Mutex
	cache  map[string][]*model.BudgetPlan
	loaded map[string]bool
}

// NewPlanService creates a plan service backed by the repository. The
// refresher is bound separately once the execution engine exists.
func NewPlanService(repo service.Repository) *PlanService {
	return &PlanService{
		repo:   repo,
		cache:  make(map[string][]*model.BudgetPlan),
		loaded: make(map[string]bool),
	}
}

// BindRefresher wires in the execution engine. Must be called once during
// composition, before any plan mutation.
func (s *PlanService) BindRefresher(refresher Refresher) {
	s.refresher = refresher
}

// Create validates, persists, and caches a new budget plan.
func (s *PlanService) Create(ctx context.Context, input CreatePlanInput) (*model.BudgetPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, input.UserID); err != nil {
		return nil, err
	}

	plan, err := model.NewBudgetPlan(
		input.UserID, input.Name, input.StartDate, input.EndDate,
		input.Description, input.CategoryPlans,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveBudgetPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save budget plan: %w", err)
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return nil, err
	}

	s.cache[input.UserID] = append(s.cache[input.UserID], plan)
	return plan, nil
}

// GetAll returns all of the user's budget plans.
func (s *PlanService) GetAll(ctx context.Context, userID string) ([]*model.BudgetPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, userID); err != nil {
		return nil, err
	}
	plans := make([]*model.BudgetPlan, len(s.cache[userID]))
	copy(plans, s.cache[userID])
	return plans, nil
}

// GetByID returns the plan with the given id.
func (s *PlanService) GetByID(ctx context.Context, planID string) (*model.BudgetPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getByIDLocked(ctx, planID)
}

// Delete removes a plan by id.
func (s *PlanService) Delete(ctx context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.getByIDLocked(ctx, planID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteBudgetPlan(ctx, planID); err != nil {
		return fmt.Errorf("failed to delete budget plan: %w", err)
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return err
	}

	plans := s.cache[plan.UserID]
	for i, p := range plans {
		if p.ID == planID {
			s.cache[plan.UserID] = append(plans[:i], plans[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateName renames a plan. Name changes do not touch execution state.
func (s *PlanService) UpdateName(ctx context.Context, planID, name string) error {
	return s.mutate(ctx, planID, false, func(plan *model.BudgetPlan) error {
		return plan.UpdateName(name)
	})
}

// UpdateDescription changes a plan's description.
func (s *PlanService) UpdateDescription(ctx context.Context, planID, description string) error {
	return s.mutate(ctx, planID, false, func(plan *model.BudgetPlan) error {
		return plan.UpdateDescription(description)
	})
}

// UpdateDates changes a plan's date range and recomputes its execution,
// since transactions may have entered or left the range.
func (s *PlanService) UpdateDates(ctx context.Context, planID string, startDate, endDate time.Time) error {
	return s.mutate(ctx, planID, true, func(plan *model.BudgetPlan) error {
		return plan.UpdateDates(startDate, endDate)
	})
}

// AddCategoryPlan adds an allocation and recomputes the plan's execution.
func (s *PlanService) AddCategoryPlan(ctx context.Context, planID string, categoryPlan *model.CategoryBudgetPlan) error {
	return s.mutate(ctx, planID, true, func(plan *model.BudgetPlan) error {
		return plan.AddCategoryPlan(categoryPlan)
	})
}

// RemoveCategoryPlan removes an allocation and recomputes the plan's
// execution.
func (s *PlanService) RemoveCategoryPlan(ctx context.Context, planID, categoryID string) error {
	return s.mutate(ctx, planID, true, func(plan *model.BudgetPlan) error {
		return plan.RemoveCategoryPlan(categoryID)
	})
}

// ReplaceCategoryPlans swaps the allocation set wholesale and recomputes the
// plan's execution.
func (s *PlanService) ReplaceCategoryPlans(ctx context.Context, planID string, categoryPlans []*model.CategoryBudgetPlan) error {
	return s.mutate(ctx, planID, true, func(plan *model.BudgetPlan) error {
		return plan.ReplaceCategoryPlans(categoryPlans)
	})
}

// mutate applies a plan mutation, persists it, and optionally triggers a full
// execution refresh. The refresh runs outside the service lock because the
// engine reads plans back through this service.
func (s *PlanService) mutate(ctx context.Context, planID string, refresh bool, apply func(*model.BudgetPlan) error) error {
	s.mu.Lock()
	plan, err := s.getByIDLocked(ctx, planID)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if err := apply(plan); err != nil {
		s.mu.Unlock()
		return err
	}

	if err := s.repo.UpdateBudgetPlan(ctx, plan); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to update budget plan: %w", err)
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if !refresh {
		return nil
	}
	if s.refresher == nil {
		slog.Warn("no execution refresher bound, executed totals may be stale", "plan_id", planID)
		return nil
	}
	return s.refresher.RefreshPlan(ctx, planID)
}

func (s *PlanService) getByIDLocked(ctx context.Context, planID string) (*model.BudgetPlan, error) {
	for _, plans := range s.cache {
		for _, plan := range plans {
			if plan.ID == planID {
				return plan, nil
			}
		}
	}

	// Not cached yet; resolve the owner and load their plans.
	plan, err := s.repo.GetBudgetPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLoadedLocked(ctx, plan.UserID); err != nil {
		return nil, err
	}
	for _, cached := range s.cache[plan.UserID] {
		if cached.ID == planID {
			return cached, nil
		}
	}
	return plan, nil
}

func (s *PlanService) ensureLoadedLocked(ctx context.Context, userID string) error {
	if s.loaded[userID] {
		return nil
	}
	plans, err := s.repo.GetBudgetPlansByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load budget plans: %w", err)
	}
	s.cache[userID] = plans
	s.loaded[userID] = true
	return nil
}
