// Package ledger implements the per-user transaction and category stores.
// Both keep a lazily populated in-memory cache in front of the repository;
// the process owns a single user session, so there is no cross-process cache
// invalidation.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
)

// CategoryStore manages a user's categories.
type CategoryStore struct {
	repo service.Repository

	mu     sync.Mutex
	cache  map[string]map[string]*model.Category
	loaded map[string]bool
}

// NewCategoryStore creates a category store backed by the repository.
func NewCategoryStore(repo service.Repository) *CategoryStore {
	return &CategoryStore{
		repo:   repo,
		cache:  make(map[string]map[string]*model.Category),
		loaded: make(map[string]bool),
	}
}

// GetAll returns all of the user's categories.
func (s *CategoryStore) GetAll(ctx context.Context, userID string) ([]*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, userID); err != nil {
		return nil, err
	}

	categories := make([]*model.Category, 0, len(s.cache[userID]))
	for _, cat := range s.cache[userID] {
		categories = append(categories, cat)
	}
	return categories, nil
}

// GetByID returns the category with the given id.
func (s *CategoryStore) GetByID(ctx context.Context, userID, id string) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getByIDLocked(ctx, userID, id)
}

// GetByName returns the category with the given name, compared
// case-insensitively within the user's scope.
func (s *CategoryStore) GetByName(ctx context.Context, userID, name string) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, userID); err != nil {
		return nil, err
	}

	for _, cat := range s.cache[userID] {
		if strings.EqualFold(cat.Name, name) {
			return cat, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
}

// Exists reports whether the user has a category with the given id.
func (s *CategoryStore) Exists(ctx context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, userID); err != nil {
		return false, err
	}
	_, ok := s.cache[userID][id]
	return ok, nil
}

// Create validates, persists, and caches a new category.
func (s *CategoryStore) Create(ctx context.Context, userID, name string, catType model.TransactionType) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, userID); err != nil {
		return nil, err
	}

	category, err := model.NewCategory(userID, name, catType)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit category: %w", err)
	}

	s.cache[userID][category.ID] = category
	return category, nil
}

// Rename changes a category's name.
func (s *CategoryStore) Rename(ctx context.Context, userID, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, err := s.getByIDLocked(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := category.Rename(name); err != nil {
		return err
	}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return s.repo.SaveChanges(ctx)
}

// SetType changes a category's type.
func (s *CategoryStore) SetType(ctx context.Context, userID, id string, catType model.TransactionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, err := s.getByIDLocked(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := category.SetType(catType); err != nil {
		return err
	}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return s.repo.SaveChanges(ctx)
}

// Delete removes a category by id.
func (s *CategoryStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getByIDLocked(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return err
	}
	delete(s.cache[userID], id)
	return nil
}

func (s *CategoryStore) getByIDLocked(ctx context.Context, userID, id string) (*model.Category, error) {
	if err := s.ensureLoadedLocked(ctx, userID); err != nil {
		return nil, err
	}
	category, ok := s.cache[userID][id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	return category, nil
}

func (s *CategoryStore) ensureLoadedLocked(ctx context.Context, userID string) error {
	if s.loaded[userID] {
		return nil
	}

	categories, err := s.repo.GetCategoriesByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	byID := make(map[string]*model.Category, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}
	s.cache[userID] = byID
	s.loaded[userID] = true
	return nil
}
