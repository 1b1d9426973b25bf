// Package session resolves the current user for the running process. There
// is no sentinel "default user": an unauthenticated session is an explicit
// error state.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
)

// Provider exposes the current user, or ErrNotAuthenticated when absent.
type Provider interface {
	CurrentUser(ctx context.Context) (*model.User, error)
}

// StaticProvider resolves a fixed user id against the repository. It models
// the single-user desktop session.
type StaticProvider struct {
	repo   service.Repository
	userID string
}

// NewStaticProvider creates a provider for the given user id. An empty id
// yields an unauthenticated session.
func NewStaticProvider(repo service.Repository, userID string) *StaticProvider {
	return &StaticProvider{repo: repo, userID: userID}
}

// CurrentUser returns the session user.
func (p *StaticProvider) CurrentUser(ctx context.Context) (*model.User, error) {
	if p.userID == "" {
		return nil, common.ErrNotAuthenticated
	}
	user, err := p.repo.GetUserByID(ctx, p.userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", p.userID, common.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
