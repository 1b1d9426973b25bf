package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
)

const maxCategoryNameLength = 100

// Category classifies transactions and budget allocations for one user.
type Category struct {
	ID        string
	UserID    string
	Name      string
	Type      TransactionType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCategory validates and builds a Category.
func NewCategory(userID, name string, catType TransactionType) (*Category, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.NewValidationError("user id", "cannot be empty")
	}
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if !catType.Valid() {
		return nil, common.NewValidationError("type", fmt.Sprintf("unknown category type %q", catType))
	}

	now := time.Now().UTC()
	return &Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Type:      catType,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Rename changes the category name. The updated timestamp is only stamped on
// an actual change.
func (c *Category) Rename(name string) error {
	if err := validateCategoryName(name); err != nil {
		return err
	}
	if c.Name == name {
		return nil
	}
	c.Name = name
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetType changes the category type. The updated timestamp is only stamped on
// an actual change.
func (c *Category) SetType(catType TransactionType) error {
	if !catType.Valid() {
		return common.NewValidationError("type", fmt.Sprintf("unknown category type %q", catType))
	}
	if c.Type == catType {
		return nil
	}
	c.Type = catType
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func validateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return common.NewValidationError("name", "cannot be empty")
	}
	if len(name) > maxCategoryNameLength {
		return common.NewValidationError("name", fmt.Sprintf("must be at most %d characters", maxCategoryNameLength))
	}
	return nil
}
