// Package usecase implements the household food inventory.
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freshreceipt_backend/internal/feature/fooditem/domain/entity"
)

// MaxExpiringWithinDays bounds the expiring_within filter.
const MaxExpiringWithinDays = 365

// ListFilter selects items of one household.
type ListFilter struct {
	IncludeConsumed bool
	// ExpiringBefore keeps only items with an expiry date at or before it.
	ExpiringBefore *time.Time
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Name            *string
	Category        *string
	Price           *decimal.Decimal
	Quantity        *int
	Unit            *string
	PurchaseDate    *time.Time
	ExpiryDate      *time.Time
	StorageLocation *string
}

// FoodItemRepository runs every call under the identity of userID and scoped
// to householdID.
type FoodItemRepository interface {
	List(ctx context.Context, userID, householdID uuid.UUID, filter ListFilter) ([]entity.FoodItem, error)
	Create(ctx context.Context, userID uuid.UUID, item *entity.FoodItem) error
	Get(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error)
	Update(ctx context.Context, userID, householdID, id uuid.UUID, patch Patch) (*entity.FoodItem, error)
	Delete(ctx context.Context, userID, householdID, id uuid.UUID) error
	Consume(ctx context.Context, userID, householdID, id uuid.UUID, at time.Time) (*entity.FoodItem, error)
}

type foodItemUsecase struct {
	repo FoodItemRepository
	now  func() time.Time
}

// NewFoodItemUsecase creates a foodItemUsecase.
func NewFoodItemUsecase(repo FoodItemRepository) *foodItemUsecase {
	return &foodItemUsecase{repo: repo, now: time.Now}
}

// List returns items newest purchase first. expiringWithinDays < 0 disables
// the expiry filter.
func (u *foodItemUsecase) List(ctx context.Context, userID, householdID uuid.UUID, includeConsumed bool, expiringWithinDays int) ([]entity.FoodItem, error) {
	filter := ListFilter{IncludeConsumed: includeConsumed}
	if expiringWithinDays >= 0 {
		if expiringWithinDays > MaxExpiringWithinDays {
			return nil, fmt.Errorf("%w: expiring_within must be at most %d days", ErrInvalidInput, MaxExpiringWithinDays)
		}
		before := u.now().UTC().AddDate(0, 0, expiringWithinDays)
		filter.ExpiringBefore = &before
	}
	return u.repo.List(ctx, userID, householdID, filter)
}

// Create validates and stores a new item added by userID to householdID.
func (u *foodItemUsecase) Create(ctx context.Context, userID, householdID uuid.UUID, item entity.FoodItem) (*entity.FoodItem, error) {
	item.ID = uuid.New()
	item.HouseholdID = householdID
	item.AddedBy = userID
	item.Name = strings.TrimSpace(item.Name)
	item.IsConsumed = false
	item.ConsumedAt, item.ConsumedBy = nil, nil
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.PurchaseDate.IsZero() {
		item.PurchaseDate = u.now().UTC()
	}
	item.Price = item.Price.Round(2)
	if err := validate(&item); err != nil {
		return nil, err
	}
	if err := u.repo.Create(ctx, userID, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (u *foodItemUsecase) Get(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error) {
	return u.repo.Get(ctx, userID, householdID, id)
}

// Update applies patch after validating the resulting item.
func (u *foodItemUsecase) Update(ctx context.Context, userID, householdID, id uuid.UUID, patch Patch) (*entity.FoodItem, error) {
	current, err := u.repo.Get(ctx, userID, householdID, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
		current.Name = trimmed
	}
	if patch.Price != nil {
		rounded := patch.Price.Round(2)
		patch.Price = &rounded
		current.Price = rounded
	}
	if patch.Quantity != nil {
		current.Quantity = *patch.Quantity
	}
	if patch.PurchaseDate != nil {
		current.PurchaseDate = *patch.PurchaseDate
	}
	if patch.ExpiryDate != nil {
		current.ExpiryDate = patch.ExpiryDate
	}
	if err := validate(current); err != nil {
		return nil, err
	}
	return u.repo.Update(ctx, userID, householdID, id, patch)
}

func (u *foodItemUsecase) Delete(ctx context.Context, userID, householdID, id uuid.UUID) error {
	return u.repo.Delete(ctx, userID, householdID, id)
}

// Consume marks an item as eaten or used up by userID.
func (u *foodItemUsecase) Consume(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error) {
	return u.repo.Consume(ctx, userID, householdID, id, u.now().UTC())
}

func validate(item *entity.FoodItem) error {
	switch {
	case item.Name == "" || len(item.Name) > 255:
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case item.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case item.Quantity < 1:
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	case item.ExpiryDate != nil && item.ExpiryDate.Before(item.PurchaseDate.Truncate(24*time.Hour)):
		return fmt.Errorf("%w: expiry date precedes purchase date", ErrInvalidInput)
	}
	return nil
}
