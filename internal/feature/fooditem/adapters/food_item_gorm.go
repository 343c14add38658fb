// Package adapters implements the food item repository with GORM.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"freshreceipt_backend/internal/feature/fooditem/domain/entity"
	"freshreceipt_backend/internal/feature/fooditem/usecase"
	"freshreceipt_backend/internal/platform/db"
)

type foodItemGorm struct {
	exec db.Executor
}

var _ usecase.FoodItemRepository = (*foodItemGorm)(nil)

// NewFoodItemGorm creates a food item repository. Queries filter on the
// household explicitly; row-level security applies on top when exec binds
// an identity.
func NewFoodItemGorm(exec db.Executor) *foodItemGorm {
	return &foodItemGorm{exec: exec}
}

// List returns items ordered by purchase date, newest first.
func (r *foodItemGorm) List(ctx context.Context, userID, householdID uuid.UUID, filter usecase.ListFilter) ([]entity.FoodItem, error) {
	var models []FoodItemModel
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		q := tx.Where("household_id = ?", householdID)
		if !filter.IncludeConsumed {
			q = q.Where("is_consumed = ?", false)
		}
		if filter.ExpiringBefore != nil {
			q = q.Where("expiry_date IS NOT NULL AND expiry_date <= ?", *filter.ExpiringBefore)
		}
		return q.Order("purchase_date DESC").Order("created_at DESC").Find(&models).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]entity.FoodItem, 0, len(models))
	for i := range models {
		out = append(out, *models[i].ToEntity())
	}
	return out, nil
}

// Create inserts item. The household must be visible to userID.
func (r *foodItemGorm) Create(ctx context.Context, userID uuid.UUID, item *entity.FoodItem) error {
	if item == nil {
		return errors.New("food item is nil")
	}
	m := FoodItemModelFromEntity(item)
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.First(m, "id = ?", m.ID).Error
	})
	if err != nil {
		return mapError(err)
	}
	*item = *m.ToEntity()
	return nil
}

// Get returns usecase.ErrNotFound for missing items and items of other households.
func (r *foodItemGorm) Get(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error) {
	var m FoodItemModel
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		return tx.Where("id = ? AND household_id = ?", id, householdID).First(&m).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return m.ToEntity(), nil
}

// Update applies the non-nil fields of patch.
func (r *foodItemGorm) Update(ctx context.Context, userID, householdID, id uuid.UUID, patch usecase.Patch) (*entity.FoodItem, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.Quantity != nil {
		updates["quantity"] = *patch.Quantity
	}
	if patch.Unit != nil {
		updates["unit"] = *patch.Unit
	}
	if patch.PurchaseDate != nil {
		updates["purchase_date"] = *patch.PurchaseDate
	}
	if patch.ExpiryDate != nil {
		updates["expiry_date"] = *patch.ExpiryDate
	}
	if patch.StorageLocation != nil {
		updates["storage_location"] = *patch.StorageLocation
	}

	var m FoodItemModel
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := tx.Model(&FoodItemModel{}).
				Where("id = ? AND household_id = ?", id, householdID).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return usecase.ErrNotFound
			}
		}
		return tx.Where("id = ? AND household_id = ?", id, householdID).First(&m).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return m.ToEntity(), nil
}

func (r *foodItemGorm) Delete(ctx context.Context, userID, householdID, id uuid.UUID) error {
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND household_id = ?", id, householdID).Delete(&FoodItemModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrNotFound
		}
		return nil
	})
	return mapError(err)
}

// Consume marks an unconsumed item as consumed by userID at at.
func (r *foodItemGorm) Consume(ctx context.Context, userID, householdID, id uuid.UUID, at time.Time) (*entity.FoodItem, error) {
	var m FoodItemModel
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND household_id = ?", id, householdID).First(&m).Error; err != nil {
			return err
		}
		if m.IsConsumed {
			return usecase.ErrAlreadyConsumed
		}
		res := tx.Model(&FoodItemModel{}).
			Where("id = ? AND is_consumed = ?", id, false).
			Updates(map[string]any{"is_consumed": true, "consumed_at": at, "consumed_by": userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrAlreadyConsumed
		}
		return tx.First(&m, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return m.ToEntity(), nil
}

func mapError(err error) error {
	if err == nil || errors.Is(err, usecase.ErrNotFound) || errors.Is(err, usecase.ErrAlreadyConsumed) {
		return err
	}
	switch mapped := db.MapError(err); {
	case errors.Is(mapped, db.ErrNotFound):
		return usecase.ErrNotFound
	case errors.Is(mapped, db.ErrInvalid):
		slog.Warn("food item rejected by constraint", "error", err)
		return usecase.ErrInvalidInput
	case errors.Is(mapped, db.ErrPolicyViolation):
		return fmt.Errorf("%w: %w", usecase.ErrNotFound, err)
	default:
		return err
	}
}
