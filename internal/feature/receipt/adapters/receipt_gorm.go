// Package adapters implements the receipt repository with GORM.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	foodadapters "freshreceipt_backend/internal/feature/fooditem/adapters"
	fooditem "freshreceipt_backend/internal/feature/fooditem/domain/entity"
	"freshreceipt_backend/internal/feature/receipt/domain/entity"
	"freshreceipt_backend/internal/feature/receipt/usecase"
	"freshreceipt_backend/internal/platform/db"
)

type receiptGorm struct {
	exec db.Executor
}

var _ usecase.ReceiptRepository = (*receiptGorm)(nil)

// NewReceiptGorm creates a receipt repository on exec.
func NewReceiptGorm(exec db.Executor) *receiptGorm {
	return &receiptGorm{exec: exec}
}

func (r *receiptGorm) Create(ctx context.Context, userID uuid.UUID, rec *entity.Receipt) error {
	if rec == nil {
		return errors.New("receipt is nil")
	}
	m := receiptModelFromEntity(rec)
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.First(m, "id = ?", m.ID).Error
	})
	if err != nil {
		return mapError(err)
	}
	*rec = *m.ToEntity()
	return nil
}

// List returns the household's receipts, newest first.
func (r *receiptGorm) List(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Receipt, error) {
	var models []ReceiptModel
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		return tx.Where("household_id = ?", householdID).Order("created_at DESC").Find(&models).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]entity.Receipt, 0, len(models))
	for i := range models {
		out = append(out, *models[i].ToEntity())
	}
	return out, nil
}

func (r *receiptGorm) Get(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.Receipt, error) {
	var m ReceiptModel
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		return first(tx, householdID, id, &m)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return m.ToEntity(), nil
}

// StartScan claims the receipt with a conditional update so two concurrent
// scans cannot both proceed.
func (r *receiptGorm) StartScan(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.Receipt, error) {
	var m ReceiptModel
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		res := tx.Model(&ReceiptModel{}).
			Where("id = ? AND household_id = ? AND scan_status IN ?", id, householdID,
				[]string{entity.StatusPending, entity.StatusFailed}).
			Updates(map[string]any{"scan_status": entity.StatusProcessing, "processing_error": nil})
		if res.Error != nil {
			return res.Error
		}
		if err := first(tx, householdID, id, &m); err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			if m.ScanStatus == entity.StatusCompleted {
				return usecase.ErrAlreadyScanned
			}
			return usecase.ErrScanInProgress
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return m.ToEntity(), nil
}

func (r *receiptGorm) FailScan(ctx context.Context, userID, householdID, id uuid.UUID, reason string) error {
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		res := tx.Model(&ReceiptModel{}).
			Where("id = ? AND household_id = ?", id, householdID).
			Updates(map[string]any{"scan_status": entity.StatusFailed, "processing_error": reason})
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

// CompleteScan writes the scan result and the derived food items. Either
// both land or neither does.
func (r *receiptGorm) CompleteScan(ctx context.Context, userID, householdID, id uuid.UUID, result *entity.ScanResult, items []fooditem.FoodItem) (*entity.Receipt, []fooditem.FoodItem, error) {
	var (
		m      ReceiptModel
		stored []foodadapters.FoodItemModel
	)
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		res := tx.Model(&ReceiptModel{}).
			Where("id = ? AND household_id = ? AND scan_status = ?", id, householdID, entity.StatusProcessing).
			Updates(map[string]any{
				"scan_status":      entity.StatusCompleted,
				"store_name":       result.StoreName,
				"total_amount":     result.TotalAmount.Round(2),
				"purchase_date":    result.PurchaseDate,
				"processing_error": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrScanInProgress
		}

		if len(items) > 0 {
			models := make([]*foodadapters.FoodItemModel, 0, len(items))
			ids := make([]uuid.UUID, 0, len(items))
			for i := range items {
				models = append(models, foodadapters.FoodItemModelFromEntity(&items[i]))
				ids = append(ids, items[i].ID)
			}
			if err := tx.Create(models).Error; err != nil {
				return fmt.Errorf("insert scanned items: %w", err)
			}
			if err := tx.Where("id IN ?", ids).Order("name").Find(&stored).Error; err != nil {
				return err
			}
		}
		return first(tx, householdID, id, &m)
	})
	if err != nil {
		return nil, nil, mapError(err)
	}

	out := make([]fooditem.FoodItem, 0, len(stored))
	for i := range stored {
		out = append(out, *stored[i].ToEntity())
	}
	return m.ToEntity(), out, nil
}

func first(tx *gorm.DB, householdID, id uuid.UUID, m *ReceiptModel) error {
	return tx.Where("id = ? AND household_id = ?", id, householdID).First(m).Error
}

func mapError(err error) error {
	switch {
	case err == nil,
		errors.Is(err, usecase.ErrNotFound),
		errors.Is(err, usecase.ErrAlreadyScanned),
		errors.Is(err, usecase.ErrScanInProgress):
		return err
	}
	switch mapped := db.MapError(err); {
	case errors.Is(mapped, db.ErrNotFound):
		return usecase.ErrNotFound
	case errors.Is(mapped, db.ErrPolicyViolation):
		slog.Warn("receipt write rejected by policy", "error", err)
		return usecase.ErrNotFound
	default:
		return err
	}
}
