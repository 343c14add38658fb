package adapters

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freshreceipt_backend/internal/feature/fooditem/domain/entity"
)

// FoodItemModel is the GORM model for the food_items table.
type FoodItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	HouseholdID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	ReceiptID       *uuid.UUID      `gorm:"type:uuid"`
	AddedBy         uuid.UUID       `gorm:"type:uuid;not null"`
	Name            string          `gorm:"size:255;not null"`
	Category        *string         `gorm:"size:64"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Quantity        int             `gorm:"not null"`
	Unit            *string         `gorm:"size:32"`
	PurchaseDate    time.Time       `gorm:"not null"`
	ExpiryDate      *time.Time
	StorageLocation *string `gorm:"size:64"`
	IsConsumed      bool    `gorm:"not null"`
	ConsumedAt      *time.Time
	ConsumedBy      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM.
func (FoodItemModel) TableName() string {
	return "food_items"
}

// ToEntity converts the GORM model to a domain entity.
func (m *FoodItemModel) ToEntity() *entity.FoodItem {
	return &entity.FoodItem{
		ID:              m.ID,
		HouseholdID:     m.HouseholdID,
		ReceiptID:       m.ReceiptID,
		AddedBy:         m.AddedBy,
		Name:            m.Name,
		Category:        m.Category,
		Price:           m.Price,
		Quantity:        m.Quantity,
		Unit:            m.Unit,
		PurchaseDate:    m.PurchaseDate,
		ExpiryDate:      m.ExpiryDate,
		StorageLocation: m.StorageLocation,
		IsConsumed:      m.IsConsumed,
		ConsumedAt:      m.ConsumedAt,
		ConsumedBy:      m.ConsumedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FoodItemModelFromEntity converts a domain entity to a GORM model.
func FoodItemModelFromEntity(f *entity.FoodItem) *FoodItemModel {
	return &FoodItemModel{
		ID:              f.ID,
		HouseholdID:     f.HouseholdID,
		ReceiptID:       f.ReceiptID,
		AddedBy:         f.AddedBy,
		Name:            f.Name,
		Category:        f.Category,
		Price:           f.Price,
		Quantity:        f.Quantity,
		Unit:            f.Unit,
		PurchaseDate:    f.PurchaseDate,
		ExpiryDate:      f.ExpiryDate,
		StorageLocation: f.StorageLocation,
		IsConsumed:      f.IsConsumed,
		ConsumedAt:      f.ConsumedAt,
		ConsumedBy:      f.ConsumedBy,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}
