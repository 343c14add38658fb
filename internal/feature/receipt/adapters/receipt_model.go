package adapters

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freshreceipt_backend/internal/feature/receipt/domain/entity"
)

// ReceiptModel is the GORM model for the receipts table.
type ReceiptModel struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey"`
	HouseholdID     uuid.UUID        `gorm:"type:uuid;index;not null"`
	UploadedBy      uuid.UUID        `gorm:"type:uuid;not null"`
	ImagePath       string           `gorm:"size:512;not null"`
	StoreName       *string          `gorm:"size:255"`
	TotalAmount     *decimal.Decimal `gorm:"type:numeric(12,2)"`
	PurchaseDate    time.Time        `gorm:"not null"`
	ScanStatus      string           `gorm:"size:16;not null"`
	ProcessingError *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ReceiptModel) TableName() string {
	return "receipts"
}

func (m *ReceiptModel) ToEntity() *entity.Receipt {
	return &entity.Receipt{
		ID:              m.ID,
		HouseholdID:     m.HouseholdID,
		UploadedBy:      m.UploadedBy,
		ImagePath:       m.ImagePath,
		StoreName:       m.StoreName,
		TotalAmount:     m.TotalAmount,
		PurchaseDate:    m.PurchaseDate,
		ScanStatus:      m.ScanStatus,
		ProcessingError: m.ProcessingError,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func receiptModelFromEntity(r *entity.Receipt) *ReceiptModel {
	return &ReceiptModel{
		ID:              r.ID,
		HouseholdID:     r.HouseholdID,
		UploadedBy:      r.UploadedBy,
		ImagePath:       r.ImagePath,
		StoreName:       r.StoreName,
		TotalAmount:     r.TotalAmount,
		PurchaseDate:    r.PurchaseDate,
		ScanStatus:      r.ScanStatus,
		ProcessingError: r.ProcessingError,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
