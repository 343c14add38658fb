// Package entity defines the receipt domain types.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scan states. A receipt starts pending and is scanned at most once
// successfully; a failed scan may be retried.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Receipt is an uploaded receipt photo and what its scan extracted.
type Receipt struct {
	ID              uuid.UUID
	HouseholdID     uuid.UUID
	UploadedBy      uuid.UUID
	ImagePath       string
	StoreName       *string
	TotalAmount     *decimal.Decimal
	PurchaseDate    time.Time
	ScanStatus      string
	ProcessingError *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Scannable reports whether a scan may start from the current status.
func (r *Receipt) Scannable() bool {
	return r.ScanStatus == StatusPending || r.ScanStatus == StatusFailed
}

// LineItem is one product line read from a receipt.
type LineItem struct {
	Name     string
	Category *string
	Price    decimal.Decimal
	Quantity int
	Unit     *string
	// ShelfLifeDays estimates the expiry relative to the purchase date.
	// Zero means unknown.
	ShelfLifeDays int
}

// ScanResult is what a scanner extracts from a receipt image.
type ScanResult struct {
	StoreName    string
	TotalAmount  decimal.Decimal
	PurchaseDate time.Time
	Items        []LineItem
}
