// Package entity defines the food inventory domain types.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FoodItem is one inventory line of a household.
type FoodItem struct {
	ID              uuid.UUID
	HouseholdID     uuid.UUID
	ReceiptID       *uuid.UUID
	AddedBy         uuid.UUID
	Name            string
	Category        *string
	Price           decimal.Decimal
	Quantity        int
	Unit            *string
	PurchaseDate    time.Time
	ExpiryDate      *time.Time
	StorageLocation *string
	IsConsumed      bool
	ConsumedAt      *time.Time
	ConsumedBy      *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ExpiresBy reports whether the item has an expiry date at or before t.
func (f *FoodItem) ExpiresBy(t time.Time) bool {
	return f.ExpiryDate != nil && !f.ExpiryDate.After(t)
}
