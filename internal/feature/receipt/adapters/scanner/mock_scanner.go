// Package scanner provides receipt scanners.
package scanner

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"freshreceipt_backend/internal/feature/receipt/domain/entity"
	"freshreceipt_backend/internal/feature/receipt/usecase"
)

// MockScanner derives a plausible receipt from a hash of the image, so the
// same image always yields the same result.
type MockScanner struct {
	now func() time.Time
}

var _ usecase.Scanner = (*MockScanner)(nil)

func NewMockScanner() *MockScanner {
	return &MockScanner{now: time.Now}
}

var stores = []string{"Green Basket", "Corner Market", "FreshMart", "Daily Harvest"}

type product struct {
	name     string
	category string
	unit     string
	cents    int64
	shelf    int
}

var catalog = []product{
	{"Milk", "dairy", "l", 129, 7},
	{"Eggs", "dairy", "pcs", 289, 21},
	{"Greek Yogurt", "dairy", "g", 199, 14},
	{"Cheddar", "dairy", "g", 449, 30},
	{"Bananas", "produce", "kg", 119, 5},
	{"Spinach", "produce", "g", 249, 4},
	{"Tomatoes", "produce", "kg", 329, 6},
	{"Apples", "produce", "kg", 279, 21},
	{"Chicken Breast", "meat", "kg", 899, 2},
	{"Ground Beef", "meat", "kg", 749, 2},
	{"Salmon Fillet", "fish", "g", 1099, 2},
	{"Sourdough Bread", "bakery", "pcs", 399, 4},
	{"Rice", "pantry", "kg", 259, 365},
	{"Pasta", "pantry", "g", 149, 540},
	{"Orange Juice", "beverages", "l", 349, 10},
}

// Scan fails on an empty image and otherwise picks a store and between two
// and six catalog items.
func (s *MockScanner) Scan(ctx context.Context, image []byte) (*entity.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, errors.New("image is empty")
	}

	h := fnv.New64a()
	_, _ = h.Write(image)
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	result := &entity.ScanResult{
		StoreName:    stores[rng.IntN(len(stores))],
		PurchaseDate: s.now().UTC().Truncate(24 * time.Hour),
	}

	total := decimal.Zero
	for _, i := range rng.Perm(len(catalog))[:2+rng.IntN(5)] {
		p := catalog[i]
		qty := 1 + rng.IntN(3)
		price := decimal.New(p.cents, -2)
		category, unit := p.category, p.unit
		result.Items = append(result.Items, entity.LineItem{
			Name:          p.name,
			Category:      &category,
			Price:         price,
			Quantity:      qty,
			Unit:          &unit,
			ShelfLifeDays: p.shelf,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}
	result.TotalAmount = total
	return result, nil
}
