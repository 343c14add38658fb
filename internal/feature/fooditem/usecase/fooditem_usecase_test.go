package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshreceipt_backend/internal/feature/fooditem/domain/entity"
)

type mockFoodItemRepository struct {
	ListFunc    func(ctx context.Context, userID, householdID uuid.UUID, filter ListFilter) ([]entity.FoodItem, error)
	CreateFunc  func(ctx context.Context, userID uuid.UUID, item *entity.FoodItem) error
	GetFunc     func(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error)
	UpdateFunc  func(ctx context.Context, userID, householdID, id uuid.UUID, patch Patch) (*entity.FoodItem, error)
	DeleteFunc  func(ctx context.Context, userID, householdID, id uuid.UUID) error
	ConsumeFunc func(ctx context.Context, userID, householdID, id uuid.UUID, at time.Time) (*entity.FoodItem, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockFoodItemRepository) List(ctx context.Context, userID, householdID uuid.UUID, filter ListFilter) ([]entity.FoodItem, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, householdID, filter)
	}
	return nil, errNotImplemented
}

func (m *mockFoodItemRepository) Create(ctx context.Context, userID uuid.UUID, item *entity.FoodItem) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, item)
	}
	return errNotImplemented
}

func (m *mockFoodItemRepository) Get(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, householdID, id)
	}
	return nil, errNotImplemented
}

func (m *mockFoodItemRepository) Update(ctx context.Context, userID, householdID, id uuid.UUID, patch Patch) (*entity.FoodItem, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, householdID, id, patch)
	}
	return nil, errNotImplemented
}

func (m *mockFoodItemRepository) Delete(ctx context.Context, userID, householdID, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, householdID, id)
	}
	return errNotImplemented
}

func (m *mockFoodItemRepository) Consume(ctx context.Context, userID, householdID, id uuid.UUID, at time.Time) (*entity.FoodItem, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, userID, householdID, id, at)
	}
	return nil, errNotImplemented
}

var fixedNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestUsecase(repo FoodItemRepository) *foodItemUsecase {
	u := NewFoodItemUsecase(repo)
	u.now = func() time.Time { return fixedNow }
	return u
}

func TestFoodItemUsecase_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		within     int
		wantBefore *time.Time
		wantErr    error
	}{
		{name: "no expiry filter", within: -1},
		{name: "expiring within three days", within: 3, wantBefore: ptr(fixedNow.AddDate(0, 0, 3))},
		{name: "already expired only", within: 0, wantBefore: ptr(fixedNow)},
		{name: "too far", within: MaxExpiringWithinDays + 1, wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got ListFilter
			repo := &mockFoodItemRepository{
				ListFunc: func(ctx context.Context, userID, householdID uuid.UUID, filter ListFilter) ([]entity.FoodItem, error) {
					got = filter
					return nil, nil
				},
			}

			_, err := newTestUsecase(repo).List(context.Background(), uuid.New(), uuid.New(), true, tt.within)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.IncludeConsumed)
			assert.Equal(t, tt.wantBefore, got.ExpiringBefore)
		})
	}
}

func TestFoodItemUsecase_Create(t *testing.T) {
	t.Parallel()

	userID, householdID := uuid.New(), uuid.New()
	yesterday := fixedNow.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		item    entity.FoodItem
		wantErr bool
		check   func(t *testing.T, got *entity.FoodItem)
	}{
		{
			name: "applies defaults",
			item: entity.FoodItem{Name: "  Milk "},
			check: func(t *testing.T, got *entity.FoodItem) {
				assert.Equal(t, "Milk", got.Name)
				assert.Equal(t, 1, got.Quantity)
				assert.Equal(t, fixedNow, got.PurchaseDate)
				assert.True(t, got.Price.IsZero())
				assert.Equal(t, householdID, got.HouseholdID)
				assert.Equal(t, userID, got.AddedBy)
				assert.NotEqual(t, uuid.Nil, got.ID)
			},
		},
		{
			name: "rounds price to cents",
			item: entity.FoodItem{Name: "Eggs", Price: decimal.RequireFromString("3.499"), Quantity: 12},
			check: func(t *testing.T, got *entity.FoodItem) {
				assert.True(t, got.Price.Equal(decimal.RequireFromString("3.50")), got.Price.String())
			},
		},
		{name: "empty name", item: entity.FoodItem{Name: " "}, wantErr: true},
		{name: "negative price", item: entity.FoodItem{Name: "Tea", Price: decimal.NewFromInt(-1)}, wantErr: true},
		{name: "negative quantity", item: entity.FoodItem{Name: "Tea", Quantity: -2}, wantErr: true},
		{name: "expiry before purchase", item: entity.FoodItem{Name: "Tea", PurchaseDate: fixedNow, ExpiryDate: ptr(yesterday)}, wantErr: true},
		{
			name: "ignores client consumed state",
			item: entity.FoodItem{Name: "Jam", IsConsumed: true, ConsumedBy: &userID},
			check: func(t *testing.T, got *entity.FoodItem) {
				assert.False(t, got.IsConsumed)
				assert.Nil(t, got.ConsumedBy)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stored := false
			repo := &mockFoodItemRepository{
				CreateFunc: func(ctx context.Context, uid uuid.UUID, item *entity.FoodItem) error {
					stored = true
					return nil
				},
			}

			got, err := newTestUsecase(repo).Create(context.Background(), userID, householdID, tt.item)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.False(t, stored)
				return
			}
			require.NoError(t, err)
			assert.True(t, stored)
			tt.check(t, got)
		})
	}
}

func TestFoodItemUsecase_Update(t *testing.T) {
	t.Parallel()

	existing := func() *entity.FoodItem {
		return &entity.FoodItem{Name: "Milk", Quantity: 1, PurchaseDate: fixedNow}
	}

	t.Run("validates merged item", func(t *testing.T) {
		t.Parallel()

		repo := &mockFoodItemRepository{
			GetFunc: func(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error) {
				return existing(), nil
			},
		}
		zero := 0
		_, err := newTestUsecase(repo).Update(context.Background(), uuid.New(), uuid.New(), uuid.New(), Patch{Quantity: &zero})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("passes normalized patch", func(t *testing.T) {
		t.Parallel()

		var got Patch
		repo := &mockFoodItemRepository{
			GetFunc: func(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error) {
				return existing(), nil
			},
			UpdateFunc: func(ctx context.Context, userID, householdID, id uuid.UUID, patch Patch) (*entity.FoodItem, error) {
				got = patch
				return existing(), nil
			},
		}
		name := " Oat milk "
		price := decimal.RequireFromString("1.999")
		_, err := newTestUsecase(repo).Update(context.Background(), uuid.New(), uuid.New(), uuid.New(), Patch{Name: &name, Price: &price})
		require.NoError(t, err)
		assert.Equal(t, "Oat milk", *got.Name)
		assert.Equal(t, "2", got.Price.String())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		repo := &mockFoodItemRepository{
			GetFunc: func(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error) {
				return nil, ErrNotFound
			},
		}
		_, err := newTestUsecase(repo).Update(context.Background(), uuid.New(), uuid.New(), uuid.New(), Patch{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFoodItemUsecase_Consume(t *testing.T) {
	t.Parallel()

	var gotAt time.Time
	repo := &mockFoodItemRepository{
		ConsumeFunc: func(ctx context.Context, userID, householdID, id uuid.UUID, at time.Time) (*entity.FoodItem, error) {
			gotAt = at
			return &entity.FoodItem{IsConsumed: true, ConsumedAt: &at, ConsumedBy: &userID}, nil
		},
	}

	item, err := newTestUsecase(repo).Consume(context.Background(), uuid.New(), uuid.New(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, fixedNow, gotAt)
	assert.True(t, item.IsConsumed)
}

func ptr[T any](v T) *T { return &v }
