// Package handler provides the HTTP handlers of the food item feature.
// Every route runs behind middleware.RequireHousehold.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/feature/fooditem/domain/entity"
	"freshreceipt_backend/internal/feature/fooditem/usecase"
	"freshreceipt_backend/internal/platform/http/middleware"
	jwtmw "freshreceipt_backend/internal/platform/jwt"
)

// FoodItemUsecase is the set of food item operations the handler needs.
type FoodItemUsecase interface {
	List(ctx context.Context, userID, householdID uuid.UUID, includeConsumed bool, expiringWithinDays int) ([]entity.FoodItem, error)
	Create(ctx context.Context, userID, householdID uuid.UUID, item entity.FoodItem) (*entity.FoodItem, error)
	Get(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error)
	Update(ctx context.Context, userID, householdID, id uuid.UUID, patch usecase.Patch) (*entity.FoodItem, error)
	Delete(ctx context.Context, userID, householdID, id uuid.UUID) error
	Consume(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.FoodItem, error)
}

// FoodItemHandler handles the /food-items endpoints.
type FoodItemHandler struct {
	items FoodItemUsecase
}

// NewFoodItemHandler creates a FoodItemHandler.
func NewFoodItemHandler(items FoodItemUsecase) *FoodItemHandler {
	return &FoodItemHandler{items: items}
}

// List handles GET /food-items?include_consumed=&expiring_within=.
func (h *FoodItemHandler) List(c *gin.Context) {
	userID, householdID, ok := scope(c)
	if !ok {
		return
	}
	includeConsumed := false
	if v := c.Query("include_consumed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "include_consumed must be a boolean"})
			return
		}
		includeConsumed = b
	}
	within := -1
	if v := c.Query("expiring_within"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "expiring_within must be a non-negative number of days"})
			return
		}
		within = n
	}

	items, err := h.items.List(c.Request.Context(), userID, householdID, includeConsumed, within)
	if err != nil {
		fail(c, "list food items", err)
		return
	}
	out := make([]api.FoodItemResponse, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Create handles POST /food-items.
func (h *FoodItemHandler) Create(c *gin.Context) {
	userID, householdID, ok := scope(c)
	if !ok {
		return
	}
	var req api.FoodItemCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	item := entity.FoodItem{
		Name:            req.Name,
		Category:        req.Category,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		ExpiryDate:      req.ExpiryDate,
		StorageLocation: req.StorageLocation,
		ReceiptID:       req.ReceiptID,
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.PurchaseDate != nil {
		item.PurchaseDate = *req.PurchaseDate
	}

	created, err := h.items.Create(c.Request.Context(), userID, householdID, item)
	if err != nil {
		fail(c, "create food item", err)
		return
	}
	c.JSON(http.StatusCreated, ToResponse(created))
}

// Get handles GET /food-items/:id.
func (h *FoodItemHandler) Get(c *gin.Context) {
	userID, householdID, id, ok := scopeWithID(c)
	if !ok {
		return
	}
	item, err := h.items.Get(c.Request.Context(), userID, householdID, id)
	if err != nil {
		fail(c, "get food item", err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(item))
}

// Update handles PATCH /food-items/:id.
func (h *FoodItemHandler) Update(c *gin.Context) {
	userID, householdID, id, ok := scopeWithID(c)
	if !ok {
		return
	}
	var req api.FoodItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	item, err := h.items.Update(c.Request.Context(), userID, householdID, id, usecase.Patch{
		Name:            req.Name,
		Category:        req.Category,
		Price:           req.Price,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		PurchaseDate:    req.PurchaseDate,
		ExpiryDate:      req.ExpiryDate,
		StorageLocation: req.StorageLocation,
	})
	if err != nil {
		fail(c, "update food item", err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(item))
}

// Delete handles DELETE /food-items/:id.
func (h *FoodItemHandler) Delete(c *gin.Context) {
	userID, householdID, id, ok := scopeWithID(c)
	if !ok {
		return
	}
	if err := h.items.Delete(c.Request.Context(), userID, householdID, id); err != nil {
		fail(c, "delete food item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Consume handles POST /food-items/:id/consume.
func (h *FoodItemHandler) Consume(c *gin.Context) {
	userID, householdID, id, ok := scopeWithID(c)
	if !ok {
		return
	}
	item, err := h.items.Consume(c.Request.Context(), userID, householdID, id)
	if err != nil {
		fail(c, "consume food item", err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(item))
}

func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "food item not found"})
	case errors.Is(err, usecase.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrAlreadyConsumed):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "food item already consumed"})
	default:
		slog.Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

func scope(c *gin.Context) (userID, householdID uuid.UUID, ok bool) {
	userID, ok = jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}
	householdID, ok = middleware.HouseholdID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "X-Household-ID header is required"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, householdID, true
}

func scopeWithID(c *gin.Context) (userID, householdID, id uuid.UUID, ok bool) {
	userID, householdID, ok = scope(c)
	if !ok {
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid food item id"})
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return userID, householdID, id, true
}

// ToResponse converts a food item to its wire form.
func ToResponse(f *entity.FoodItem) api.FoodItemResponse {
	return api.FoodItemResponse{
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
