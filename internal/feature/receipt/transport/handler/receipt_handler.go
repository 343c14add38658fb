// Package handler provides the HTTP handlers of the receipt feature.
// Every route runs behind middleware.RequireHousehold.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"freshreceipt_backend/internal/api"
	fooditem "freshreceipt_backend/internal/feature/fooditem/domain/entity"
	foodhandler "freshreceipt_backend/internal/feature/fooditem/transport/handler"
	"freshreceipt_backend/internal/feature/receipt/domain/entity"
	"freshreceipt_backend/internal/feature/receipt/usecase"
	"freshreceipt_backend/internal/platform/http/middleware"
	jwtmw "freshreceipt_backend/internal/platform/jwt"
)

// multipartOverhead is allowed on top of the image for form boundaries and headers.
const multipartOverhead = 64 * 1024

type ReceiptUsecase interface {
	MaxUploadBytes() int64
	Upload(ctx context.Context, userID, householdID uuid.UUID, file io.Reader) (*entity.Receipt, error)
	List(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Receipt, error)
	Get(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.Receipt, error)
	Scan(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.Receipt, []fooditem.FoodItem, error)
}

// ReceiptHandler handles the /receipts endpoints.
type ReceiptHandler struct {
	receipts ReceiptUsecase
}

func NewReceiptHandler(receipts ReceiptUsecase) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Upload handles POST /receipts/upload.
//
// Content-Type: multipart/form-data
// Field: file (jpeg, png or webp)
func (h *ReceiptHandler) Upload(c *gin.Context) {
	userID, householdID, ok := scope(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.receipts.MaxUploadBytes()+multipartOverhead)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: usecase.ErrFileTooLarge.Error()})
			return
		}
		slog.Warn("receipt upload without file", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("failed to open uploaded receipt", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to read upload"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close uploaded receipt", "error", err)
		}
	}()

	r, err := h.receipts.Upload(c.Request.Context(), userID, householdID, f)
	if err != nil {
		fail(c, "upload receipt", err)
		return
	}
	slog.Info("receipt uploaded", "receipt_id", r.ID, "household_id", householdID, "size", file.Size)
	c.JSON(http.StatusCreated, ToResponse(r))
}

// List handles GET /receipts.
func (h *ReceiptHandler) List(c *gin.Context) {
	userID, householdID, ok := scope(c)
	if !ok {
		return
	}
	list, err := h.receipts.List(c.Request.Context(), userID, householdID)
	if err != nil {
		fail(c, "list receipts", err)
		return
	}
	out := make([]api.ReceiptResponse, 0, len(list))
	for i := range list {
		out = append(out, ToResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /receipts/:id.
func (h *ReceiptHandler) Get(c *gin.Context) {
	userID, householdID, id, ok := scopeWithID(c)
	if !ok {
		return
	}
	r, err := h.receipts.Get(c.Request.Context(), userID, householdID, id)
	if err != nil {
		fail(c, "get receipt", err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(r))
}

// Scan handles POST /receipts/:id/scan.
func (h *ReceiptHandler) Scan(c *gin.Context) {
	userID, householdID, id, ok := scopeWithID(c)
	if !ok {
		return
	}
	r, items, err := h.receipts.Scan(c.Request.Context(), userID, householdID, id)
	if err != nil {
		fail(c, "scan receipt", err)
		return
	}
	out := api.ReceiptScanResponse{
		Receipt: ToResponse(r),
		Items:   make([]api.FoodItemResponse, 0, len(items)),
	}
	for i := range items {
		out.Items = append(out.Items, foodhandler.ToResponse(&items[i]))
	}
	c.JSON(http.StatusOK, out)
}

func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "receipt not found"})
	case errors.Is(err, usecase.ErrEmptyFile), errors.Is(err, usecase.ErrUnsupportedImage):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrAlreadyScanned), errors.Is(err, usecase.ErrScanInProgress):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrScanFailed):
		slog.Error(op+" failed", "error", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: usecase.ErrScanFailed.Error()})
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
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid receipt id"})
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return userID, householdID, id, true
}

// ToResponse converts a receipt to its wire form.
func ToResponse(r *entity.Receipt) api.ReceiptResponse {
	return api.ReceiptResponse{
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
