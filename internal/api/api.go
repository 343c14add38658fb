// Package api defines the JSON wire types shared by the HTTP server and the
// client core.
package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HeaderHouseholdID carries the active household on scoped requests.
const HeaderHouseholdID = "X-Household-ID"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is returned by login and refresh. ExpiresIn is in seconds.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

type VerifyResponse struct {
	Valid  bool      `json:"valid"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

type HouseholdCreateRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// HouseholdBootstrapRequest is optional; an empty name selects the default.
type HouseholdBootstrapRequest struct {
	Name string `json:"name" binding:"max=255"`
}

type HouseholdUpdateRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type HouseholdResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Role      string    `json:"role,omitempty"`
}

type MemberResponse struct {
	ID          uuid.UUID `json:"id"`
	HouseholdID uuid.UUID `json:"household_id"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=admin member"`
}

type FoodItemCreateRequest struct {
	Name            string           `json:"name" binding:"required,max=255"`
	Category        *string          `json:"category,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Quantity        int              `json:"quantity" binding:"omitempty,min=1"`
	Unit            *string          `json:"unit,omitempty"`
	PurchaseDate    *time.Time       `json:"purchase_date,omitempty"`
	ExpiryDate      *time.Time       `json:"expiry_date,omitempty"`
	StorageLocation *string          `json:"storage_location,omitempty"`
	ReceiptID       *uuid.UUID       `json:"receipt_id,omitempty"`
}

// FoodItemUpdateRequest is a partial update; nil fields are left unchanged.
type FoodItemUpdateRequest struct {
	Name            *string          `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Category        *string          `json:"category,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Quantity        *int             `json:"quantity,omitempty" binding:"omitempty,min=1"`
	Unit            *string          `json:"unit,omitempty"`
	PurchaseDate    *time.Time       `json:"purchase_date,omitempty"`
	ExpiryDate      *time.Time       `json:"expiry_date,omitempty"`
	StorageLocation *string          `json:"storage_location,omitempty"`
}

type FoodItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	HouseholdID     uuid.UUID       `json:"household_id"`
	ReceiptID       *uuid.UUID      `json:"receipt_id,omitempty"`
	AddedBy         uuid.UUID       `json:"added_by"`
	Name            string          `json:"name"`
	Category        *string         `json:"category,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Unit            *string         `json:"unit,omitempty"`
	PurchaseDate    time.Time       `json:"purchase_date"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	StorageLocation *string         `json:"storage_location,omitempty"`
	IsConsumed      bool            `json:"is_consumed"`
	ConsumedAt      *time.Time      `json:"consumed_at,omitempty"`
	ConsumedBy      *uuid.UUID      `json:"consumed_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ReceiptResponse struct {
	ID              uuid.UUID        `json:"id"`
	HouseholdID     uuid.UUID        `json:"household_id"`
	UploadedBy      uuid.UUID        `json:"uploaded_by"`
	ImagePath       string           `json:"image_path"`
	StoreName       *string          `json:"store_name,omitempty"`
	TotalAmount     *decimal.Decimal `json:"total_amount,omitempty"`
	PurchaseDate    time.Time        `json:"purchase_date"`
	ScanStatus      string           `json:"scan_status"`
	ProcessingError *string          `json:"processing_error,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type ReceiptScanResponse struct {
	Receipt ReceiptResponse    `json:"receipt"`
	Items   []FoodItemResponse `json:"items"`
}
