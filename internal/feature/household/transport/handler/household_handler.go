// Package handler provides the HTTP handlers of the household feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/feature/household/domain/entity"
	"freshreceipt_backend/internal/feature/household/usecase"
	jwtmw "freshreceipt_backend/internal/platform/jwt"
)

// HouseholdUsecase is the set of household operations the handler needs.
type HouseholdUsecase interface {
	List(ctx context.Context, userID uuid.UUID) ([]entity.Household, error)
	Create(ctx context.Context, userID uuid.UUID, name string) (*entity.Household, error)
	Bootstrap(ctx context.Context, userID uuid.UUID, email, name string) (*entity.Household, error)
	Get(ctx context.Context, userID, householdID uuid.UUID) (*entity.Household, error)
	Rename(ctx context.Context, userID, householdID uuid.UUID, name string) (*entity.Household, error)
	Delete(ctx context.Context, userID, householdID uuid.UUID) error
	Members(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Member, error)
	Invite(ctx context.Context, userID, householdID uuid.UUID, email, role string) (*entity.Member, error)
	RemoveMember(ctx context.Context, userID, householdID, memberUserID uuid.UUID) error
}

// HouseholdHandler handles the /households endpoints.
type HouseholdHandler struct {
	households HouseholdUsecase
}

// NewHouseholdHandler creates a HouseholdHandler.
func NewHouseholdHandler(households HouseholdUsecase) *HouseholdHandler {
	return &HouseholdHandler{households: households}
}

// List handles GET /households.
func (h *HouseholdHandler) List(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	list, err := h.households.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, "list households", err)
		return
	}
	out := make([]api.HouseholdResponse, 0, len(list))
	for i := range list {
		out = append(out, toHouseholdResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Create handles POST /households.
func (h *HouseholdHandler) Create(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	var req api.HouseholdCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	hh, err := h.households.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		fail(c, "create household", err)
		return
	}
	slog.Info("household created", "household_id", hh.ID, "user_id", userID)
	c.JSON(http.StatusCreated, toHouseholdResponse(hh))
}

// Bootstrap handles POST /households/bootstrap. The body is optional.
func (h *HouseholdHandler) Bootstrap(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	var req api.HouseholdBootstrapRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
			return
		}
	}
	hh, err := h.households.Bootstrap(c.Request.Context(), userID, jwtmw.Email(c), req.Name)
	if err != nil {
		fail(c, "bootstrap household", err)
		return
	}
	slog.Info("household bootstrapped", "household_id", hh.ID, "user_id", userID)
	c.JSON(http.StatusCreated, toHouseholdResponse(hh))
}

// Get handles GET /households/:id.
func (h *HouseholdHandler) Get(c *gin.Context) {
	userID, householdID, ok := ids(c)
	if !ok {
		return
	}
	hh, err := h.households.Get(c.Request.Context(), userID, householdID)
	if err != nil {
		fail(c, "get household", err)
		return
	}
	c.JSON(http.StatusOK, toHouseholdResponse(hh))
}

// Update handles PATCH /households/:id.
func (h *HouseholdHandler) Update(c *gin.Context) {
	userID, householdID, ok := ids(c)
	if !ok {
		return
	}
	var req api.HouseholdUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	hh, err := h.households.Rename(c.Request.Context(), userID, householdID, req.Name)
	if err != nil {
		fail(c, "rename household", err)
		return
	}
	c.JSON(http.StatusOK, toHouseholdResponse(hh))
}

// Delete handles DELETE /households/:id.
func (h *HouseholdHandler) Delete(c *gin.Context) {
	userID, householdID, ok := ids(c)
	if !ok {
		return
	}
	if err := h.households.Delete(c.Request.Context(), userID, householdID); err != nil {
		fail(c, "delete household", err)
		return
	}
	slog.Info("household deleted", "household_id", householdID, "user_id", userID)
	c.Status(http.StatusNoContent)
}

// Members handles GET /households/:id/members.
func (h *HouseholdHandler) Members(c *gin.Context) {
	userID, householdID, ok := ids(c)
	if !ok {
		return
	}
	members, err := h.households.Members(c.Request.Context(), userID, householdID)
	if err != nil {
		fail(c, "list members", err)
		return
	}
	out := make([]api.MemberResponse, 0, len(members))
	for i := range members {
		out = append(out, toMemberResponse(&members[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Invite handles POST /households/:id/members.
func (h *HouseholdHandler) Invite(c *gin.Context) {
	userID, householdID, ok := ids(c)
	if !ok {
		return
	}
	var req api.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	m, err := h.households.Invite(c.Request.Context(), userID, householdID, req.Email, req.Role)
	if err != nil {
		fail(c, "invite member", err)
		return
	}
	slog.Info("member added", "household_id", householdID, "member_id", m.UserID, "role", m.Role)
	c.JSON(http.StatusCreated, toMemberResponse(m))
}

// RemoveMember handles DELETE /households/:id/members/:userID.
func (h *HouseholdHandler) RemoveMember(c *gin.Context) {
	userID, householdID, ok := ids(c)
	if !ok {
		return
	}
	memberID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user id"})
		return
	}
	if err := h.households.RemoveMember(c.Request.Context(), userID, householdID, memberID); err != nil {
		fail(c, "remove member", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps usecase errors to responses. Unknown errors are logged and hidden.
func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "household not found"})
	case errors.Is(err, usecase.ErrForbidden), errors.Is(err, usecase.ErrPolicyViolation):
		slog.Warn(op+" denied", "error", err, "path", c.FullPath())
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "insufficient household role"})
	case errors.Is(err, usecase.ErrAlreadyOwnsHousehold):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "user already owns a household"})
	case errors.Is(err, usecase.ErrAlreadyMember):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "user is already a member"})
	case errors.Is(err, usecase.ErrLastOwner):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "household must keep an owner"})
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
	case errors.Is(err, usecase.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "member not found"})
	case errors.Is(err, usecase.ErrInvalidName):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid household name"})
	case errors.Is(err, usecase.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid role"})
	case errors.Is(err, usecase.ErrTransactionFailure):
		slog.Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create household"})
	default:
		slog.Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

func ids(c *gin.Context) (userID, householdID uuid.UUID, ok bool) {
	userID, ok = jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}
	householdID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid household id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, householdID, true
}

func toHouseholdResponse(h *entity.Household) api.HouseholdResponse {
	return api.HouseholdResponse{
		ID:        h.ID,
		Name:      h.Name,
		CreatedBy: h.CreatedBy,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
		Role:      h.Role,
	}
}

func toMemberResponse(m *entity.Member) api.MemberResponse {
	return api.MemberResponse{
		ID:          m.ID,
		HouseholdID: m.HouseholdID,
		UserID:      m.UserID,
		Email:       m.Email,
		Role:        m.Role,
		JoinedAt:    m.JoinedAt,
	}
}
