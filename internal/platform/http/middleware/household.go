// Package middleware provides gin middleware shared by household-scoped features.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/feature/household/usecase"
	jwtmw "freshreceipt_backend/internal/platform/jwt"
)

const (
	ContextHouseholdID   = "householdID"
	ContextHouseholdRole = "householdRole"
)

// MembershipChecker resolves the caller's role in a household.
// It returns usecase.ErrNotFound for non-members.
type MembershipChecker interface {
	MemberRole(ctx context.Context, userID, householdID uuid.UUID) (string, error)
}

// RequireHousehold scopes a request to the household named in X-Household-ID.
// It must run after jwtmw.AuthRequired.
func RequireHousehold(checker MembershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := jwtmw.UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}

		raw := c.GetHeader(api.HeaderHouseholdID)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: "X-Household-ID header is required"})
			return
		}
		householdID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid X-Household-ID header"})
			return
		}

		role, err := checker.MemberRole(c.Request.Context(), userID, householdID)
		if err != nil {
			if errors.Is(err, usecase.ErrNotFound) {
				slog.Warn("household access denied", "user_id", userID, "household_id", householdID)
				c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "household not accessible"})
				return
			}
			slog.Error("membership lookup failed", "error", err, "user_id", userID, "household_id", householdID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
			return
		}

		c.Set(ContextHouseholdID, householdID)
		c.Set(ContextHouseholdRole, role)
		c.Next()
	}
}

// HouseholdID returns the household set by RequireHousehold.
func HouseholdID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextHouseholdID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// HouseholdRole returns the caller's role set by RequireHousehold.
func HouseholdRole(c *gin.Context) string {
	return c.GetString(ContextHouseholdRole)
}
