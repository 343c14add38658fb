package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/feature/household/usecase"
	jwtmw "freshreceipt_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type checkerFunc func(ctx context.Context, userID, householdID uuid.UUID) (string, error)

func (f checkerFunc) MemberRole(ctx context.Context, userID, householdID uuid.UUID) (string, error) {
	return f(ctx, userID, householdID)
}

func newRouter(userID uuid.UUID, checker MembershipChecker) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(jwtmw.ContextUserID, userID)
		}
	})
	r.GET("/scoped", RequireHousehold(checker), func(c *gin.Context) {
		id, _ := HouseholdID(c)
		c.JSON(http.StatusOK, gin.H{"household_id": id.String(), "role": HouseholdRole(c)})
	})
	return r
}

func TestRequireHousehold(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	member := uuid.New()
	checker := checkerFunc(func(ctx context.Context, uid, hid uuid.UUID) (string, error) {
		switch hid {
		case member:
			return "admin", nil
		case uuid.Nil:
			return "", errors.New("unexpected")
		default:
			return "", usecase.ErrNotFound
		}
	})

	tests := []struct {
		name       string
		userID     uuid.UUID
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "member", userID: userID, header: member.String(), wantStatus: http.StatusOK, wantBody: `"role":"admin"`},
		{name: "missing header", userID: userID, wantStatus: http.StatusBadRequest, wantBody: "required"},
		{name: "malformed header", userID: userID, header: "not-a-uuid", wantStatus: http.StatusBadRequest, wantBody: "invalid"},
		{name: "non member", userID: userID, header: uuid.NewString(), wantStatus: http.StatusForbidden, wantBody: "household not accessible"},
		{name: "lookup failure", userID: userID, header: uuid.Nil.String(), wantStatus: http.StatusInternalServerError},
		{name: "unauthenticated", header: member.String(), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newRouter(tt.userID, checker)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
			if tt.header != "" {
				req.Header.Set(api.HeaderHouseholdID, tt.header)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHouseholdID_Unset(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := HouseholdID(c)
	assert.False(t, ok)
	assert.Empty(t, HouseholdRole(c))
}
