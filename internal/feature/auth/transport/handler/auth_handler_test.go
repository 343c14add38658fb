package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshreceipt_backend/internal/feature/auth/domain/entity"
	"freshreceipt_backend/internal/feature/auth/usecase"
	jwtmw "freshreceipt_backend/internal/platform/jwt"
)

type mockAuthUsecase struct {
	SignupFunc  func(ctx context.Context, email, password string) (*entity.User, error)
	LoginFunc   func(ctx context.Context, email, password string, meta usecase.SessionMeta) (*usecase.TokenPair, error)
	RefreshFunc func(ctx context.Context, token string, meta usecase.SessionMeta) (*usecase.TokenPair, error)
	LogoutFunc  func(ctx context.Context, token string) error
	MeFunc      func(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

func (m *mockAuthUsecase) Signup(ctx context.Context, email, password string) (*entity.User, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, email, password)
	}
	return &entity.User{ID: uuid.New(), Email: email}, nil
}

func (m *mockAuthUsecase) Login(ctx context.Context, email, password string, meta usecase.SessionMeta) (*usecase.TokenPair, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, meta)
	}
	return nil, usecase.ErrInvalidCredentials
}

func (m *mockAuthUsecase) Refresh(ctx context.Context, token string, meta usecase.SessionMeta) (*usecase.TokenPair, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, token, meta)
	}
	return nil, usecase.ErrInvalidRefreshToken
}

func (m *mockAuthUsecase) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

func (m *mockAuthUsecase) Me(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, id)
	}
	return nil, usecase.ErrUserNotFound
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, header http.Header) (*httptest.ResponseRecorder, gin.H) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out gin.H
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func newPair() *usecase.TokenPair {
	return &usecase.TokenPair{
		AccessToken:  "access",
		RefreshToken: strings.Repeat("ab", 32),
		ExpiresIn:    15 * time.Minute,
		User:         &entity.User{ID: uuid.New(), Email: "jane@example.com"},
	}
}

func TestAuthHandler_Signup(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    gin.H
		mockSignupFunc func(ctx context.Context, email, password string) (*entity.User, error)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "success: user registration",
			requestBody:    gin.H{"email": "test@example.com", "password": "password123"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "failure: invalid email address",
			requestBody:    gin.H{"email": "invalid-email", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request",
		},
		{
			name:           "failure: short password",
			requestBody:    gin.H{"email": "test@example.com", "password": "short"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request",
		},
		{
			name:        "failure: duplicate email",
			requestBody: gin.H{"email": "existing@example.com", "password": "password123"},
			mockSignupFunc: func(context.Context, string, string) (*entity.User, error) {
				return nil, usecase.ErrEmailAlreadyExists
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "signup failed",
		},
		{
			name:        "failure: storage error",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			mockSignupFunc: func(context.Context, string, string) (*entity.User, error) {
				return nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/signup", NewAuthHandler(&mockAuthUsecase{SignupFunc: tt.mockSignupFunc}).Signup)

			w, body := doJSON(t, router, http.MethodPost, "/signup", tt.requestBody, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			} else {
				assert.Equal(t, "test@example.com", body["email"])
				assert.NotEmpty(t, body["id"])
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    gin.H
		mockLoginFunc  func(ctx context.Context, email, password string, meta usecase.SessionMeta) (*usecase.TokenPair, error)
		expectedStatus int
		expectedError  string
	}{
		{
			name:        "success: user login",
			requestBody: gin.H{"email": "jane@example.com", "password": "password123"},
			mockLoginFunc: func(_ context.Context, _, _ string, meta usecase.SessionMeta) (*usecase.TokenPair, error) {
				assert.Equal(t, "freshreceipt-test", meta.UserAgent)
				return newPair(), nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "failure: missing password",
			requestBody:    gin.H{"email": "test@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request",
		},
		{
			name:           "failure: invalid credentials",
			requestBody:    gin.H{"email": "wrong@example.com", "password": "wrong-password"},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid email or password",
		},
		{
			name:        "failure: internal error is hidden",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			mockLoginFunc: func(context.Context, string, string, usecase.SessionMeta) (*usecase.TokenPair, error) {
				return nil, errors.New("redis down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal server error",
		},
		{
			name:        "failure: wrapped credential error",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			mockLoginFunc: func(context.Context, string, string, usecase.SessionMeta) (*usecase.TokenPair, error) {
				return nil, fmt.Errorf("login: %w", usecase.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid email or password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/login", NewAuthHandler(&mockAuthUsecase{LoginFunc: tt.mockLoginFunc}).Login)

			w, body := doJSON(t, router, http.MethodPost, "/login", tt.requestBody, http.Header{"User-Agent": {"freshreceipt-test"}})

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
				return
			}
			assert.Equal(t, "access", body["access_token"])
			assert.Equal(t, strings.Repeat("ab", 32), body["refresh_token"])
			assert.Equal(t, "bearer", body["token_type"])
			assert.EqualValues(t, 900, body["expires_in"])
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "success", expectedStatus: http.StatusOK},
		{name: "revoked", err: usecase.ErrSessionRevoked, expectedStatus: http.StatusUnauthorized},
		{name: "expired", err: usecase.ErrSessionExpired, expectedStatus: http.StatusUnauthorized},
		{name: "unknown", err: usecase.ErrInvalidRefreshToken, expectedStatus: http.StatusUnauthorized},
		{name: "backend failure", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockAuthUsecase{RefreshFunc: func(context.Context, string, usecase.SessionMeta) (*usecase.TokenPair, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return newPair(), nil
			}}
			router := gin.New()
			router.POST("/refresh", NewAuthHandler(uc).Refresh)

			w, _ := doJSON(t, router, http.MethodPost, "/refresh", gin.H{"refresh_token": "x"}, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var revoked string
	uc := &mockAuthUsecase{LogoutFunc: func(_ context.Context, token string) error {
		revoked = token
		return nil
	}}
	router := gin.New()
	router.POST("/logout", NewAuthHandler(uc).Logout)

	w, body := doJSON(t, router, http.MethodPost, "/logout", gin.H{"refresh_token": "abc"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "logged out", body["message"])
	assert.Equal(t, "abc", revoked)

	w, _ = doJSON(t, router, http.MethodPost, "/logout", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_MeAndVerify(t *testing.T) {
	gin.SetMode(gin.TestMode)

	const secret = "handler-secret"
	userID := uuid.New()
	token, err := jwtmw.NewGenerator(secret, "freshreceipt", time.Minute).GenerateToken(userID, "jane@example.com")
	require.NoError(t, err)

	uc := &mockAuthUsecase{MeFunc: func(_ context.Context, id uuid.UUID) (*entity.User, error) {
		if id != userID {
			return nil, usecase.ErrUserNotFound
		}
		return &entity.User{ID: id, Email: "jane@example.com"}, nil
	}}
	h := NewAuthHandler(uc)
	router := gin.New()
	authed := router.Group("/", jwtmw.AuthRequired(jwtmw.NewVerifier(secret, "freshreceipt")))
	authed.GET("/me", h.Me)
	authed.GET("/verify", h.Verify)

	bearer := http.Header{"Authorization": {"Bearer " + token}}

	w, body := doJSON(t, router, http.MethodGet, "/me", nil, bearer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), body["id"])

	w, body = doJSON(t, router, http.MethodGet, "/verify", nil, bearer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "jane@example.com", body["email"])

	w, _ = doJSON(t, router, http.MethodGet, "/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
