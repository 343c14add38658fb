// Package api is a typed client for the FreshReceipt HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	wire "freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/client"
)

const prefix = "/api/v1"

// Client calls the API at BaseURL. Credentials and household scope are the
// business of the http.Client's transport.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client. httpClient must not be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + prefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		apiErr := &client.APIError{Method: req.Method, Path: req.URL.Path, StatusCode: res.StatusCode}
		var e wire.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(res.Body, 64*1024)).Decode(&e); err == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) Signup(ctx context.Context, email, password string) (*wire.UserResponse, error) {
	var out wire.UserResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, wire.SignupRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*wire.TokenResponse, error) {
	var out wire.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, wire.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*wire.TokenResponse, error) {
	var out wire.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, wire.RefreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, wire.LogoutRequest{RefreshToken: refreshToken}, nil)
}

func (c *Client) Me(ctx context.Context) (*wire.UserResponse, error) {
	var out wire.UserResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListHouseholds(ctx context.Context) ([]wire.HouseholdResponse, error) {
	var out []wire.HouseholdResponse
	if err := c.do(ctx, http.MethodGet, "/households", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateHousehold(ctx context.Context, name string) (*wire.HouseholdResponse, error) {
	var out wire.HouseholdResponse
	if err := c.do(ctx, http.MethodPost, "/households", nil, wire.HouseholdCreateRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BootstrapHousehold creates the caller's first household. An empty name
// lets the server pick the default.
func (c *Client) BootstrapHousehold(ctx context.Context, name string) (*wire.HouseholdResponse, error) {
	var out wire.HouseholdResponse
	if err := c.do(ctx, http.MethodPost, "/households/bootstrap", nil, wire.HouseholdBootstrapRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetHousehold(ctx context.Context, id uuid.UUID) (*wire.HouseholdResponse, error) {
	var out wire.HouseholdResponse
	if err := c.do(ctx, http.MethodGet, "/households/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameHousehold(ctx context.Context, id uuid.UUID, name string) (*wire.HouseholdResponse, error) {
	var out wire.HouseholdResponse
	if err := c.do(ctx, http.MethodPatch, "/households/"+id.String(), nil, wire.HouseholdUpdateRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteHousehold(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/households/"+id.String(), nil, nil, nil)
}

func (c *Client) ListMembers(ctx context.Context, householdID uuid.UUID) ([]wire.MemberResponse, error) {
	var out []wire.MemberResponse
	if err := c.do(ctx, http.MethodGet, "/households/"+householdID.String()+"/members", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) InviteMember(ctx context.Context, householdID uuid.UUID, email, role string) (*wire.MemberResponse, error) {
	var out wire.MemberResponse
	in := wire.InviteMemberRequest{Email: email, Role: role}
	if err := c.do(ctx, http.MethodPost, "/households/"+householdID.String()+"/members", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveMember(ctx context.Context, householdID, userID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/households/"+householdID.String()+"/members/"+userID.String(), nil, nil, nil)
}

// FoodItemFilter narrows ListFoodItems. A negative ExpiringWithinDays
// disables the expiry filter.
type FoodItemFilter struct {
	IncludeConsumed    bool
	ExpiringWithinDays int
}

// ListFoodItems lists the items of the selected household.
func (c *Client) ListFoodItems(ctx context.Context, filter FoodItemFilter) ([]wire.FoodItemResponse, error) {
	q := url.Values{}
	if filter.IncludeConsumed {
		q.Set("include_consumed", "true")
	}
	if filter.ExpiringWithinDays >= 0 {
		q.Set("expiring_within", strconv.Itoa(filter.ExpiringWithinDays))
	}
	var out []wire.FoodItemResponse
	if err := c.do(ctx, http.MethodGet, "/food-items", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateFoodItem(ctx context.Context, in wire.FoodItemCreateRequest) (*wire.FoodItemResponse, error) {
	var out wire.FoodItemResponse
	if err := c.do(ctx, http.MethodPost, "/food-items", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFoodItem(ctx context.Context, id uuid.UUID) (*wire.FoodItemResponse, error) {
	var out wire.FoodItemResponse
	if err := c.do(ctx, http.MethodGet, "/food-items/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateFoodItem(ctx context.Context, id uuid.UUID, in wire.FoodItemUpdateRequest) (*wire.FoodItemResponse, error) {
	var out wire.FoodItemResponse
	if err := c.do(ctx, http.MethodPatch, "/food-items/"+id.String(), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteFoodItem(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/food-items/"+id.String(), nil, nil, nil)
}

func (c *Client) ConsumeFoodItem(ctx context.Context, id uuid.UUID) (*wire.FoodItemResponse, error) {
	var out wire.FoodItemResponse
	if err := c.do(ctx, http.MethodPost, "/food-items/"+id.String()+"/consume", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListReceipts(ctx context.Context) ([]wire.ReceiptResponse, error) {
	var out []wire.ReceiptResponse
	if err := c.do(ctx, http.MethodGet, "/receipts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetReceipt(ctx context.Context, id uuid.UUID) (*wire.ReceiptResponse, error) {
	var out wire.ReceiptResponse
	if err := c.do(ctx, http.MethodGet, "/receipts/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadReceipt sends image as the multipart field "file".
func (c *Client) UploadReceipt(ctx context.Context, filename string, image io.Reader) (*wire.ReceiptResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/receipts/upload", nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out wire.ReceiptResponse
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ScanReceipt(ctx context.Context, id uuid.UUID) (*wire.ReceiptScanResponse, error) {
	var out wire.ReceiptScanResponse
	if err := c.do(ctx, http.MethodPost, "/receipts/"+id.String()+"/scan", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
