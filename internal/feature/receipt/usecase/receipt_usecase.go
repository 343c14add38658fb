// Package usecase implements receipt upload and scanning.
package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	fooditem "freshreceipt_backend/internal/feature/fooditem/domain/entity"
	"freshreceipt_backend/internal/feature/receipt/domain/entity"
	"freshreceipt_backend/internal/shared/ratelimiter"
)

// DefaultMaxUploadBytes is used when no upload limit is configured.
const DefaultMaxUploadBytes = 10 * 1024 * 1024

// allowedImages maps accepted content types to the stored file extension.
var allowedImages = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ReceiptRepository runs every call under the identity of userID.
type ReceiptRepository interface {
	Create(ctx context.Context, userID uuid.UUID, r *entity.Receipt) error
	List(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Receipt, error)
	Get(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.Receipt, error)
	// StartScan moves a pending or failed receipt to processing. It returns
	// ErrScanInProgress when another scan got there first.
	StartScan(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.Receipt, error)
	FailScan(ctx context.Context, userID, householdID, id uuid.UUID, reason string) error
	// CompleteScan stores the result and inserts items in one transaction.
	CompleteScan(ctx context.Context, userID, householdID, id uuid.UUID, result *entity.ScanResult, items []fooditem.FoodItem) (*entity.Receipt, []fooditem.FoodItem, error)
}

// ImageStore keeps the uploaded images.
type ImageStore interface {
	Save(key string, r io.Reader) (int64, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
}

// Scanner extracts a ScanResult from image bytes.
type Scanner interface {
	Scan(ctx context.Context, image []byte) (*entity.ScanResult, error)
}

type receiptUsecase struct {
	repo           ReceiptRepository
	images         ImageStore
	scanner        Scanner
	limiter        ratelimiter.Limiter
	maxUploadBytes int64
	now            func() time.Time
}

// NewReceiptUsecase creates a receiptUsecase. limiter counts uploads per
// household; a nil limiter admits everything.
func NewReceiptUsecase(repo ReceiptRepository, images ImageStore, scanner Scanner, limiter ratelimiter.Limiter, maxUploadBytes int64) *receiptUsecase {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &receiptUsecase{
		repo:           repo,
		images:         images,
		scanner:        scanner,
		limiter:        limiter,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// MaxUploadBytes returns the largest accepted image.
func (u *receiptUsecase) MaxUploadBytes() int64 {
	return u.maxUploadBytes
}

// Upload validates the image, stores it and records a pending receipt.
// The content type is sniffed from the bytes; the client's claim is ignored.
func (u *receiptUsecase) Upload(ctx context.Context, userID, householdID uuid.UUID, file io.Reader) (*entity.Receipt, error) {
	data, err := io.ReadAll(io.LimitReader(file, u.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > u.maxUploadBytes {
		return nil, ErrFileTooLarge
	}
	ext, ok := allowedImages[mimetype.Detect(data).String()]
	if !ok {
		return nil, ErrUnsupportedImage
	}

	if err := u.allow(ctx, householdID); err != nil {
		return nil, err
	}

	now := u.now().UTC()
	id := uuid.New()
	key := fmt.Sprintf("receipts/%s/%s_%s.%s", householdID, now.Format("20060102T150405"), id, ext)
	if _, err := u.images.Save(key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("store receipt image: %w", err)
	}

	r := &entity.Receipt{
		ID:           id,
		HouseholdID:  householdID,
		UploadedBy:   userID,
		ImagePath:    key,
		PurchaseDate: now,
		ScanStatus:   entity.StatusPending,
	}
	if err := u.repo.Create(ctx, userID, r); err != nil {
		if derr := u.images.Delete(key); derr != nil {
			slog.Warn("failed to remove orphaned receipt image", "key", key, "error", derr)
		}
		return nil, err
	}
	return r, nil
}

// allow fails open when the limiter's backend is unavailable.
func (u *receiptUsecase) allow(ctx context.Context, householdID uuid.UUID) error {
	if u.limiter == nil {
		return nil
	}
	err := u.limiter.Allow(ctx, householdID.String())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimiter.ErrLimitExceeded):
		return ErrRateLimited
	default:
		slog.Warn("upload rate limiter unavailable", "household_id", householdID, "error", err)
		return nil
	}
}

func (u *receiptUsecase) List(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Receipt, error) {
	return u.repo.List(ctx, userID, householdID)
}

func (u *receiptUsecase) Get(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.Receipt, error) {
	return u.repo.Get(ctx, userID, householdID, id)
}

// Scan runs the scanner over the stored image and records the line items as
// food items of the household.
func (u *receiptUsecase) Scan(ctx context.Context, userID, householdID, id uuid.UUID) (*entity.Receipt, []fooditem.FoodItem, error) {
	current, err := u.repo.Get(ctx, userID, householdID, id)
	if err != nil {
		return nil, nil, err
	}
	switch current.ScanStatus {
	case entity.StatusCompleted:
		return nil, nil, ErrAlreadyScanned
	case entity.StatusProcessing:
		return nil, nil, ErrScanInProgress
	}

	r, err := u.repo.StartScan(ctx, userID, householdID, id)
	if err != nil {
		return nil, nil, err
	}

	result, err := u.runScanner(ctx, r.ImagePath)
	if err != nil {
		slog.Error("receipt scan failed", "receipt_id", id, "error", err)
		u.failScan(ctx, userID, householdID, id, err)
		return nil, nil, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}

	items := u.itemsFrom(userID, r, result)
	done, stored, err := u.repo.CompleteScan(ctx, userID, householdID, id, result, items)
	if err != nil {
		// ErrScanInProgress means the receipt is no longer ours to release.
		if !errors.Is(err, ErrScanInProgress) {
			slog.Error("failed to store scan result", "receipt_id", id, "error", err)
			u.failScan(ctx, userID, householdID, id, err)
		}
		return nil, nil, err
	}
	return done, stored, nil
}

// failScan releases a claimed receipt so it can be scanned again. It runs
// even when ctx is already cancelled.
func (u *receiptUsecase) failScan(ctx context.Context, userID, householdID, id uuid.UUID, cause error) {
	if err := u.repo.FailScan(context.WithoutCancel(ctx), userID, householdID, id, cause.Error()); err != nil {
		slog.Error("failed to record scan failure", "receipt_id", id, "error", err)
	}
}

func (u *receiptUsecase) runScanner(ctx context.Context, key string) (*entity.ScanResult, error) {
	rc, err := u.images.Open(key)
	if err != nil {
		return nil, fmt.Errorf("open receipt image: %w", err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.Warn("failed to close receipt image", "key", key, "error", err)
		}
	}()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read receipt image: %w", err)
	}
	result, err := u.scanner.Scan(ctx, data)
	if err != nil {
		return nil, err
	}
	if result.PurchaseDate.IsZero() {
		result.PurchaseDate = u.now().UTC()
	}
	return result, nil
}

func (u *receiptUsecase) itemsFrom(userID uuid.UUID, r *entity.Receipt, result *entity.ScanResult) []fooditem.FoodItem {
	items := make([]fooditem.FoodItem, 0, len(result.Items))
	for _, li := range result.Items {
		name := strings.TrimSpace(li.Name)
		if name == "" {
			continue
		}
		qty := li.Quantity
		if qty < 1 {
			qty = 1
		}
		item := fooditem.FoodItem{
			ID:           uuid.New(),
			HouseholdID:  r.HouseholdID,
			ReceiptID:    &r.ID,
			AddedBy:      userID,
			Name:         name,
			Category:     li.Category,
			Price:        li.Price.Round(2),
			Quantity:     qty,
			Unit:         li.Unit,
			PurchaseDate: result.PurchaseDate,
		}
		if li.ShelfLifeDays > 0 {
			exp := result.PurchaseDate.AddDate(0, 0, li.ShelfLifeDays)
			item.ExpiryDate = &exp
		}
		items = append(items, item)
	}
	return items
}
