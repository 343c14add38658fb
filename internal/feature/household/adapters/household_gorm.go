// Package adapters implements the household repository on PostgreSQL.
// Every query runs through db.Executor so row-level security applies.
package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"freshreceipt_backend/internal/feature/household/domain/entity"
	"freshreceipt_backend/internal/feature/household/usecase"
	"freshreceipt_backend/internal/platform/db"
)

const householdColumns = "h.id, h.name, h.created_by, h.created_at, h.updated_at"

type householdRow struct {
	ID        uuid.UUID
	Name      string
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Role      string
}

func (r householdRow) toEntity() entity.Household {
	return entity.Household{
		ID:        r.ID,
		Name:      r.Name,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Role:      r.Role,
	}
}

type memberRow struct {
	ID          uuid.UUID
	HouseholdID uuid.UUID
	UserID      uuid.UUID
	Email       string
	Role        string
	JoinedAt    time.Time
}

func (r memberRow) toEntity() entity.Member {
	return entity.Member(r)
}

type householdGorm struct {
	exec db.Executor
}

var _ usecase.HouseholdRepository = (*householdGorm)(nil)

// NewHouseholdGorm creates a household repository on top of exec.
func NewHouseholdGorm(exec db.Executor) *householdGorm {
	return &householdGorm{exec: exec}
}

// List returns the households the caller belongs to.
func (r *householdGorm) List(ctx context.Context, userID uuid.UUID) ([]entity.Household, error) {
	var rows []householdRow
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		return tx.Raw(`SELECT `+householdColumns+`, m.role
			FROM households h
			JOIN household_members m ON m.household_id = h.id AND m.user_id = app.current_user_id()
			ORDER BY h.created_at, h.id`).Scan(&rows).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]entity.Household, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// Create inserts a household and the caller's owner membership through the
// regular policies. The id is generated here because the row is not visible
// to the caller until the membership exists.
func (r *householdGorm) Create(ctx context.Context, userID uuid.UUID, name string) (*entity.Household, error) {
	id := uuid.New()
	var out *entity.Household
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		if err := tx.Exec(
			"INSERT INTO households (id, name, created_by) VALUES (?, ?, ?)",
			id, name, userID,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)",
			id, userID, entity.RoleOwner,
		).Error; err != nil {
			return err
		}
		h, err := getHousehold(tx, id)
		out = h
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// Bootstrap calls create_household_with_member for the caller.
func (r *householdGorm) Bootstrap(ctx context.Context, userID uuid.UUID, email, name string) (*entity.Household, error) {
	payload := map[string]string{"user_id": userID.String(), "email": email}
	if name != "" {
		payload["name"] = name
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecase.ErrTransactionFailure, err)
	}

	var row householdRow
	err = r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		return tx.Raw(
			"SELECT id, name, created_by, created_at, updated_at FROM create_household_with_member(CAST(? AS jsonb))",
			string(raw),
		).Scan(&row).Error
	})
	if err != nil {
		if errors.Is(db.MapError(err), db.ErrDuplicate) {
			return nil, usecase.ErrAlreadyOwnsHousehold
		}
		return nil, fmt.Errorf("%w: %w", usecase.ErrTransactionFailure, db.MapError(err))
	}
	if row.ID == uuid.Nil {
		return nil, usecase.ErrTransactionFailure
	}
	row.Role = entity.RoleOwner
	h := row.toEntity()
	return &h, nil
}

// Get returns usecase.ErrNotFound for households the caller cannot see.
func (r *householdGorm) Get(ctx context.Context, userID, householdID uuid.UUID) (*entity.Household, error) {
	var out *entity.Household
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		h, err := getHousehold(tx, householdID)
		out = h
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// Rename requires the owner or admin role.
func (r *householdGorm) Rename(ctx context.Context, userID, householdID uuid.UUID, name string) (*entity.Household, error) {
	var out *entity.Household
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		role, err := callerRole(tx, householdID)
		if err != nil {
			return err
		}
		if !entity.CanManage(role) {
			return usecase.ErrForbidden
		}
		res := tx.Exec("UPDATE households SET name = ? WHERE id = ?", name, householdID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrPolicyViolation
		}
		h, err := getHousehold(tx, householdID)
		out = h
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// Delete requires the owner role. Members, food items and receipts cascade.
func (r *householdGorm) Delete(ctx context.Context, userID, householdID uuid.UUID) error {
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		role, err := callerRole(tx, householdID)
		if err != nil {
			return err
		}
		if role != entity.RoleOwner {
			return usecase.ErrForbidden
		}
		res := tx.Exec("DELETE FROM households WHERE id = ?", householdID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrPolicyViolation
		}
		return nil
	})
	return mapError(err)
}

// ListMembers returns every member of a household the caller belongs to.
func (r *householdGorm) ListMembers(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Member, error) {
	var rows []memberRow
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		return tx.Raw(
			"SELECT id, household_id, user_id, email, role, joined_at FROM app.list_household_members(?)",
			householdID,
		).Scan(&rows).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	// A member always sees at least their own row.
	if len(rows) == 0 {
		return nil, usecase.ErrNotFound
	}
	out := make([]entity.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// AddMember adds the registered user with the given e-mail.
func (r *householdGorm) AddMember(ctx context.Context, userID, householdID uuid.UUID, email, role string) (*entity.Member, error) {
	var row memberRow
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		callerRole, err := callerRole(tx, householdID)
		if err != nil {
			return err
		}
		if !entity.CanManage(callerRole) {
			return usecase.ErrForbidden
		}
		err = tx.Raw(
			"SELECT id, household_id, user_id, role, joined_at FROM app.add_household_member(?, ?, ?)",
			householdID, email, role,
		).Scan(&row).Error
		switch mapped := db.MapError(err); {
		case mapped == nil:
			return nil
		case errors.Is(mapped, db.ErrNotFound):
			return usecase.ErrUserNotFound
		case errors.Is(mapped, db.ErrDuplicate):
			return usecase.ErrAlreadyMember
		case errors.Is(mapped, db.ErrInvalid):
			return usecase.ErrInvalidRole
		case errors.Is(mapped, db.ErrPolicyViolation):
			return usecase.ErrForbidden
		default:
			return err
		}
	})
	if err != nil {
		return nil, mapError(err)
	}
	row.Email = email
	m := row.toEntity()
	return &m, nil
}

// RemoveMember removes a member, or lets the caller leave.
func (r *householdGorm) RemoveMember(ctx context.Context, userID, householdID, memberUserID uuid.UUID) error {
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		if _, err := callerRole(tx, householdID); err != nil {
			return err
		}
		err := tx.Exec("SELECT app.remove_household_member(?, ?)", householdID, memberUserID).Error
		switch mapped := db.MapError(err); {
		case mapped == nil:
			return nil
		case errors.Is(mapped, db.ErrNotFound):
			return usecase.ErrMemberNotFound
		case errors.Is(mapped, db.ErrInvalid):
			return usecase.ErrLastOwner
		case errors.Is(mapped, db.ErrPolicyViolation):
			return usecase.ErrForbidden
		default:
			return err
		}
	})
	return mapError(err)
}

// MemberRole reads the caller's role through app.household_role.
func (r *householdGorm) MemberRole(ctx context.Context, userID, householdID uuid.UUID) (string, error) {
	var role string
	err := r.exec.RunAs(ctx, userID, func(tx *gorm.DB) error {
		var err error
		role, err = callerRole(tx, householdID)
		return err
	})
	if err != nil {
		return "", mapError(err)
	}
	return role, nil
}

func getHousehold(tx *gorm.DB, householdID uuid.UUID) (*entity.Household, error) {
	var rows []householdRow
	if err := tx.Raw(`SELECT `+householdColumns+`, coalesce(app.household_role(h.id), '') AS role
		FROM households h WHERE h.id = ?`, householdID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, usecase.ErrNotFound
	}
	h := rows[0].toEntity()
	return &h, nil
}

// callerRole returns usecase.ErrNotFound when the caller is not a member.
func callerRole(tx *gorm.DB, householdID uuid.UUID) (string, error) {
	var role string
	if err := tx.Raw("SELECT coalesce(app.household_role(?), '')", householdID).Scan(&role).Error; err != nil {
		return "", err
	}
	if role == "" {
		return "", usecase.ErrNotFound
	}
	return role, nil
}

// mapError keeps usecase errors and translates database errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		usecase.ErrNotFound, usecase.ErrForbidden, usecase.ErrPolicyViolation,
		usecase.ErrUserNotFound, usecase.ErrAlreadyMember, usecase.ErrMemberNotFound,
		usecase.ErrLastOwner, usecase.ErrInvalidRole,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	switch mapped := db.MapError(err); {
	case errors.Is(mapped, db.ErrPolicyViolation):
		return fmt.Errorf("%w: %w", usecase.ErrPolicyViolation, err)
	case errors.Is(mapped, db.ErrNotFound):
		return usecase.ErrNotFound
	case errors.Is(mapped, db.ErrInvalid):
		return fmt.Errorf("%w: %w", usecase.ErrInvalidName, err)
	default:
		return err
	}
}
