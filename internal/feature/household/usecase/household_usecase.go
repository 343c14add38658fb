// Package usecase implements household management on top of the
// row-level-security protected repository.
package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"freshreceipt_backend/internal/feature/household/domain/entity"
)

// MaxNameLength bounds household names, matching the column width.
const MaxNameLength = 255

// HouseholdRepository runs every call under the identity of userID, so its
// results are limited to what the access policies let that user see.
type HouseholdRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]entity.Household, error)
	Create(ctx context.Context, userID uuid.UUID, name string) (*entity.Household, error)
	Bootstrap(ctx context.Context, userID uuid.UUID, email, name string) (*entity.Household, error)
	Get(ctx context.Context, userID, householdID uuid.UUID) (*entity.Household, error)
	Rename(ctx context.Context, userID, householdID uuid.UUID, name string) (*entity.Household, error)
	Delete(ctx context.Context, userID, householdID uuid.UUID) error
	ListMembers(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Member, error)
	AddMember(ctx context.Context, userID, householdID uuid.UUID, email, role string) (*entity.Member, error)
	RemoveMember(ctx context.Context, userID, householdID, memberUserID uuid.UUID) error
	// MemberRole returns ErrNotFound when userID is not a member.
	MemberRole(ctx context.Context, userID, householdID uuid.UUID) (string, error)
}

type householdUsecase struct {
	repo HouseholdRepository
}

// NewHouseholdUsecase creates a householdUsecase.
func NewHouseholdUsecase(repo HouseholdRepository) *householdUsecase {
	return &householdUsecase{repo: repo}
}

// List returns the caller's households with the caller's role in each.
func (u *householdUsecase) List(ctx context.Context, userID uuid.UUID) ([]entity.Household, error) {
	return u.repo.List(ctx, userID)
}

// Create makes a household with the caller as its owner.
func (u *householdUsecase) Create(ctx context.Context, userID uuid.UUID, name string) (*entity.Household, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	return u.repo.Create(ctx, userID, name)
}

// Bootstrap creates the first household of a new user. An empty name selects
// the default "<email>'s Household".
func (u *householdUsecase) Bootstrap(ctx context.Context, userID uuid.UUID, email, name string) (*entity.Household, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrInvalidName
	}
	return u.repo.Bootstrap(ctx, userID, email, name)
}

func (u *householdUsecase) Get(ctx context.Context, userID, householdID uuid.UUID) (*entity.Household, error) {
	return u.repo.Get(ctx, userID, householdID)
}

func (u *householdUsecase) Rename(ctx context.Context, userID, householdID uuid.UUID, name string) (*entity.Household, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	return u.repo.Rename(ctx, userID, householdID, name)
}

func (u *householdUsecase) Delete(ctx context.Context, userID, householdID uuid.UUID) error {
	return u.repo.Delete(ctx, userID, householdID)
}

func (u *householdUsecase) Members(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Member, error) {
	return u.repo.ListMembers(ctx, userID, householdID)
}

// Invite adds a registered user by e-mail. The role defaults to member;
// owners cannot be invited.
func (u *householdUsecase) Invite(ctx context.Context, userID, householdID uuid.UUID, email, role string) (*entity.Member, error) {
	if role == "" {
		role = entity.RoleMember
	}
	if role != entity.RoleAdmin && role != entity.RoleMember {
		return nil, ErrInvalidRole
	}
	email = strings.ToLower(strings.TrimSpace(email))
	return u.repo.AddMember(ctx, userID, householdID, email, role)
}

// RemoveMember removes memberUserID. Passing the caller's own id leaves the household.
func (u *householdUsecase) RemoveMember(ctx context.Context, userID, householdID, memberUserID uuid.UUID) error {
	return u.repo.RemoveMember(ctx, userID, householdID, memberUserID)
}

// MemberRole reports the caller's role, or ErrNotFound for non-members.
func (u *householdUsecase) MemberRole(ctx context.Context, userID, householdID uuid.UUID) (string, error) {
	return u.repo.MemberRole(ctx, userID, householdID)
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
