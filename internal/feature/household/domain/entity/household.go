// Package entity defines the household domain types.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Household roles, from most to least privileged.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Household is a group of users sharing one inventory.
// Role is the caller's role and is only set on reads made for a user.
type Household struct {
	ID        uuid.UUID
	Name      string
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Role      string
}

// Member is one user's membership in a household.
type Member struct {
	ID          uuid.UUID
	HouseholdID uuid.UUID
	UserID      uuid.UUID
	Email       string
	Role        string
	JoinedAt    time.Time
}

// CanManage reports whether role may rename the household and manage members.
func CanManage(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}
