package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Executor runs work inside a transaction bound to a caller identity.
// Policies and helper functions read the identity through app.current_user_id().
type Executor interface {
	RunAs(ctx context.Context, userID uuid.UUID, fn func(tx *gorm.DB) error) error
}

type rlsExecutor struct {
	db   *gorm.DB
	role string
}

// NewRLSExecutor switches each transaction to role and publishes the caller
// id as request.jwt.claim.sub. Both settings are transaction-local.
func NewRLSExecutor(db *gorm.DB, role string) Executor {
	return &rlsExecutor{db: db, role: role}
}

func (e *rlsExecutor) RunAs(ctx context.Context, userID uuid.UUID, fn func(tx *gorm.DB) error) error {
	if userID == uuid.Nil {
		return ErrNoIdentity
	}
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"SELECT set_config('role', ?, true), set_config('request.jwt.claim.sub', ?, true)",
			e.role, userID.String(),
		).Error; err != nil {
			return fmt.Errorf("bind request identity: %w", err)
		}
		return fn(tx)
	})
}

type plainExecutor struct {
	db *gorm.DB
}

// NewPlainExecutor runs fn in a transaction without binding an identity.
// Used with engines that have no row-level security, such as SQLite in tests.
func NewPlainExecutor(db *gorm.DB) Executor {
	return &plainExecutor{db: db}
}

func (e *plainExecutor) RunAs(ctx context.Context, userID uuid.UUID, fn func(tx *gorm.DB) error) error {
	if userID == uuid.Nil {
		return ErrNoIdentity
	}
	return e.db.WithContext(ctx).Transaction(fn)
}
