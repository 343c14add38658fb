package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrInvalid         = errors.New("invalid record")
	ErrPolicyViolation = errors.New("access denied by policy")
	ErrNoIdentity      = errors.New("no request identity")
)

// SQLSTATE codes raised by the schema and its functions.
const (
	codeUniqueViolation       = "23505"
	codeForeignKeyViolation   = "23503"
	codeCheckViolation        = "23514"
	codeNotNullViolation      = "23502"
	codeInvalidParameter      = "22023"
	codeInvalidTextRepr       = "22P02"
	codeInsufficientPrivilege = "42501"
	codeNoDataFound           = "P0002"
)

// MapError classifies driver errors into the package sentinels. The original
// error stays in the chain. Unknown errors are returned unchanged. Errors already
// translated by gorm (TranslateError) are recognized too.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case codeForeignKeyViolation, codeNoDataFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case codeCheckViolation, codeNotNullViolation, codeInvalidParameter, codeInvalidTextRepr:
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	case codeInsufficientPrivilege:
		return fmt.Errorf("%w: %w", ErrPolicyViolation, err)
	}
	return err
}
