package usecase

import "errors"

var (
	// ErrNotFound is returned for households that do not exist or are not
	// visible to the caller. The two cases are indistinguishable on purpose.
	ErrNotFound = errors.New("household not found")
	// ErrForbidden is returned when the caller's role is insufficient.
	ErrForbidden = errors.New("insufficient household role")
	// ErrAlreadyOwnsHousehold is returned by Bootstrap for a user who already created a household.
	ErrAlreadyOwnsHousehold = errors.New("user already owns a household")
	// ErrTransactionFailure is returned when the bootstrap transaction fails for any other reason.
	ErrTransactionFailure = errors.New("household transaction failed")
	// ErrPolicyViolation is returned when a write is rejected by an access policy.
	ErrPolicyViolation = errors.New("access policy violation")
	ErrInvalidName     = errors.New("household name must not be empty")
	ErrInvalidRole     = errors.New("invalid household role")
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyMember   = errors.New("user is already a member")
	ErrMemberNotFound  = errors.New("member not found")
	ErrLastOwner       = errors.New("household must keep an owner")
)
