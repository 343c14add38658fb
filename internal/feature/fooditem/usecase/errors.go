package usecase

import "errors"

var (
	// ErrNotFound covers items that do not exist and items of other households.
	ErrNotFound        = errors.New("food item not found")
	ErrInvalidInput    = errors.New("invalid food item")
	ErrAlreadyConsumed = errors.New("food item already consumed")
)
