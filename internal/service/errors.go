package service

import (
	"errors"
	"fmt"

	"fleamarket/internal/repository"
	"fleamarket/internal/validation"
)

var (
	// ErrForbidden is returned when the principal does not own the resource
	ErrForbidden = errors.New("you are not allowed to modify this resource")

	// ErrOperationFailed marks store or blob failures in the middle of a
	// mutation. Callers get a generic message; details are logged.
	ErrOperationFailed = errors.New("operation failed")

	ErrFavoriteAttachFailed = fmt.Errorf("%w: could not add the item to favorites", ErrOperationFailed)
	ErrFavoriteDetachFailed = fmt.Errorf("%w: could not remove the item from favorites", ErrOperationFailed)

	ErrInvalidStatusTransition = errors.New("purchase status cannot change that way")
)

// passThrough reports whether err should reach the caller unchanged rather
// than being collapsed into ErrOperationFailed
func passThrough(err error) bool {
	if _, ok := validation.As(err); ok {
		return true
	}
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, repository.ErrItemNotFound) ||
		errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, repository.ErrPurchaseNotFound)
}
