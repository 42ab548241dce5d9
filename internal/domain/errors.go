package domain

import "errors"

// Domain errors
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserArchived         = errors.New("user account is archived")
	ErrInvalidActivity      = errors.New("activity identifier required")
	ErrUnranked             = errors.New("user is unranked")
	ErrUsernameTaken        = errors.New("username or email already registered")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInternalError        = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNotificationNotFound)
}
