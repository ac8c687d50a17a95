package users

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the email is already registered
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrValidation wraps input shape errors such as a missing email
	ErrValidation = errors.New("validation failed")
)
