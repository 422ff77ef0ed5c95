package login

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingIdentity    = errors.New("email is required")
	ErrMissingSecret      = errors.New("password is required")
)
