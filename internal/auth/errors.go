package auth

import "errors"

var (
	ErrMissingFields        = errors.New("all fields are required")
	ErrPasswordMismatch     = errors.New("passwords do not match")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
)
