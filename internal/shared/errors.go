package shared

import "errors"

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenUnknown occurs when a bearer token resolves to no session.
	ErrTokenUnknown = errors.New("unknown token")
)
