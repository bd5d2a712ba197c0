package service

import (
	"errors"
)

// Handlers map these to HTTP statuses. Callers wrap them with context using
// fmt.Errorf("%w: ...").
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
)
