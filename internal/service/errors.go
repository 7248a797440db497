package service

import "errors"

// Error kinds surfaced to the transport layer.  Every error returned by a
// service method either wraps one of these or is an internal failure.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
)
