// Package errors holds the sentinel error taxonomy of the chat service
// and its mapping to transport-level codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Sender-visible routing failures.
	ErrUnknownRecipient = fmt.Errorf("unknown recipient")
	ErrInvalidGroup     = fmt.Errorf("invalid group")
	ErrPersistence      = fmt.Errorf("persistence failure")
	ErrForbidden        = fmt.Errorf("forbidden")

	// Protocol-level failure, never fatal to the connection.
	ErrMalformedFrame = fmt.Errorf("malformed frame")

	// ErrDeadSession marks a delivery that failed on the target's
	// transport. Never surfaced to the sender; the session is silently
	// unregistered instead.
	ErrDeadSession = fmt.Errorf("dead session")

	// Account and group management.
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrGroupNameTaken     = fmt.Errorf("group name already taken")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrNotFound           = fmt.Errorf("not found")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// MapToHTTPStatus converts the taxonomy at the REST edge. Anything not
// part of the taxonomy is an internal error by definition.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownRecipient),
		errors.Is(err, ErrInvalidGroup),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrGroupNameTaken):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrMalformedFrame),
		errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code is the stable machine-readable identifier sent in error frames
// over the WebSocket connection.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnknownRecipient):
		return "unknown_recipient"
	case errors.Is(err, ErrInvalidGroup):
		return "invalid_group"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrMalformedFrame):
		return "malformed_frame"
	default:
		return "internal"
	}
}
