// Package apperrors holds the error taxonomy shared by the marketplace modules.
// Services wrap these sentinels so handlers can classify failures with errors.Is
// instead of matching on error strings.
package apperrors

import (
	"errors"

	"github.com/gaborage/go-bricks/server"
)

var (
	// ErrNotFound indicates a referenced product, seller or record is absent (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates an ownership or authority mismatch (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState indicates the operation is not allowed from the current state (HTTP 409).
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation indicates input validation failure (HTTP 400).
	ErrValidation = errors.New("validation error")
)

// ToAPIError maps a service error onto the go-bricks API error envelope.
// resource names the entity used in not-found messages.
func ToAPIError(err error, resource string) server.IAPIError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return server.NewNotFoundError(resource)
	case errors.Is(err, ErrForbidden):
		return server.NewForbiddenError(err.Error())
	case errors.Is(err, ErrInvalidState):
		return server.NewConflictError(err.Error())
	case errors.Is(err, ErrValidation):
		return server.NewBadRequestError(err.Error())
	default:
		return server.NewInternalServerError("Internal error")
	}
}
