// Package handlers defines the HTTP-layer error codes and the translation of
// service errors into them.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// rental-specific codes (limit_exceeded, out_of_stock, invalid_state) let
// clients tell apart the 409s that share a status.
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-video-rental/internal/services"
)

const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeUnauthenticated    = "unauthenticated"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeConflict           = "conflict"
	ErrCodeRateLimited        = "too_many_requests"
	ErrCodeInternal           = "internal_error"
	ErrCodeMethodNotAllowed   = "method_not_allowed"

	// Rental ledger:
	ErrCodeLimitExceeded = "limit_exceeded"
	ErrCodeOutOfStock    = "out_of_stock"
	ErrCodeInvalidState  = "invalid_state"
)

const internalMessage = "internal server error"

// mapError returns the status, code, and client-safe message for err.
// Service sentinel messages are safe to show; anything else is replaced by a
// generic message.
func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrCodeUnauthenticated, "could not validate credentials"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeInvalidCredentials, err.Error()
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, err.Error()
	case services.IsConflict(err):
		return http.StatusConflict, ErrCodeConflict, err.Error()
	case services.IsNotFound(err):
		return http.StatusNotFound, ErrCodeNotFound, err.Error()
	case errors.Is(err, services.ErrLimitExceeded):
		return http.StatusConflict, ErrCodeLimitExceeded, err.Error()
	case errors.Is(err, services.ErrOutOfStock):
		return http.StatusConflict, ErrCodeOutOfStock, err.Error()
	case errors.Is(err, services.ErrInvalidRentalState):
		return http.StatusConflict, ErrCodeInvalidState, err.Error()
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidRole):
		return http.StatusBadRequest, ErrCodeBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, ErrCodeInternal, internalMessage
	}
}
