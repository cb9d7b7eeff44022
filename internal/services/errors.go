// Package services defines the business logic for identities, the movie
// catalog, and the rental ledger. This file centralizes service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import "errors"

// Authentication and authorization.
var (
	// ErrUnauthenticated covers a missing, malformed, or expired token, and a
	// token whose subject no longer resolves to an identity.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrForbidden is returned when the caller lacks the administrator role.
	ErrForbidden = errors.New("administrator role required")

	// ErrInvalidCredentials is the single login failure. Unknown email and
	// wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Conflicts: uniqueness and deletion guards.
var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrMovieRented    = errors.New("movie has open rentals")
	ErrUserHasRentals = errors.New("user has unreturned movies")

	// ErrCopiesInUse is returned when lowering total_copies would leave fewer
	// copies than are currently rented out.
	ErrCopiesInUse = errors.New("total copies below copies currently rented")
)

// Not found.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrMovieNotFound = errors.New("movie not found")
)

// Rental ledger.
var (
	// ErrLimitExceeded is returned when the target already holds the maximum
	// number of open rentals.
	ErrLimitExceeded = errors.New("rental limit reached")

	// ErrOutOfStock is returned when no copy of the movie is available.
	ErrOutOfStock = errors.New("no copies available")

	// ErrInvalidRentalState is returned when returning a rental that is
	// missing or already closed.
	ErrInvalidRentalState = errors.New("rental is not active")
)

// Validation.
var (
	// ErrInvalidInput is wrapped with a field-specific message.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRole is returned for a role other than customer or administrator.
	ErrInvalidRole = errors.New("role must be customer or administrator")
)

// IsConflict reports whether err is one of the conflict errors.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrMovieRented) ||
		errors.Is(err, ErrUserHasRentals) ||
		errors.Is(err, ErrCopiesInUse)
}

// IsNotFound reports whether err is one of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrMovieNotFound)
}
