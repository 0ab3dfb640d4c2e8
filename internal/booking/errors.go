package booking

import (
	"errors"
	"fmt"
)

// Error taxonomy for reservation operations. Handlers map these onto HTTP
// status codes; everything not wrapped in one of them is treated as an
// internal persistence failure.
var (
	// ErrInvalidArgument covers missing fields, malformed status values
	// and empty item lists.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound covers unknown reservation or equipment ids.
	ErrNotFound = errors.New("not found")
	// ErrConflict covers insufficient stock, unavailable equipment and
	// transitions on a reservation that is no longer pending.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable covers connection-pool exhaustion; callers may retry.
	ErrUnavailable = errors.New("unavailable")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidArgument)...)
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}
