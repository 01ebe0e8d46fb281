package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid sql execution context")
)

// ValidationError is a caller mistake: ineligible promo code, non-positive
// final amount, unsupported mobile-money provider. Maps to 4xx at the API
// boundary and is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError in its chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GatewayError wraps a failure talking to the payment provider. Fallback
// marks the class of failures where the direct mobile-money push is blocked
// but a hosted checkout page can still complete the payment.
type GatewayError struct {
	Op       string
	Fallback bool
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gateway %s failed", e.Op)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsFallbackEligible reports whether err is a gateway failure that may be
// degraded to a hosted checkout redirect instead of surfacing to the caller.
func IsFallbackEligible(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Fallback
}
