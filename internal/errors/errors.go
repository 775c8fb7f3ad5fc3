// Package errors defines the domain error taxonomy shared by the
// ledger services and the HTTP layer.
package errors

// DomainError is a machine-readable error with a stable code that the
// HTTP layer maps to a status and returns to the client verbatim.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

var (
	ErrInvalidInput = &DomainError{
		Code:    "INVALID_INPUT",
		Message: "invalid input",
	}
	ErrNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "record not found",
	}
	ErrInvalidTransition = &DomainError{
		Code:    "INVALID_TRANSITION",
		Message: "invalid state transition",
	}
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient wallet balance",
	}
	ErrExceedsFeeDue = &DomainError{
		Code:    "EXCEEDS_FEE_DUE",
		Message: "amount exceeds outstanding fee",
	}
	// ErrDuplicateEvent marks an idempotent replay. Callers treat it as
	// success-already-applied, never as a failure to retry.
	ErrDuplicateEvent = &DomainError{
		Code:    "DUPLICATE_EVENT",
		Message: "event already recorded",
	}
	ErrStorageUnavailable = &DomainError{
		Code:    "STORAGE_UNAVAILABLE",
		Message: "storage unavailable",
	}
)
