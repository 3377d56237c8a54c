package reconciliation

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by ValidationError
var (
	ErrInvalidAmount    = errors.New("payment amount must be greater than zero")
	ErrUnknownMethod    = errors.New("unknown payment method")
	ErrNoChecks         = errors.New("check payment requires at least one check")
	ErrMissingImportKey = errors.New("row has neither transport document nor container number")
	ErrMissingCustomer  = errors.New("row has no customer name")
	ErrMixedCurrency    = errors.New("rows of one manifest line use different currencies")
	ErrFeesBelowPaid    = errors.New("fees cannot be lowered below the amount already paid")
	ErrNegativeFee      = errors.New("fee components cannot be negative")
	ErrCurrencyLocked   = errors.New("fee currency cannot change once payments exist")
)

// ValidationError reports a malformed request. Nothing has been written when it is returned.
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// OverpaymentError is returned when a payment exceeds the outstanding balance of a line
type OverpaymentError struct {
	Attempted float64
	Remaining float64
	Currency  string
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %.2f %s exceeds remaining balance of %.2f %s",
		e.Attempted, e.Currency, e.Remaining, e.Currency)
}

// IncompleteCheckError names the first check of a request missing a required field
type IncompleteCheckError struct {
	Index int
	Field string
}

func (e *IncompleteCheckError) Error() string {
	return fmt.Sprintf("check #%d is incomplete: %s is required", e.Index+1, e.Field)
}

// NotFoundError is returned when a payment id is not on the line
type NotFoundError struct {
	PaymentID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("payment %s not found on manifest line", e.PaymentID)
}

// IsBusinessError reports whether err is one of the validation failures of this package
func IsBusinessError(err error) bool {
	var ve *ValidationError
	var oe *OverpaymentError
	var ce *IncompleteCheckError
	var ne *NotFoundError
	return errors.As(err, &ve) || errors.As(err, &oe) || errors.As(err, &ce) || errors.As(err, &ne)
}
