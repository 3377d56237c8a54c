package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidState  = errors.New("invalid state transition")
	ErrDuplicate     = errors.New("duplicate record")
	ErrStaleManifest = errors.New("shipment manifest was changed by another request, reload and retry")
	ErrLineNotFound  = errors.New("manifest line not found")
)

// Validation causes raised by the service layer itself
var (
	ErrReferenceRequired = errors.New("shipment reference number is required")
	ErrCustomsOffice     = errors.New("customs office is not configured")
	ErrDuplicateLine     = errors.New("manifest already has a line for this transport document and container")
	ErrEmptyImport       = errors.New("import has no rows")
)

// PartialFailureError is returned when a payment transaction wrote some but
// not all of its stores. The intent can be retried or abandoned.
type PartialFailureError struct {
	IntentID string
	Step     string
	Err      error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("payment intent %s failed at %s: %v", e.IntentID, e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
