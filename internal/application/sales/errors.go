package sales

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CompensationFailureError means undoing a failed ledger operation itself
// failed. Stock and allocation rows for the item may be inconsistent and
// need manual repair. Unwrap yields Err only, never Cause, so a wrapped
// domain error is not reported as a business rejection.
type CompensationFailureError struct {
	SaleItemID uuid.UUID
	Cause      error // the failure that triggered compensation
	Err        error // the failure of the compensation itself
}

func (e *CompensationFailureError) Error() string {
	return fmt.Sprintf("compensation failed for sale item %s (after: %v): %v", e.SaleItemID, e.Cause, e.Err)
}

// Unwrap returns the compensation failure
func (e *CompensationFailureError) Unwrap() error {
	return e.Err
}

// IsCompensationFailure reports whether err is or wraps a CompensationFailureError
func IsCompensationFailure(err error) bool {
	var cf *CompensationFailureError
	return errors.As(err, &cf)
}

// toValidationError turns validator output into a VALIDATION_ERROR domain error
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.ErrValidation.WithCause(err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
	}
	return shared.NewDomainError(shared.ErrValidation.Code, "Validation failed: "+strings.Join(parts, ", "))
}
