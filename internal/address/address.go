// Package address validates delivery addresses before they are saved.
package address

import (
	"context"

	"github.com/dukerupert/folio/internal/domain"
)

// Validator defines the interface for address validation.
// Implementations could call an external verification API; BasicValidator
// checks required fields only.
type Validator interface {
	// Validate checks that an address is complete.
	// Returns the normalized address when validation succeeds.
	// Even if IsValid is false, NormalizedAddress holds the trimmed input.
	Validate(ctx context.Context, addr domain.Address) (*ValidationResult, error)
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool
	NormalizedAddress *domain.Address
	Errors            []ValidationError
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Fields returns the errors keyed by field, the shape of
// domain.ValidationError.
func (r *ValidationResult) Fields() map[string]string {
	fields := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		fields[e.Field] = e.Message
	}
	return fields
}
