package address

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/go-playground/validator/v10"
)

// RequiredMessage is reported for every missing field.
const RequiredMessage = "Please fill in all address fields"

// BasicValidator performs field validation without external API calls,
// driven by the struct tags on domain.Address.
type BasicValidator struct {
	validate *validator.Validate
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names, matching what the UI submits.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &BasicValidator{validate: v}
}

// Validate trims every field and checks that none is empty.
func (v *BasicValidator) Validate(ctx context.Context, addr domain.Address) (*ValidationResult, error) {
	normalized := addr.Normalize()
	result := &ValidationResult{NormalizedAddress: &normalized}

	err := v.validate.StructCtx(ctx, normalized)
	if err == nil {
		result.IsValid = true
		return result, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	for _, fe := range verrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Message: RequiredMessage,
		})
	}
	return result, nil
}
