package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

// Validator wraps go-playground struct validation with json field naming.
type Validator struct {
	v *validator.Validate
}

// New builds a validator instance.
func New() *Validator {
	v := validator.New()

	// report field names as they appear on the wire
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{v: v}
}

// Struct validates s and returns a field-to-message map, or nil when valid.
func (va *Validator) Struct(s any) map[string]string {
	err := va.v.Struct(s)
	if err == nil {
		return nil
	}

	valErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	errMap := make(map[string]string, len(valErrs))
	for _, e := range valErrs {
		errMap[e.Field()] = validationMessage(e)
	}
	return errMap
}

// Check validates s and wraps failures in the service error taxonomy.
func (va *Validator) Check(s any) error {
	errs := va.Struct(s)
	if errs == nil {
		return nil
	}
	details := make(map[string]any, len(errs))
	for field, msg := range errs {
		details[field] = msg
	}
	return apperrors.NewValidationError("validation failed", details)
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid uuid", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
