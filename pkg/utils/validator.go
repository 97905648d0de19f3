package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/authgate/pkg/errors"
)

// Validator holds the singleton instance of the validator.
var defaultValidator *validator.Validate

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

func init() {
	defaultValidator = validator.New()
}

// ValidateStruct validates a struct using the default validator.
// Failures are returned as ErrInvalidRequest with one metadata entry per field.
func ValidateStruct(s interface{}) error {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrInvalidRequest.WithCause(err)
	}
	ae := errors.ErrInvalidRequest.WithMessage("validation failed")
	for _, fe := range validationErrors {
		ae = ae.WithMetadata(toSnakeCase(fe.Field()), formatValidationError(fe))
	}
	return ae
}

// formatValidationError creates a user-friendly error message for a validation error.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

// toSnakeCase converts a string from CamelCase to snake_case.
// This is used to format field names in the validation error response.
func toSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}
