package utils

import (
	"errors"
	"strings"

	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the struct's validate tags and reports the first
// failing field as a ValidationError.
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return error_handling.NewValidationError(lowerFirst(fe.Field()), "failed '"+fe.Tag()+"' check")
	}
	return error_handling.NewValidationError("", err.Error())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
