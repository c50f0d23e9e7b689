package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

func FormatValidationError(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["body"] = err.Error()
		return errs
	}

	for _, err := range validationErrors {
		field := strings.ToLower(err.Field())

		switch err.Tag() {
		case "required":
			errs[field] = fmt.Sprintf("%s is required", field)
		case "required_without":
			errs[field] = fmt.Sprintf("%s is required when %s is empty", field, strings.ToLower(err.Param()))
		case "min":
			errs[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			errs[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "gt":
			errs[field] = fmt.Sprintf("%s must be greater than %s", field, err.Param())
		case "gte":
			errs[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
		case "oneof":
			errs[field] = fmt.Sprintf("%s must be one of [%s]", field, err.Param())
		case "email":
			errs[field] = fmt.Sprintf("%s must be a valid email", field)
		case "len":
			errs[field] = fmt.Sprintf("%s must be %s characters long", field, err.Param())
		default:
			errs[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return errs
}
