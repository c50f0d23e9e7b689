package utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the JSON error shape every service returns and every client decodes.
type ErrorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func RespondError(c *fiber.Ctx, status int, code string, err error) error {
	return c.Status(status).JSON(ErrorBody{
		Error: err.Error(),
		Code:  code,
	})
}

// ParseAndValidate decodes the request body into dst and runs struct validation.
// On failure it writes a 400 response and returns ok=false.
func ParseAndValidate(c *fiber.Ctx, v *validator.Validate, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(ErrorBody{
			Error: "error parsing body",
			Code:  "BAD_REQUEST",
		})
	}

	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return false, c.Status(fiber.StatusBadRequest).JSON(ErrorBody{
				Error:  "validation failed",
				Code:   "VALIDATION_FAILED",
				Fields: FormatValidationError(err),
			})
		}

		return false, c.Status(fiber.StatusBadRequest).JSON(ErrorBody{Error: err.Error(), Code: "BAD_REQUEST"})
	}

	return true, nil
}
