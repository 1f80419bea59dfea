package apperr

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks v's struct tags and reports any failure as a validation
// error carrying message.
func Validate(v any, message string) error {
	if err := validate.Struct(v); err != nil {
		return Validation(message)
	}
	return nil
}
