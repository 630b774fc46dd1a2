package utils

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// RequestValidator wraps a validator instance so handlers can call a single
// Validate method on bound request structs.
type RequestValidator struct {
	validate *validator.Validate
}

var (
	validatorOnce     sync.Once
	validatorInstance *RequestValidator
)

// GetValidator returns the shared request validator.
func GetValidator() *RequestValidator {
	validatorOnce.Do(func() {
		validatorInstance = &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
	})
	return validatorInstance
}

// Validate runs struct-tag validation and returns the first error.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
