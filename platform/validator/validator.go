// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"github.com/go-playground/validator/v10"

	"prospect_backend/platform/apperr"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{
		v: validator.New(),
	}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Payload validates a queue payload and converts failures into a
// non-retryable validation error, so malformed deliveries are dropped
// instead of redelivered forever.
func (val *Validator) Payload(s interface{}) error {
	if err := val.v.Struct(s); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid payload", err)
	}
	return nil
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
