// Package validator wraps go-playground struct validation behind a small
// injectable type. This is part of the platform layer and contains no
// business logic.
package validator

import "github.com/go-playground/validator/v10"

// Validator validates request DTOs from their struct tags. Handlers receive it
// by injection so tests can swap rules in.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates s against its `validate` tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single value against a tag expression.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation adds a custom tag.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
