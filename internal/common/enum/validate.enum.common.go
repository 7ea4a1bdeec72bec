package enum

import "github.com/go-playground/validator/v10"

type validatable interface {
	IsValid() bool
}

// ValidateEnum backs the "enum" validator tag for any type with IsValid.
// Empty values pass so "omitempty" and "required" stay in charge of presence.
func ValidateEnum(fl validator.FieldLevel) bool {
	if fl.Field().Kind() == 0 || fl.Field().IsZero() {
		return true
	}
	if !fl.Field().CanInterface() {
		return false
	}
	if v, ok := fl.Field().Interface().(validatable); ok {
		return v.IsValid()
	}
	return false
}
