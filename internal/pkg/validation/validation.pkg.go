package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/pkg/errorx"

	"github.com/gin-gonic/gin/binding"

	"github.com/go-playground/validator/v10"
)

var (
	val       *validator.Validate
	setupOnce sync.Once
	setupErr  error
)

var phonePattern = regexp.MustCompile(`^(\+62|62|0)8[1-9][0-9]{6,11}$`)

var validationMessages = map[string]string{
	"e164":         "must be a e164 formatted phone number",
	"required":     "is required",
	"url":          "must be a valid URL",
	"datetime":     "must be a valid date-time format (2006-01-02T15:04:05Z07:00)",
	"number":       "must be a number",
	"numeric":      "must contain only digits",
	"oneof":        "must be one of the allowed values: %s",
	"email":        "must be a valid email address",
	"min":          "must be greater than or equal to %s",
	"max":          "must be less than or equal to %s",
	"len":          "must have the exact length of %s",
	"alpha":        "must contain only alphabetic characters",
	"alphanum":     "must contain only alphanumeric characters",
	"eqfield":      "must be equal to the value of the %s field",
	"nefield":      "must not be equal to the value of the %s field",
	"gt":           "must be greater than %s",
	"gte":          "must be greater than or equal to %s",
	"lt":           "must be less than %s",
	"lte":          "must be less than or equal to %s",
	"excludes":     "must not contain the value %s",
	"excludesall":  "must not contain any of the values: %s",
	"enum":         "must be one of the allowed enum values: %s",
	"phone":        "must be a valid phone number",
}

// Setup is safe to call more than once; tests call it from several packages.
func Setup() error {
	setupOnce.Do(func() {
		setupErr = setup()
	})
	return setupErr
}

func setup() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := registerValidations(v); err != nil {
		return fmt.Errorf("failed to register custom validations: %w", err)
	}

	v.RegisterTagNameFunc(jsonTagName)
	val = v

	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := registerValidations(engine); err != nil {
			return fmt.Errorf("failed to register custom validations in Gin engine: %w", err)
		}
		engine.RegisterTagNameFunc(jsonTagName)
	} else {
		return fmt.Errorf("failed to get validation engine")
	}

	return nil
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func registerValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("enum", enum.ValidateEnum); err != nil {
		return fmt.Errorf("failed to register enum validation: %w", err)
	}
	if err := v.RegisterValidation("phone", validatePhone); err != nil {
		return fmt.Errorf("failed to register phone validation: %w", err)
	}
	return nil
}

// validatePhone accepts Indonesian mobile numbers in 08xx, 628xx or +628xx form.
func validatePhone(fl validator.FieldLevel) bool {
	phone := strings.NewReplacer(" ", "", "-", "").Replace(fl.Field().String())
	return phonePattern.MatchString(phone)
}

func Validate(payload interface{}) error {
	if val == nil {
		if err := Setup(); err != nil {
			return err
		}
	}

	if err := val.Struct(payload); err != nil {
		var errorMessages []string

		validationErrors := parsingErrorValidate(err)
		if validationErrors != "" {
			errorMessages = append(errorMessages, validationErrors)
		}
		message := "Validation failed: " + strings.Join(errorMessages, ", ")
		return errors.New(message)
	}

	return nil
}

// ValidateFields returns one message per failing field keyed by its json
// path without the root struct name, e.g. "destination.district".
func ValidateFields(payload interface{}) map[string]string {
	if val == nil {
		if err := Setup(); err != nil {
			return map[string]string{"_": err.Error()}
		}
	}

	err := val.Struct(payload)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		path := e.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		fields[path] = messageFor(e)
	}
	return fields
}

// AsValidationError wraps ValidateFields in the error type services return.
func AsValidationError(message string, payload interface{}) error {
	fields := ValidateFields(payload)
	if len(fields) == 0 {
		return nil
	}
	return &errorx.ErrValidation{Message: message, Fields: fields}
}

func messageFor(e validator.FieldError) string {
	msg, ok := validationMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("failed the %s check", e.Tag())
	}
	switch e.Tag() {
	case "enum":
		return fmt.Sprintf(msg, e.Type())
	default:
		if strings.Contains(msg, "%s") {
			return fmt.Sprintf(msg, e.Param())
		}
	}
	return msg
}

func parsingErrorValidate(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		var sb strings.Builder
		for _, e := range errs {
			sb.WriteString(fmt.Sprintf("%s: %s %s", e.Namespace(), e.Field(), messageFor(e)))
			sb.WriteString(", ")
		}
		return strings.TrimSuffix(sb.String(), ", ")
	}
	return err.Error()
}

// BindError turns a gin binding failure into an ErrValidation. Validator
// failures are re-run through ValidateFields so the dashboard gets json
// paths; decode failures are reported against "body".
func BindError(message string, payload interface{}, err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		if verr := AsValidationError(message, payload); verr != nil {
			return verr
		}
	}
	return &errorx.ErrValidation{Message: message, Fields: map[string]string{"body": err.Error()}}
}
