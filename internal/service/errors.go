package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrValidationFailed        = errors.New("validation failed")
	ErrSelfFollow              = fmt.Errorf("%w: cannot follow yourself", ErrValidationFailed)
	ErrUnauthenticated         = errors.New("authentication required")
	ErrSlugGenerationExhausted = errors.New("slug generation exhausted")
)

// ValidationError carries one message per offending field. It matches
// ErrValidationFailed with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// RegisterJSONNames makes v report fields by their json names.
func RegisterJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterJSONNames(v)
	return v
}

var validate = newValidator()

// validateStruct checks the binding tags of req.
func validateStruct(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if fe, ok := AsValidationError(err); ok {
			return fe
		}
		return err
	}
	return nil
}

// AsValidationError converts validator field errors into a ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil, false
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = message(fe)
	}
	return &ValidationError{Fields: fields}, true
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if fe.Kind() == reflect.Int {
			return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		if fe.Kind() == reflect.Int {
			return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "oneof":
		return "Select a valid choice."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
