package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var instance = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError names the first request field that failed validation, by its
// json name, and the rule it broke.
type FieldError struct {
	Field string
	Tag   string
}

func (e *FieldError) Error() string {
	return "field " + e.Field + " failed " + e.Tag
}

// Missing reports whether the field was absent rather than malformed.
func (e *FieldError) Missing() bool {
	return e.Tag == "required"
}

func Struct(s any) error {
	err := instance.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	first := fieldErrs[0]
	return &FieldError{Field: first.Field(), Tag: first.Tag()}
}

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}
