package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validationMessage turns the first validation failure into a readable message.
func validationMessage(err error) string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return "invalid request"
	}
	vErr := vErrs[0]
	switch vErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", vErr.Field())
	case "min":
		if vErr.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", vErr.Field(), vErr.Param())
		}
		return fmt.Sprintf("%s must be at least %s", vErr.Field(), vErr.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", vErr.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", vErr.Field(), vErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", vErr.Field())
	}
}
