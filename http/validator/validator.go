package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/slickfs/gateway/engine"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type jsonValidator struct {
	validator *validator.Validate
}

// New returns a new Validator for the echo webserver framework. Field names in
// the errors are the names of the JSON fields.
func New() echo.Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		if len(name) == 0 {
			return field.Name
		}

		return name
	})

	v.RegisterValidation("conflict", func(fl validator.FieldLevel) bool {
		return engine.ConflictMode(fl.Field().String()).IsValid()
	})

	return &jsonValidator{
		validator: v,
	}
}

// Validate returns an error with a message that names the first invalid field.
func (cv *jsonValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verr validator.ValidationErrors
	if !errors.As(err, &verr) || len(verr) == 0 {
		return err
	}

	return errors.New(message(verr[0]))
}

func message(fe validator.FieldError) string {
	// The namespace starts with the name of the validated type
	elements := strings.Split(fe.Namespace(), ".")
	if len(elements) > 1 {
		elements = elements[1:]
	}

	field := elements[len(elements)-1]

	switch fe.Tag() {
	case "required":
		if len(elements) > 1 {
			return fmt.Sprintf("%s must have %s", strings.Join(elements[:len(elements)-1], "."), field)
		}

		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must be an array", field)
		}

		return fmt.Sprintf("%s not defined", field)
	case "conflict":
		return fmt.Sprintf("unknown conflict mode %v", fe.Value())
	}

	return fmt.Sprintf("%s is invalid (%s)", strings.Join(elements, "."), fe.Tag())
}
