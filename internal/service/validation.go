package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// Report fields by their JSON name so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs the struct tags of in and converts the first failure into
// a field-level validation error.
func checkStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return internalErr("validation failed", err)
	}
	fe := verrs[0]
	return validationErr(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "email":
		return "Email must be a valid email address"
	case "min":
		return label + " must be at least " + fe.Param() + " characters long"
	case "max":
		return label + " must be at most " + fe.Param() + " characters long"
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return label + " is invalid"
}

func fieldLabel(field string) string {
	if field == "" {
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func checkPasswordLength(password string) error {
	if len(password) > maxPasswordBytes {
		return validationErr("password", "Password must be at most 72 bytes long")
	}
	return nil
}
