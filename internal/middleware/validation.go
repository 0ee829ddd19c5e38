package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/jobportal/internal/pkg/validation"
)

// formErrorKey holds messages that do not belong to a single field
const formErrorKey = "form"

// RegisterValidators installs the custom rules on gin's binding validator and
// makes field errors report the form field name instead of the Go field name.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return validation.RegisterRules(v)
}

// BindingErrors converts a binding error into per-field messages
func BindingErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{formErrorKey: "The submitted form could not be read"}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = formatValidationError(fe)
		}
	}
	return fields
}

// label turns a form field name into words: "full_name" -> "Full name"
func label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	name := label(e.Field())
	switch e.Tag() {
	case "required":
		return name + " is required"
	case "min":
		return name + " must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, e.Param())
		}
		return name + " must be at most " + e.Param()
	case "len":
		return name + " must be exactly " + e.Param() + " characters"
	case "email":
		return name + " must be a valid email address"
	case "url":
		return name + " must be a valid URL"
	case "oneof":
		return name + " must be one of: " + e.Param()
	case "eqfield":
		return "Passwords do not match"
	case "hexadecimal":
		return name + " is not valid"
	case "username":
		return "Username may only contain letters, digits, underscores and hyphens"
	case "phone8":
		return "Phone number must be exactly 8 digits"
	case "strongpassword":
		if s, ok := e.Value().(string); ok {
			if problems := validation.PasswordProblems(s); len(problems) > 0 {
				return "Password " + strings.Join(problems, ", ")
			}
		}
		return "Password is too weak"
	default:
		return name + " validation failed: " + e.Tag()
	}
}
