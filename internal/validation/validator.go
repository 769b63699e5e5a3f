package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a validator with the storefront's custom tags registered:
// hasalpha (at least one letter) and hasdigit (at least one digit). Errors
// name fields by their JSON key.
func New() *validatorv10.Validate {
	v := validatorv10.New()
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
	_ = v.RegisterValidation("hasalpha", hasRune(unicode.IsLetter))
	_ = v.RegisterValidation("hasdigit", hasRune(unicode.IsDigit))
	return v
}

func hasRune(pred func(rune) bool) validatorv10.Func {
	return func(fl validatorv10.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

// Echo adapts the validator to echo.Validator.
type Echo struct {
	V *validatorv10.Validate
}

func (e *Echo) Validate(i any) error {
	return e.V.Struct(i)
}

// Fields flattens validation errors into field -> failed rule.
func Fields(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = rule(fe)
		}
		return out
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return out
}

func rule(fe validatorv10.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	return fe.Tag()
}
