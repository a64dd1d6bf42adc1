package apiv1

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var redeemCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{4,32}$`)

// Validator wraps go-playground/validator with the request rules of this API.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("redeemcode", func(fl validator.FieldLevel) bool {
		return redeemCodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return &Validator{validate: v}
}

func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// Var validates a single value, e.g. a URL parameter.
func (v *Validator) Var(field any, tag string) error {
	return v.validate.Var(field, tag)
}

// fieldErrors flattens validation errors into field -> message.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a UUID"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "redeemcode":
		return "must be letters and digits only"
	case "alphanum":
		return "must contain only letters and digits"
	default:
		return "is invalid"
	}
}
