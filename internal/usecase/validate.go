package usecase

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phenrril/marketplace/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput valida los tags del struct y devuelve el primer campo que
// falla como InvalidInput.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return domain.InvalidInput("invalid request")
	}
	fe := ve[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return domain.InvalidInput("%s is required", field)
	case "gt":
		return domain.InvalidInput("%s must be greater than %s", field, fe.Param())
	case "min":
		return domain.InvalidInput("%s must have at least %s entries", field, fe.Param())
	case "oneof":
		return domain.InvalidInput("%s must be one of [%s]", field, fe.Param())
	default:
		return domain.InvalidInput("%s is invalid (%s)", field, fe.Tag())
	}
}
