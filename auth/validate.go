package auth

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var usernameRegexp = regexp.MustCompile(`^\w{1,24}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegexp.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(errors.Wrap(err, "register username validation"))
	}
	return v
}

// validateRegisterRequest maps the first failing field onto the
// package's validation sentinels.
func validateRegisterRequest(r registerAccountRequest) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	switch verrs[0].StructField() {
	case "Email":
		return ErrInvalidEmail
	case "Username":
		return ErrInvalidUsername
	case "Password":
		return ErrInvalidPassword
	case "Category":
		return ErrInvalidCategory
	default:
		return err
	}
}
