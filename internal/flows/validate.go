package flows

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation messages returned to callers.
const (
	MsgAllFieldsRequired = "All fields are required"
	MsgInvalidEmail      = "Invalid email address"
	MsgPasswordMismatch  = "Passwords do not match"
	MsgInvalidPhone      = "Invalid phone number"
)

// MsgPasswordTooShort renders the minimum-length message.
func MsgPasswordTooShort(min int) string {
	return fmt.Sprintf("Password must be at least %d characters", min)
}

// tagPriority orders failures so the first failing rule in registration order
// is reported, whatever field it sits on.
var tagPriority = map[string]int{
	"required": 0,
	"email":    1,
	"eqfield":  2,
	"phone":    3,
}

// NewValidator returns a validator with the "phone" rule registered: ten
// digits, optionally preceded by countryPrefix.
func NewValidator(countryPrefix string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	pattern := `^\d{10}$`
	if countryPrefix != "" {
		pattern = `^(` + regexp.QuoteMeta(countryPrefix) + `)?\d{10}$`
	}
	phone := regexp.MustCompile(pattern)
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phone.MatchString(fl.Field().String())
	})
	return v
}

type registrationInput struct {
	FullName        string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phoneNo" validate:"required,phone"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func validateRegistration(deps *Deps, in registrationInput) error {
	if err := deps.Validator.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return deps.Invalid("", MsgAllFieldsRequired)
		}

		first := fieldErrs[0]
		for _, fe := range fieldErrs[1:] {
			if rank(fe.Tag()) < rank(first.Tag()) {
				first = fe
			}
		}
		return deps.Invalid(first.Field(), messageFor(first.Tag()))
	}
	return validatePasswordLength(deps, "password", in.Password)
}

func validatePasswordLength(deps *Deps, field, password string) error {
	if err := deps.Validator.Var(password, fmt.Sprintf("min=%d", deps.MinPasswordLength)); err != nil {
		return deps.Invalid(field, MsgPasswordTooShort(deps.MinPasswordLength))
	}
	return nil
}

func validateEmail(deps *Deps, email string) error {
	if err := deps.Validator.Var(email, "required,email"); err != nil {
		return deps.Invalid("email", MsgInvalidEmail)
	}
	return nil
}

func rank(tag string) int {
	if r, ok := tagPriority[tag]; ok {
		return r
	}
	return len(tagPriority)
}

func messageFor(tag string) string {
	switch tag {
	case "required":
		return MsgAllFieldsRequired
	case "email":
		return MsgInvalidEmail
	case "eqfield":
		return MsgPasswordMismatch
	case "phone":
		return MsgInvalidPhone
	default:
		return MsgAllFieldsRequired
	}
}
