package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SDN-2025/exam-session-service/internal/models"
)

// Validator wraps go-playground struct validation with the domain's
// custom tags.
type Validator struct {
	structValidator *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	registerCustomValidators(v)
	return &Validator{structValidator: v}
}

// Validate checks struct tags on s.
func (v *Validator) Validate(s interface{}) error {
	return v.structValidator.Struct(s)
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("option_letter", validateOptionLetter)

	// Report the json field name in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateOptionLetter(fl validator.FieldLevel) bool {
	return models.ValidOption(fl.Field().String())
}
