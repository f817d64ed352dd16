// validation.go - Form validation
package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// formValidate is the validator instance for form input.
// Initialized in init() with custom validators.
var formValidate *validator.Validate

func init() {
	formValidate = validator.New()

	// Whitespace-only text counts as empty.
	_ = formValidate.RegisterValidation("notblank", validateNotBlank)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(field.String()) != ""
}

// predictForm is the single-text form body.
type predictForm struct {
	Text    string `form:"text" json:"text"`
	Subject string `form:"subject" json:"subject"`
}

// subject returns the optional subject; an empty one is sent as null.
func (f *predictForm) subject() *string {
	if strings.TrimSpace(f.Subject) == "" {
		return nil
	}
	s := f.Subject
	return &s
}

// validate checks the text against the submit rule: not blank and at most
// maxLen characters. The length is counted in runes.
func (f *predictForm) validate(maxLen int) error {
	err := formValidate.Var(f.Text, fmt.Sprintf("notblank,max=%d", maxLen))
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		apiErr := NewValidationError("text")
		switch verrs[0].Tag() {
		case "notblank":
			apiErr.Details = "text must not be empty"
		case "max":
			apiErr.Details = fmt.Sprintf("Text exceeds %d characters", maxLen)
		}
		return apiErr
	}
	return NewBadRequestError("invalid form", err)
}
