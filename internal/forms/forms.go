// Package forms turns submitted form values into typed, validated data.
//
// Every Parse* function is pure: url.Values in, a form struct plus Errors
// out. The struct is returned even when invalid so the page can be
// re-rendered with what the user typed.
//
// Validation rules are go-playground/validator struct tags. Field names in
// Errors come from the `form` tag, so they match the HTML input names.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps an input name to the messages shown next to it.
type Errors map[string][]string

// Add appends message to field's errors.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Get returns the first message for field, or "".
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Valid reports whether there are no errors at all.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// validate is safe for concurrent use; it caches struct metadata internally.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs the validator over form and collects one message per failing
// field.
func check(form any) Errors {
	errs := Errors{}

	err := validate.Struct(form)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError means form wasn't a struct: a programming error.
		panic(fmt.Sprintf("forms: validating %T: %v", form, err))
	}

	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

// message renders a validation failure in the wording the pages use.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	default:
		return "Invalid value."
	}
}

// field returns the trimmed value of key.
func field(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}
