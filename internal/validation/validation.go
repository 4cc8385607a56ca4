package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single failed rule on a named field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects field errors. A nil or empty Errors means the input is valid.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error
func (e Errors) Add(field, message string) Errors {
	return append(e, FieldError{Field: field, Message: message})
}

// Err returns nil when no errors were collected, so callers can return it directly
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// As extracts validation errors from err
func As(err error) (Errors, bool) {
	var verrs Errors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

var (
	postalPattern       = regexp.MustCompile(`^\d{7}$`)
	profileEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,4}$`)
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	validate.RegisterValidation("maxstripped", func(fl validator.FieldLevel) bool {
		var limit int
		if _, err := fmt.Sscanf(fl.Param(), "%d", &limit); err != nil {
			return false
		}
		return StrippedLength(fl.Field().String()) <= limit
	})
	validate.RegisterValidation("postal", func(fl validator.FieldLevel) bool {
		return postalPattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("profile_email", func(fl validator.FieldLevel) bool {
		return profileEmailPattern.MatchString(fl.Field().String())
	})
}

// StrippedLength counts characters after removing CR and LF
func StrippedLength(s string) int {
	return utf8.RuneCountInString(strings.NewReplacer("\r", "", "\n", "").Replace(s))
}

// Struct validates v against its validate tags and returns Errors on failure
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var out Errors
	for _, e := range validationErrors {
		out = out.Add(e.Field(), message(e))
	}
	return out
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func message(e validator.FieldError) string {
	name := label(e.Field())
	switch e.Tag() {
	case "required":
		return name + " is required"
	case "email", "profile_email":
		return name + " must be a valid email address"
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, e.Param())
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, e.Param())
	case "maxstripped":
		return fmt.Sprintf("%s must be at most %s characters excluding line breaks", name, e.Param())
	case "postal":
		return name + " must be exactly 7 digits"
	case "gt":
		return name + " must reference an existing record"
	case "eqfield":
		return fmt.Sprintf("%s does not match %s", name, label(e.Param()))
	default:
		return name + " is invalid"
	}
}
