package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the portal's custom rules.
type Validator struct {
	validate *validator.Validate
}

// ValidationError describes one failed field check.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the error type every validation failure surfaces as.
// Handlers recognize it with errors.As and answer 400 instead of 500.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve))
	for _, e := range ve {
		messages = append(messages, e.Message)
	}
	return strings.Join(messages, "; ")
}

var (
	classIDPattern   = regexp.MustCompile(`^\d{6}$`)
	dateValuePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeValuePattern = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

func New() *Validator {
	validate := validator.New()

	// class_id: public 6-digit class identifier
	_ = validate.RegisterValidation("class_id", func(fl validator.FieldLevel) bool {
		return classIDPattern.MatchString(fl.Field().String())
	})

	// date_value: YYYY-MM-DD
	_ = validate.RegisterValidation("date_value", func(fl validator.FieldLevel) bool {
		return dateValuePattern.MatchString(fl.Field().String())
	})

	// time_value: HH:MM or HH:MM:SS
	_ = validate.RegisterValidation("time_value", func(fl validator.FieldLevel) bool {
		return timeValuePattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: validate}
}

// Validate runs struct validation and collects failures into ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		out = append(out, ValidationError{
			Field:   strings.ToLower(fieldErr.Field()),
			Message: formatFieldError(fieldErr),
		})
	}
	return out
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "class_id":
		return fmt.Sprintf("%s must be a 6-digit class id", field)
	case "date_value":
		return fmt.Sprintf("%s must be formatted as YYYY-MM-DD", field)
	case "time_value":
		return fmt.Sprintf("%s must be formatted as HH:MM", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
