// Package validation builds the shared struct validator and turns its field
// errors into messages a client can act on.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tablebook/pkg/logger"
	"tablebook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

var zones = map[string]struct{}{
	model.ZoneIndoor:  {},
	model.ZoneOutdoor: {},
	model.ZoneTerrace: {},
	model.ZoneBar:     {},
	model.ZonePrivate: {},
}

// New returns a validator with the domain tags registered. Registration
// failures are programming errors and end the process.
func New(log *logger.Logger) *validator.Validate {
	v := validator.New()

	custom := map[string]validator.Func{
		"time_of_day": validateTimeOfDay,
		"table_zone":  validateTableZone,
		"civil_date":  validateDate,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register validator", "tag", tag, "error", err)
		}
	}
	return v
}

// validateTimeOfDay accepts an empty value; pair it with a required rule
// when the field is mandatory.
func validateTimeOfDay(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	_, err := model.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

func validateTableZone(fl validator.FieldLevel) bool {
	_, ok := zones[fl.Field().String()]
	return ok
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String(), time.UTC)
	return err == nil
}

// Struct validates s and translates field errors. Errors that are not field
// errors are returned unchanged.
func Struct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Translate(validationErrs)
		}
		return err
	}
	return nil
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	var out ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required", "required_if", "required_with":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be a valid international phone number", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid ID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		case "time_of_day":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "table_zone":
			message = fmt.Sprintf("%s must be one of [indoor outdoor terrace bar private]", err.Field())
		case "civil_date":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "unique":
			message = fmt.Sprintf("%s must not contain duplicates", err.Field())
		}

		out = append(out, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return out
}
