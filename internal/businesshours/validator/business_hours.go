package validator

import (
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BusinessHoursValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBusinessHoursValidator(log *logger.Logger) *BusinessHoursValidator {
	v := validation.New(log)

	log.Info("Business hours validator initialized successfully")

	return &BusinessHoursValidator{
		validate: v,
		logger:   log,
	}
}

func (v *BusinessHoursValidator) Validate(hours *model.BusinessHours) error {
	return validation.Struct(v.validate, hours)
}
