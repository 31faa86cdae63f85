package validator

import (
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type TableValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTableValidator(log *logger.Logger) *TableValidator {
	v := validation.New(log)

	log.Info("Table validator initialized successfully")

	return &TableValidator{
		validate: v,
		logger:   log,
	}
}

func (v *TableValidator) ValidatePatch(patch *model.TableStatusPatch) error {
	return validation.Struct(v.validate, patch)
}
