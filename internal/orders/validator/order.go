package validator

import (
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type OrderValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewOrderValidator(log *logger.Logger) *OrderValidator {
	v := validation.New(log)

	log.Info("Order validator initialized successfully")

	return &OrderValidator{
		validate: v,
		logger:   log,
	}
}

func (v *OrderValidator) ValidateCreate(req *model.CreateOrderRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *OrderValidator) ValidateStatus(req *model.OrderStatusRequest) error {
	return validation.Struct(v.validate, req)
}
