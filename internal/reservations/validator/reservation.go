package validator

import (
	"tablebook/pkg/logger"
	"tablebook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// ReservationValidator checks booking, availability and allocation requests.
type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validation.New(log)

	log.Info("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ReservationValidator) Validate(req any) error {
	return validation.Struct(v.validate, req)
}
