package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	hourserrors "tablebook/internal/businesshours/errors"
	"tablebook/internal/businesshours/repository"
	"tablebook/internal/businesshours/validator"
	"tablebook/internal/slots"
	"tablebook/pkg/cache"
	"tablebook/pkg/clock"
	"tablebook/pkg/config"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
)

// BusinessHoursService resolves the operating hours of a day. Reads go
// through a short-lived cache; updates invalidate the affected day.
type BusinessHoursService interface {
	ForWeekday(ctx context.Context, day time.Weekday) (*model.BusinessHours, error)
	ForDate(ctx context.Context, date string) (time.Time, *model.BusinessHours, error)
	List(ctx context.Context) ([]*model.BusinessHours, error)
	Update(ctx context.Context, day time.Weekday, hours *model.BusinessHours) error
	Slots(ctx context.Context, date string) ([]slots.Slot, error)
}

type businessHoursService struct {
	repo      repository.BusinessHoursRepository
	validator *validator.BusinessHoursValidator
	cache     *cache.TTL[time.Weekday, *model.BusinessHours]
	clock     clock.Clock
	cfg       *config.Config
}

func NewBusinessHoursService(
	repo repository.BusinessHoursRepository,
	validator *validator.BusinessHoursValidator,
	hoursCache *cache.TTL[time.Weekday, *model.BusinessHours],
	clk clock.Clock,
	cfg *config.Config,
) BusinessHoursService {
	return &businessHoursService{
		repo:      repo,
		validator: validator,
		cache:     hoursCache,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *businessHoursService) ForWeekday(ctx context.Context, day time.Weekday) (*model.BusinessHours, error) {
	if day < time.Sunday || day > time.Saturday {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid day of week: %d", day))
	}

	hours, err := s.cache.GetOrLoad(ctx, day, func(ctx context.Context) (*model.BusinessHours, error) {
		return s.load(ctx, day)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to load business hours",
			"day", day.String(),
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve business hours", err)
	}

	copied := *hours
	return &copied, nil
}

// load reads one weekday. A day never configured is closed and carries the
// default booking parameters.
func (s *businessHoursService) load(ctx context.Context, day time.Weekday) (*model.BusinessHours, error) {
	hours, err := s.repo.FindByDay(ctx, day)
	if err != nil {
		if errors.Is(err, hourserrors.ErrNotFound) {
			s.cfg.Log.Debug("No business hours stored, using closed defaults", "day", day.String())
			return s.closedDay(day), nil
		}
		return nil, err
	}
	s.applyDefaults(hours)
	return hours, nil
}

func (s *businessHoursService) closedDay(day time.Weekday) *model.BusinessHours {
	hours := &model.BusinessHours{
		DayOfWeek:             int(day),
		AdvanceBookingMinutes: s.cfg.DefaultAdvanceBookingMinutes,
	}
	s.applyDefaults(hours)
	return hours
}

func (s *businessHoursService) ForDate(ctx context.Context, date string) (time.Time, *model.BusinessHours, error) {
	day, err := model.ParseDate(date, s.cfg.Loc())
	if err != nil {
		return time.Time{}, nil, apperrors.InvalidInput(err.Error())
	}

	hours, err := s.ForWeekday(ctx, day.Weekday())
	if err != nil {
		return time.Time{}, nil, err
	}
	return day, hours, nil
}

func (s *businessHoursService) List(ctx context.Context) ([]*model.BusinessHours, error) {
	week := make([]*model.BusinessHours, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		hours, err := s.ForWeekday(ctx, day)
		if err != nil {
			return nil, err
		}
		week = append(week, hours)
	}
	return week, nil
}

func (s *businessHoursService) Update(ctx context.Context, day time.Weekday, hours *model.BusinessHours) error {
	if day < time.Sunday || day > time.Saturday {
		return apperrors.InvalidInput(fmt.Sprintf("Invalid day of week: %d", day))
	}

	hours.DayOfWeek = int(day)
	s.applyDefaults(hours)

	if err := s.validator.Validate(hours); err != nil {
		s.cfg.Log.Warn("Business hours validation failed",
			"day", day.String(),
			"error", err,
		)
		return apperrors.Validation("Business hours validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	now := s.clock.Now()
	if _, err := slots.Generate(model.StartOfDay(now, s.cfg.Loc()), now, hours); err != nil {
		s.cfg.Log.Warn("Business hours produce no valid schedule",
			"day", day.String(),
			"error", err,
		)
		return apperrors.Validation("Business hours validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Upsert(ctx, hours); err != nil {
		s.cfg.Log.Error("Failed to update business hours",
			"day", day.String(),
			"error", err,
		)
		return apperrors.Internal("Failed to update business hours", err)
	}
	s.cache.Invalidate(day)

	s.cfg.Log.Info("Business hours updated successfully",
		"day", day.String(),
		"is_open", hours.IsOpen,
		"lunch", hours.HasLunchShift(),
	)
	return nil
}

func (s *businessHoursService) Slots(ctx context.Context, date string) ([]slots.Slot, error) {
	day, hours, err := s.ForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	out, err := slots.Generate(day, s.clock.Now(), hours)
	if err != nil {
		s.cfg.Log.Error("Stored business hours are invalid",
			"date", date,
			"error", err,
		)
		return nil, apperrors.Validation("Business hours are misconfigured", map[string]any{
			"error": err.Error(),
		})
	}
	return out, nil
}

// applyDefaults fills booking parameters left at zero. AdvanceBookingMinutes
// is kept as given because zero is meaningful.
func (s *businessHoursService) applyDefaults(hours *model.BusinessHours) {
	if hours.SlotDurationMinutes == 0 {
		hours.SlotDurationMinutes = s.cfg.DefaultSlotDurationMinutes
	}
	if hours.BufferMinutes == 0 {
		hours.BufferMinutes = s.cfg.DefaultBufferMinutes
	}
	if hours.MaxPartySize == 0 {
		hours.MaxPartySize = s.cfg.DefaultMaxPartySize
	}
}
