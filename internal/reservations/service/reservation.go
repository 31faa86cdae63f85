package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tablebook/internal/allocation"
	"tablebook/internal/availability"
	hoursservice "tablebook/internal/businesshours/service"
	reservationerrors "tablebook/internal/reservations/errors"
	"tablebook/internal/reservations/repository"
	"tablebook/internal/reservations/validator"
	"tablebook/internal/slots"
	tableerrors "tablebook/internal/tables/errors"
	tablerepo "tablebook/internal/tables/repository"
	tokenservice "tablebook/internal/tokens/service"
	"tablebook/pkg/clock"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
	"tablebook/pkg/notify"
	"tablebook/pkg/sanitizer"

	"github.com/google/uuid"
)

const CodeTableUnavailable = "table_unavailable"

// CreateResult is a stored reservation with the customer's self-service token.
type CreateResult struct {
	Reservation  *model.Reservation `json:"reservation"`
	Token        string             `json:"token"`
	TokenExpires time.Time          `json:"tokenExpires"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// SelectionResult reports whether a set of tables can seat a party.
type SelectionResult struct {
	Valid         bool                  `json:"valid"`
	TotalCapacity int                   `json:"totalCapacity"`
	Violations    []apperrors.Violation `json:"violations"`
}

type ReservationService interface {
	Create(ctx context.Context, req *model.CreateReservationRequest) (*CreateResult, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	List(ctx context.Context, date string, status model.ReservationStatus) ([]*model.Reservation, error)
	Availability(ctx context.Context, q *model.AvailabilityQuery) (*availability.Result, error)
	CheckTableAddition(ctx context.Context, req *model.AllocationCheckRequest) (*allocation.Decision, error)
	ValidateSelection(ctx context.Context, req *model.AllocationValidateRequest) (*SelectionResult, error)
	UpdateStatus(ctx context.Context, id string, req *model.ReservationStatusRequest) (*model.Reservation, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.ReservationLockRepository
	tableRepo tablerepo.TableRepository
	hours     hoursservice.BusinessHoursService
	tokens    tokenservice.TokenService
	allocator *allocation.Allocator
	validator *validator.ReservationValidator
	phones    *sanitizer.PhoneNormalizer
	notifier  notify.Notifier
	clock     clock.Clock
	cfg       *config.Config
}

type Dependencies struct {
	Repo      repository.ReservationRepository
	LockRepo  repository.ReservationLockRepository
	TableRepo tablerepo.TableRepository
	Hours     hoursservice.BusinessHoursService
	Tokens    tokenservice.TokenService
	Allocator *allocation.Allocator
	Validator *validator.ReservationValidator
	Phones    *sanitizer.PhoneNormalizer
	Notifier  notify.Notifier
	Clock     clock.Clock
}

func NewReservationService(deps Dependencies, cfg *config.Config) ReservationService {
	return &reservationService{
		repo:      deps.Repo,
		lockRepo:  deps.LockRepo,
		tableRepo: deps.TableRepo,
		hours:     deps.Hours,
		tokens:    deps.Tokens,
		allocator: deps.Allocator,
		validator: deps.Validator,
		phones:    deps.Phones,
		notifier:  deps.Notifier,
		clock:     deps.Clock,
		cfg:       cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, req *model.CreateReservationRequest) (*CreateResult, error) {
	now := s.clock.Now()

	if err := s.sanitize(req); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	day, hours, err := s.hours.ForDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	slot, err := s.bookableSlot(day, now, hours, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if req.PartySize > hours.MaxPartySize {
		return nil, apperrors.Validation("Party size exceeds the maximum for this day", map[string]any{
			"partySize":    req.PartySize,
			"maxPartySize": hours.MaxPartySize,
		})
	}

	buffer := hours.Buffer()
	tables, err := s.resolveTables(ctx, req, slot.At, buffer)
	if err != nil {
		return nil, err
	}
	if violations := s.allocator.Validate(tables, req.PartySize); len(violations) > 0 {
		s.cfg.Log.Warn("Reservation table selection rejected",
			"date", req.Date,
			"time", req.Time,
			"party_size", req.PartySize,
			"violations", len(violations),
		)
		return nil, apperrors.ConflictWithViolations("Selected tables cannot seat this party", violations)
	}

	reservation := &model.Reservation{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		PartySize:       req.PartySize,
		Date:            req.Date,
		Time:            slot.At,
		Status:          model.ReservationStatus(s.cfg.DefaultReservationStatus),
		TableIDs:        tableIDs(tables),
		SpecialRequests: req.SpecialRequests,
		PreOrderItems:   req.PreOrderItems,
	}

	release, err := s.acquireLocks(ctx, reservation.TableIDs, slot.At, buffer)
	if err != nil {
		return nil, err
	}
	defer release()

	var token *model.ReservationToken
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.verifyNoConflicts(txCtx, reservation.TableIDs, slot.At, buffer); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		var issueErr error
		token, issueErr = s.tokens.Issue(txCtx, reservation, now)
		return issueErr
	})
	if err != nil {
		if rbErr, ok := mongotx.AsRollbackError(err); ok {
			s.cfg.Log.Error("Double fault creating reservation",
				"date", req.Date,
				"time", req.Time,
				"error", rbErr.Cause,
				"rollback_error", rbErr.RollbackErr,
			)
			return nil, apperrors.Internal("Failed to create reservation", err)
		}
		s.cfg.Log.Error("Failed to create reservation",
			"date", req.Date,
			"time", req.Time,
			"table_ids", reservation.TableIDs,
			"error", err,
		)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to create reservation", err)
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"date", reservation.Date,
		"time", req.Time,
		"party_size", reservation.PartySize,
		"table_ids", reservation.TableIDs,
		"status", reservation.Status,
	)
	notify.Dispatch(ctx, s.notifier, notify.ReservationEvent(notify.EventReservationCreated, reservation, "", now), s.cfg.NotifyTimeout, s.cfg.Log)

	result := &CreateResult{
		Reservation:  reservation,
		Token:        token.Token,
		TokenExpires: token.Expires,
	}
	if total := model.TotalCapacity(tables); total > req.PartySize {
		result.Warnings = append(result.Warnings, fmt.Sprintf("extra capacity: %d seats for a party of %d", total, req.PartySize))
	}
	return result, nil
}

// bookableSlot finds the requested time among the day's slots. Matching by
// label places times after midnight on the shift that produced them.
func (s *reservationService) bookableSlot(day, now time.Time, hours *model.BusinessHours, date, at string) (slots.Slot, error) {
	daySlots, err := slots.Generate(day, now, hours)
	if err != nil {
		s.cfg.Log.Error("Stored business hours are invalid", "date", date, "error", err)
		return slots.Slot{}, apperrors.Validation("Business hours are misconfigured", map[string]any{
			"error": err.Error(),
		})
	}
	if len(daySlots) == 1 && daySlots[0].IsClosedMarker() {
		return slots.Slot{}, apperrors.Validation("The restaurant is closed on this date", map[string]any{
			"date": date,
		})
	}

	for _, slot := range daySlots {
		if slot.Time != at {
			continue
		}
		if !slot.Available {
			return slots.Slot{}, apperrors.Validation("Requested time cannot be booked", map[string]any{
				"time":   at,
				"reason": slot.Reason,
			})
		}
		return slot, nil
	}
	return slots.Slot{}, apperrors.Validation("Requested time is not a reservation slot", map[string]any{
		"time": at,
	})
}

// resolveTables loads the requested tables or, when none were named, picks
// the best free ones.
func (s *reservationService) resolveTables(ctx context.Context, req *model.CreateReservationRequest, at time.Time, buffer time.Duration) ([]*model.Table, error) {
	if len(req.TableIDs) > 0 {
		tables, err := s.tableRepo.FindByIDs(ctx, req.TableIDs)
		if err != nil {
			return nil, s.mapTableError(err)
		}
		return tables, nil
	}

	tables, err := s.tableRepo.FindAll(ctx, tablerepo.TableFilter{ActiveOnly: true})
	if err != nil {
		s.cfg.Log.Error("Failed to list tables", "error", err)
		return nil, apperrors.Internal("Failed to retrieve tables", err)
	}
	reservations, err := s.blockingReservations(ctx, at, buffer, nil)
	if err != nil {
		s.cfg.Log.Error("Failed to read reservations", "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}

	free := availability.Detect(availability.Candidate{At: at, Buffer: buffer, PartySize: req.PartySize}, tables, reservations)
	byID := make(map[string]*model.Table, len(tables))
	for _, t := range tables {
		byID[t.ID] = t
	}
	candidates := make([]*model.Table, 0, len(free.Tables))
	for _, ta := range free.Tables {
		candidates = append(candidates, byID[ta.TableID])
	}

	suggested, ok := s.allocator.Suggest(candidates, req.PartySize)
	if !ok {
		return nil, apperrors.Conflict("No tables are free for this party at the requested time")
	}
	return suggested, nil
}

func (s *reservationService) blockingReservations(ctx context.Context, at time.Time, buffer time.Duration, ids []string) ([]*model.Reservation, error) {
	from := at.Add(-buffer)
	to := at.Add(buffer)
	return s.repo.Find(ctx, repository.ReservationFilter{
		From:                    &from,
		To:                      &to,
		Statuses:                model.BlockingStatuses,
		TableIDs:                ids,
		IncludeLegacyAssignment: true,
	})
}

func (s *reservationService) verifyNoConflicts(ctx context.Context, ids []string, at time.Time, buffer time.Duration) error {
	existing, err := s.blockingReservations(ctx, at, buffer, ids)
	if err != nil {
		return apperrors.Internal("Failed to check table conflicts", err)
	}

	conflicts := availability.Conflicts(at, buffer, ids, existing, "")
	if len(conflicts) == 0 {
		return nil
	}

	loc := s.cfg.Loc()
	violations := make([]apperrors.Violation, 0, len(conflicts))
	for _, c := range conflicts {
		violations = append(violations, apperrors.Violation{
			Code:    CodeTableUnavailable,
			Message: fmt.Sprintf("table is already booked at %s", c.Time.In(loc).Format("15:04")),
			Fields: map[string]any{
				"tableId":       c.TableID,
				"reservationId": c.ReservationID,
			},
		})
	}
	return apperrors.ConflictWithViolations("Selected tables are not available at the requested time", violations)
}

// lockKeys names one lock per table and calendar day touched by the buffer
// window around at, in a fixed order so concurrent bookings acquire them
// consistently.
func lockKeys(ids []string, at time.Time, buffer time.Duration, loc *time.Location) []string {
	first := model.StartOfDay(at.Add(-buffer), loc)
	last := model.StartOfDay(at.Add(buffer), loc)

	var keys []string
	for _, id := range ids {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			keys = append(keys, fmt.Sprintf("reservation_lock_%s_%s", id, day.Format(model.DateLayout)))
		}
	}
	sort.Strings(keys)
	return keys
}

// acquireLocks takes every lock or none. The returned func releases what was
// taken, detached from ctx so a cancelled request still cleans up.
func (s *reservationService) acquireLocks(ctx context.Context, ids []string, at time.Time, buffer time.Duration) (func(), error) {
	owner := uuid.NewString()
	keys := lockKeys(ids, at, buffer, s.cfg.Loc())

	var held []string
	release := func() {
		releaseCtx := context.WithoutCancel(ctx)
		for _, key := range held {
			if err := s.lockRepo.Release(releaseCtx, key, owner); err != nil {
				s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", key, "error", err)
			}
		}
	}

	for _, key := range keys {
		if err := s.lockRepo.Acquire(ctx, key, owner, s.cfg.ReservationLockTTL); err != nil {
			release()
			if errors.Is(err, reservationerrors.ErrLockHeld) {
				return nil, apperrors.Conflict("These tables are being booked by another request. Please try again.")
			}
			s.cfg.Log.Error("Failed to acquire reservation lock", "lock_id", key, "error", err)
			return nil, apperrors.Internal("Failed to acquire reservation lock", err)
		}
		held = append(held, key)
	}
	return release, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapReservationError(err, id)
	}
	return reservation, nil
}

func (s *reservationService) List(ctx context.Context, date string, status model.ReservationStatus) ([]*model.Reservation, error) {
	if _, err := model.ParseDate(date, s.cfg.Loc()); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	filter := repository.ReservationFilter{Date: date}
	if status != "" {
		filter.Statuses = []model.ReservationStatus{status}
	}

	reservations, err := s.repo.Find(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list reservations", "date", date, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}
	return reservations, nil
}

func (s *reservationService) Availability(ctx context.Context, q *model.AvailabilityQuery) (*availability.Result, error) {
	if err := s.validator.Validate(q); err != nil {
		s.cfg.Log.Warn("Availability query validation failed", "error", err)
		return nil, apperrors.Validation("Availability query validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	day, hours, err := s.hours.ForDate(ctx, q.Date)
	if err != nil {
		return nil, err
	}
	at, err := s.candidateTime(day, hours, q.Time)
	if err != nil {
		return nil, err
	}

	buffer := hours.Buffer()
	if q.DurationMinutes != nil {
		buffer = time.Duration(*q.DurationMinutes) * time.Minute
	}

	tables, err := s.tableRepo.FindAll(ctx, tablerepo.TableFilter{Zone: q.Zone})
	if err != nil {
		s.cfg.Log.Error("Failed to list tables", "error", err)
		return nil, apperrors.Internal("Failed to retrieve tables", err)
	}
	reservations, err := s.blockingReservations(ctx, at, buffer, nil)
	if err != nil {
		s.cfg.Log.Error("Failed to read reservations", "date", q.Date, "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}

	result := availability.Detect(availability.Candidate{
		At:        at,
		Buffer:    buffer,
		PartySize: q.PartySize,
		Zone:      q.Zone,
	}, tables, reservations)
	result.Summary.RequestedDate = q.Date
	result.Summary.RequestedTime = q.Time
	return &result, nil
}

// candidateTime resolves a time label on day. A slot label wins so that times
// after midnight follow their shift; other times are taken literally.
func (s *reservationService) candidateTime(day time.Time, hours *model.BusinessHours, at string) (time.Time, error) {
	if daySlots, err := slots.Generate(day, day, hours); err == nil {
		for _, slot := range daySlots {
			if !slot.IsClosedMarker() && slot.Time == at {
				return slot.At, nil
			}
		}
	}

	minutes, err := model.ParseTimeOfDay(at)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(err.Error())
	}
	return model.At(day, minutes), nil
}

func (s *reservationService) CheckTableAddition(ctx context.Context, req *model.AllocationCheckRequest) (*allocation.Decision, error) {
	req.SelectedTableIDs = sanitizer.NormalizeIDs(req.SelectedTableIDs)
	req.CandidateTableID = strings.TrimSpace(req.CandidateTableID)
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.Validation("Allocation request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	tables, err := s.tableRepo.FindByIDs(ctx, append(append([]string{}, req.SelectedTableIDs...), req.CandidateTableID))
	if err != nil {
		return nil, s.mapTableError(err)
	}

	decision := s.allocator.CheckAdd(tables[:len(tables)-1], tables[len(tables)-1], req.PartySize)
	return &decision, nil
}

func (s *reservationService) ValidateSelection(ctx context.Context, req *model.AllocationValidateRequest) (*SelectionResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.Validation("Allocation request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	tables, err := s.tableRepo.FindByIDs(ctx, req.TableIDs)
	if err != nil {
		return nil, s.mapTableError(err)
	}

	violations := s.allocator.Validate(tables, req.PartySize)
	if violations == nil {
		violations = []apperrors.Violation{}
	}
	return &SelectionResult{
		Valid:         len(violations) == 0,
		TotalCapacity: model.TotalCapacity(tables),
		Violations:    violations,
	}, nil
}

func (s *reservationService) UpdateStatus(ctx context.Context, id string, req *model.ReservationStatusRequest) (*model.Reservation, error) {
	req.Reason = sanitizer.NormalizeNotes(req.Reason)
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.Validation("Status update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reservation.Status.CanTransitionTo(req.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("Reservation cannot move from %s to %s", reservation.Status, req.Status))
	}

	note := ""
	if req.Status == model.ReservationCancelled {
		note = "Cancelled by staff"
		if req.Reason != "" {
			note += ": " + req.Reason
		}
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateStatus(txCtx, id, reservation.Status, req.Status, note); err != nil {
			if errors.Is(err, reservationerrors.ErrStatusChanged) {
				return apperrors.Conflict("Reservation was modified concurrently, please reload it")
			}
			if errors.Is(err, reservationerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.Internal("Failed to update reservation status", err)
		}
		// Cancelled reservations keep no customer-facing token.
		if req.Status == model.ReservationCancelled {
			return s.tokens.Revoke(txCtx, id)
		}
		return nil
	})
	if err != nil {
		if rbErr, ok := mongotx.AsRollbackError(err); ok {
			s.cfg.Log.Error("Double fault updating reservation status",
				"id", id,
				"error", rbErr.Cause,
				"rollback_error", rbErr.RollbackErr,
			)
			return nil, apperrors.Internal("Failed to update reservation status", err)
		}
		s.cfg.Log.Error("Failed to update reservation status",
			"id", id,
			"from", reservation.Status,
			"to", req.Status,
			"error", err,
		)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to update reservation status", err)
	}

	s.cfg.Log.Info("Reservation status updated",
		"id", id,
		"from", reservation.Status,
		"to", req.Status,
	)

	reservation.Status = req.Status
	if note != "" {
		reservation.SpecialRequests = strings.TrimSpace(reservation.SpecialRequests + "\n" + note)
	}
	if req.Status == model.ReservationCancelled {
		notify.Dispatch(ctx, s.notifier, notify.ReservationEvent(notify.EventReservationCancelled, reservation, req.Reason, s.clock.Now()), s.cfg.NotifyTimeout, s.cfg.Log)
	}
	return reservation, nil
}

func (s *reservationService) sanitize(req *model.CreateReservationRequest) error {
	req.CustomerName = sanitizer.NormalizeName(req.CustomerName)
	req.CustomerEmail = sanitizer.NormalizeEmail(req.CustomerEmail)
	req.SpecialRequests = sanitizer.NormalizeNotes(req.SpecialRequests)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.TableIDs = sanitizer.NormalizeIDs(req.TableIDs)

	if raw := strings.TrimSpace(req.CustomerPhone); raw != "" {
		req.CustomerPhone = s.phones.Normalize(raw)
		if req.CustomerPhone == "" {
			return apperrors.Validation("Reservation validation failed", map[string]any{
				"error": fmt.Sprintf("customerPhone %q is not a valid phone number", raw),
			})
		}
	}

	for i := range req.PreOrderItems {
		req.PreOrderItems[i].Name = sanitizer.NormalizeName(req.PreOrderItems[i].Name)
		req.PreOrderItems[i].UnitPrice = model.RoundMoney(req.PreOrderItems[i].UnitPrice)
	}
	return nil
}

func (s *reservationService) validate(req *model.CreateReservationRequest) error {
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Reservation validation failed",
			"date", req.Date,
			"time", req.Time,
			"error", err,
		)
		return apperrors.Validation("Reservation validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	if req.CustomerEmail == "" && req.CustomerPhone == "" {
		return apperrors.Validation("Reservation validation failed", map[string]any{
			"error": "customerEmail or customerPhone is required",
		})
	}
	return nil
}

func (s *reservationService) mapReservationError(err error, id string) error {
	switch {
	case errors.Is(err, reservationerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, reservationerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	}
	s.cfg.Log.Error("Failed to get reservation", "id", id, "error", err)
	return apperrors.Internal("Failed to retrieve reservation", err)
}

func (s *reservationService) mapTableError(err error) error {
	switch {
	case errors.Is(err, tableerrors.ErrNotFound):
		return apperrors.Validation("Unknown table", map[string]any{"error": err.Error()})
	case errors.Is(err, tableerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid table ID format")
	}
	s.cfg.Log.Error("Failed to load tables", "error", err)
	return apperrors.Internal("Failed to retrieve tables", err)
}

func tableIDs(tables []*model.Table) []string {
	ids := make([]string, len(tables))
	for i, t := range tables {
		ids[i] = t.ID
	}
	return ids
}
