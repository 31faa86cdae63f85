package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	reservationerrors "tablebook/internal/reservations/errors"
	reservationrepo "tablebook/internal/reservations/repository"
	tablerepo "tablebook/internal/tables/repository"
	tokenerrors "tablebook/internal/tokens/errors"
	"tablebook/internal/tokens/repository"
	"tablebook/pkg/clock"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
	"tablebook/pkg/notify"
	"tablebook/pkg/sanitizer"

	"github.com/google/uuid"
)

// ModificationCutoff is how close to the booking time a customer may still
// change or cancel it.
const ModificationCutoff = 2 * time.Hour

const maxReasonLength = 500

const (
	ErrorTypeNotFound = "not_found"
	ErrorTypeExpired  = "expired"
	ErrorTypeInvalid  = "invalid"
	ErrorTypeTooClose = "too_close"
	ErrorTypeNetwork  = "network"
)

type TableInfo struct {
	ID       string `json:"id"`
	Number   string `json:"number"`
	Zone     string `json:"zone"`
	Capacity int    `json:"capacity"`
}

type PreOrderLine struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	Total      float64 `json:"total"`
}

type ReservationView struct {
	ID              string                  `json:"id"`
	Date            string                  `json:"date"`
	Time            time.Time               `json:"time"`
	PartySize       int                     `json:"partySize"`
	Status          model.ReservationStatus `json:"status"`
	SpecialRequests string                  `json:"specialRequests,omitempty"`
	Tables          []TableInfo             `json:"tables"`
	PreOrderItems   []PreOrderLine          `json:"preOrderItems"`
	PreOrderTotal   float64                 `json:"preOrderTotal"`
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ValidationResult is the outcome of checking a customer's token. ErrorType
// is set when Valid is false.
type ValidationResult struct {
	Valid       bool             `json:"valid"`
	ErrorType   string           `json:"errorType,omitempty"`
	Message     string           `json:"message,omitempty"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
	Reservation *ReservationView `json:"reservation,omitempty"`
	Customer    *Customer        `json:"customer,omitempty"`
}

type TokenService interface {
	Issue(ctx context.Context, reservation *model.Reservation, now time.Time) (*model.ReservationToken, error)
	Validate(ctx context.Context, token string) (*ValidationResult, error)
	Cancel(ctx context.Context, token, reason string) error
	Revoke(ctx context.Context, reservationID string) error
	Reissue(ctx context.Context, reservationID string) (*model.ReservationToken, error)
}

type tokenService struct {
	repo            repository.TokenRepository
	reservationRepo reservationrepo.ReservationRepository
	tableRepo       tablerepo.TableRepository
	notifier        notify.Notifier
	clock           clock.Clock
	cfg             *config.Config
}

func NewTokenService(
	repo repository.TokenRepository,
	reservationRepo reservationrepo.ReservationRepository,
	tableRepo tablerepo.TableRepository,
	notifier notify.Notifier,
	clk clock.Clock,
	cfg *config.Config,
) TokenService {
	return &tokenService{
		repo:            repo,
		reservationRepo: reservationRepo,
		tableRepo:       tableRepo,
		notifier:        notifier,
		clock:           clk,
		cfg:             cfg,
	}
}

// Issue replaces every earlier token of the reservation with a new one. The
// token expires after the configured lifetime or at the booking time,
// whichever comes first. ctx may carry a transaction.
func (s *tokenService) Issue(ctx context.Context, reservation *model.Reservation, now time.Time) (*model.ReservationToken, error) {
	if _, err := s.repo.DeleteByReservation(ctx, reservation.ID); err != nil {
		s.cfg.Log.Error("Failed to revoke earlier reservation tokens",
			"reservation_id", reservation.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to issue reservation token", err)
	}

	expires := now.Add(s.cfg.TokenTTL)
	if reservation.Time.Before(expires) {
		expires = reservation.Time
	}

	token := &model.ReservationToken{
		Token:         newTokenValue(),
		ReservationID: reservation.ID,
		Expires:       expires.UTC(),
		IsActive:      true,
		IssuedBy:      "system",
		CreatedAt:     now.UTC(),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		s.cfg.Log.Error("Failed to store reservation token",
			"reservation_id", reservation.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to issue reservation token", err)
	}

	s.cfg.Log.Info("Reservation token issued",
		"reservation_id", reservation.ID,
		"expires", token.Expires,
	)
	return token, nil
}

func newTokenValue() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// check runs the token rules in order and returns the first failing error
// type, or "" when the token is usable.
func (s *tokenService) check(ctx context.Context, value string, now time.Time) (*model.ReservationToken, *model.Reservation, string, error) {
	token, err := s.repo.FindByToken(ctx, value)
	if err != nil {
		if errors.Is(err, tokenerrors.ErrNotFound) {
			return nil, nil, ErrorTypeNotFound, nil
		}
		return nil, nil, "", err
	}
	if now.After(token.Expires) {
		return token, nil, ErrorTypeExpired, nil
	}

	reservation, err := s.reservationRepo.FindByID(ctx, token.ReservationID)
	if err != nil {
		if errors.Is(err, reservationerrors.ErrNotFound) || errors.Is(err, reservationerrors.ErrInvalidID) {
			return token, nil, ErrorTypeInvalid, nil
		}
		return token, nil, "", err
	}
	if !reservation.Status.Cancellable() {
		return token, reservation, ErrorTypeInvalid, nil
	}

	if until := reservation.Time.Sub(now); until > 0 && until < ModificationCutoff {
		return token, reservation, ErrorTypeTooClose, nil
	}
	return token, reservation, "", nil
}

var errorMessages = map[string]string{
	ErrorTypeNotFound: "Reservation link not found",
	ErrorTypeExpired:  "Reservation link has expired",
	ErrorTypeInvalid:  "Reservation can no longer be modified",
	ErrorTypeTooClose: "Reservations cannot be changed less than 2 hours before the booking time",
	ErrorTypeNetwork:  "Reservation details are temporarily unavailable, please try again",
}

func (s *tokenService) Validate(ctx context.Context, value string) (*ValidationResult, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, apperrors.InvalidInput("Token cannot be empty")
	}

	token, reservation, errorType, err := s.check(ctx, value, s.clock.Now())
	if err != nil {
		s.cfg.Log.Error("Failed to validate reservation token", "error", err)
		errorType = ErrorTypeNetwork
	}
	if errorType != "" {
		return &ValidationResult{ErrorType: errorType, Message: errorMessages[errorType]}, nil
	}

	expires := token.Expires
	return &ValidationResult{
		Valid:       true,
		ExpiresAt:   &expires,
		Reservation: s.view(ctx, reservation),
		Customer: &Customer{
			Name:  reservation.CustomerName,
			Email: reservation.CustomerEmail,
			Phone: reservation.CustomerPhone,
		},
	}, nil
}

func (s *tokenService) view(ctx context.Context, r *model.Reservation) *ReservationView {
	v := &ReservationView{
		ID:              r.ID,
		Date:            r.Date,
		Time:            r.Time,
		PartySize:       r.PartySize,
		Status:          r.Status,
		SpecialRequests: r.SpecialRequests,
		Tables:          []TableInfo{},
		PreOrderItems:   make([]PreOrderLine, 0, len(r.PreOrderItems)),
	}

	for _, item := range r.PreOrderItems {
		line := PreOrderLine{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Total:      item.Total(),
		}
		v.PreOrderItems = append(v.PreOrderItems, line)
		v.PreOrderTotal += line.Total
	}
	v.PreOrderTotal = model.RoundMoney(v.PreOrderTotal)

	if len(r.TableIDs) > 0 {
		tables, err := s.tableRepo.FindByIDs(ctx, r.TableIDs)
		if err != nil {
			s.cfg.Log.Warn("Failed to resolve reservation tables",
				"reservation_id", r.ID,
				"table_ids", r.TableIDs,
				"error", err,
			)
			return v
		}
		for _, t := range tables {
			v.Tables = append(v.Tables, TableInfo{ID: t.ID, Number: t.Number, Zone: t.Zone, Capacity: t.Capacity})
		}
	}
	return v
}

func (s *tokenService) Cancel(ctx context.Context, value, reason string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return apperrors.InvalidInput("Token cannot be empty")
	}
	reason = sanitizer.NormalizeNotes(reason)
	if len(reason) > maxReasonLength {
		return apperrors.InvalidInput(fmt.Sprintf("Reason must be at most %d characters", maxReasonLength))
	}

	now := s.clock.Now()
	_, reservation, errorType, err := s.check(ctx, value, now)
	if err != nil {
		s.cfg.Log.Error("Failed to check reservation token", "error", err)
		return apperrors.Unavailable("Reservation lookup")
	}
	switch errorType {
	case ErrorTypeNotFound:
		return apperrors.NotFound("Reservation token")
	case ErrorTypeExpired:
		return apperrors.Expired(errorMessages[errorType])
	case ErrorTypeInvalid:
		return apperrors.Conflict(errorMessages[errorType])
	case ErrorTypeTooClose:
		return apperrors.TooClose(errorMessages[errorType])
	}
	if !reservation.Status.CanTransitionTo(model.ReservationCancelled) {
		return apperrors.Conflict(fmt.Sprintf("A %s reservation cannot be cancelled", strings.ToLower(string(reservation.Status))))
	}

	note := "Cancelled by customer"
	if reason != "" {
		note += ": " + reason
	}

	err = s.reservationRepo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.reservationRepo.UpdateStatus(txCtx, reservation.ID, reservation.Status, model.ReservationCancelled, note); err != nil {
			if errors.Is(err, reservationerrors.ErrStatusChanged) {
				return apperrors.Conflict("Reservation was modified concurrently, please reload it")
			}
			return apperrors.Internal("Failed to cancel reservation", err)
		}
		return s.Revoke(txCtx, reservation.ID)
	})
	if err != nil {
		if rbErr, ok := mongotx.AsRollbackError(err); ok {
			s.cfg.Log.Error("Double fault cancelling reservation",
				"reservation_id", reservation.ID,
				"error", rbErr.Cause,
				"rollback_error", rbErr.RollbackErr,
			)
			return apperrors.Internal("Failed to cancel reservation", err)
		}
		s.cfg.Log.Error("Failed to cancel reservation",
			"reservation_id", reservation.ID,
			"error", err,
		)
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("Failed to cancel reservation", err)
	}

	s.cfg.Log.Info("Reservation cancelled by customer",
		"reservation_id", reservation.ID,
		"previous_status", reservation.Status,
	)

	reservation.Status = model.ReservationCancelled
	notify.Dispatch(ctx, s.notifier, notify.ReservationEvent(notify.EventReservationCancelled, reservation, reason, now), s.cfg.NotifyTimeout, s.cfg.Log)
	return nil
}

// Revoke deletes every token of the reservation. ctx may carry a transaction.
func (s *tokenService) Revoke(ctx context.Context, reservationID string) error {
	n, err := s.repo.DeleteByReservation(ctx, reservationID)
	if err != nil {
		s.cfg.Log.Error("Failed to revoke reservation tokens",
			"reservation_id", reservationID,
			"error", err,
		)
		return apperrors.Internal("Failed to revoke reservation tokens", err)
	}
	if n > 0 {
		s.cfg.Log.Debug("Reservation tokens revoked", "reservation_id", reservationID, "count", n)
	}
	return nil
}

func (s *tokenService) Reissue(ctx context.Context, reservationID string) (*model.ReservationToken, error) {
	if reservationID == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", reservationID)
		}
		if errors.Is(err, reservationerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		s.cfg.Log.Error("Failed to get reservation for token reissue",
			"reservation_id", reservationID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}
	if !reservation.Status.Cancellable() {
		return nil, apperrors.Conflict(errorMessages[ErrorTypeInvalid])
	}

	now := s.clock.Now()
	var token *model.ReservationToken
	err = s.reservationRepo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var issueErr error
		token, issueErr = s.Issue(txCtx, reservation, now)
		return issueErr
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to reissue reservation token", err)
	}
	return token, nil
}
