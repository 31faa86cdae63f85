package service

import (
	"context"
	"errors"
	"time"

	"tablebook/internal/occupancy"
	reservationrepo "tablebook/internal/reservations/repository"
	tableerrors "tablebook/internal/tables/errors"
	"tablebook/internal/tables/repository"
	"tablebook/internal/tables/validator"
	"tablebook/pkg/clock"
	"tablebook/pkg/config"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"
)

type TableService interface {
	ListStatus(ctx context.Context, zone string) ([]model.TableStatusView, error)
	GetStatus(ctx context.Context, id string) (*model.TableStatusView, error)
	PatchStatus(ctx context.Context, patch *model.TableStatusPatch) (*model.TableStatusView, error)
	Delete(ctx context.Context, id string) error
}

type tableService struct {
	repo            repository.TableRepository
	reservationRepo reservationrepo.ReservationRepository
	validator       *validator.TableValidator
	clock           clock.Clock
	cfg             *config.Config
}

func NewTableService(
	repo repository.TableRepository,
	reservationRepo reservationrepo.ReservationRepository,
	validator *validator.TableValidator,
	clk clock.Clock,
	cfg *config.Config,
) TableService {
	return &tableService{
		repo:            repo,
		reservationRepo: reservationRepo,
		validator:       validator,
		clock:           clk,
		cfg:             cfg,
	}
}

func (s *tableService) ListStatus(ctx context.Context, zone string) ([]model.TableStatusView, error) {
	now := s.clock.Now()

	tables, err := s.repo.FindAll(ctx, repository.TableFilter{Zone: zone})
	if err != nil {
		s.cfg.Log.Error("Failed to list tables", "zone", zone, "error", err)
		return nil, apperrors.Internal("Failed to retrieve tables", err)
	}

	reservations, err := s.todaysReservations(ctx, now, nil)
	if err != nil {
		return nil, err
	}

	return occupancy.DeriveAll(tables, reservations, now, s.cfg.Loc()), nil
}

func (s *tableService) GetStatus(ctx context.Context, id string) (*model.TableStatusView, error) {
	now := s.clock.Now()

	table, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.derive(ctx, table, now)
}

func (s *tableService) PatchStatus(ctx context.Context, patch *model.TableStatusPatch) (*model.TableStatusView, error) {
	now := s.clock.Now()

	if err := s.validator.ValidatePatch(patch); err != nil {
		s.cfg.Log.Warn("Table status validation failed", "table_id", patch.TableID, "error", err)
		return nil, apperrors.Validation("Table status validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	table, err := s.find(ctx, patch.TableID)
	if err != nil {
		return nil, err
	}

	if !table.IsActive && patch.Status != model.TableAvailable {
		s.cfg.Log.Warn("Rejected status change on inactive table",
			"table_id", table.ID,
			"current_status", table.Status,
			"requested_status", patch.Status,
		)
		return nil, apperrors.Conflict("Table is inactive, set it to available to reactivate it first")
	}

	update := statusUpdate(table, patch)
	if err := s.repo.UpdateStatus(ctx, table.ID, update); err != nil {
		s.cfg.Log.Error("Failed to update table status",
			"table_id", table.ID,
			"status", patch.Status,
			"error", err,
		)
		return nil, s.mapError(err, table.ID)
	}

	s.cfg.Log.Info("Table status updated",
		"table_id", table.ID,
		"number", table.Number,
		"status", patch.Status,
		"is_active", update.IsActive,
	)

	table.IsActive = update.IsActive
	table.Status = update.Status
	table.Notes = update.Notes
	table.EstimatedFreeTime = update.EstimatedFreeTime
	return s.derive(ctx, table, now)
}

// statusUpdate turns a staff request into stored fields. Closing a table
// deactivates it; available clears any manual hold.
func statusUpdate(table *model.Table, patch *model.TableStatusPatch) model.TableStatusUpdate {
	update := model.TableStatusUpdate{
		IsActive: true,
		Status:   patch.Status,
		Notes:    table.Notes,
	}
	if patch.Notes != nil {
		update.Notes = sanitizer.NormalizeNotes(*patch.Notes)
	}

	switch patch.Status {
	case model.TableMaintenance, model.TableTemporarilyClosed:
		update.IsActive = false
	case model.TableOccupied, model.TableReserved:
		update.EstimatedFreeTime = patch.EstimatedFreeTime
	case model.TableAvailable:
		update.Status = ""
	}
	return update
}

func (s *tableService) Delete(ctx context.Context, id string) error {
	now := s.clock.Now()

	table, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	view, err := s.derive(ctx, table, now)
	if err != nil {
		return err
	}
	if view.Status == model.TableOccupied || view.Status == model.TableReserved {
		return apperrors.Conflict("Table is " + string(view.Status) + " and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.cfg.Log.Error("Failed to delete table", "table_id", id, "error", err)
		return s.mapError(err, id)
	}

	s.cfg.Log.Info("Table deleted successfully", "table_id", id, "number", table.Number)
	return nil
}

func (s *tableService) derive(ctx context.Context, table *model.Table, now time.Time) (*model.TableStatusView, error) {
	reservations, err := s.todaysReservations(ctx, now, []string{table.ID})
	if err != nil {
		return nil, err
	}
	view := occupancy.Derive(table, reservations, now, s.cfg.Loc())
	return &view, nil
}

// todaysReservations reads only the current tableIds assignment. The legacy
// single-table field is left to conflict detection.
func (s *tableService) todaysReservations(ctx context.Context, now time.Time, tableIDs []string) ([]*model.Reservation, error) {
	reservations, err := s.reservationRepo.Find(ctx, reservationrepo.ReservationFilter{
		Date:                    now.In(s.cfg.Loc()).Format(model.DateLayout),
		Statuses:                []model.ReservationStatus{model.ReservationConfirmed, model.ReservationSeated},
		TableIDs:                tableIDs,
		IncludeLegacyAssignment: false,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to read today's reservations", "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}
	return reservations, nil
}

func (s *tableService) find(ctx context.Context, id string) (*model.Table, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Table ID cannot be empty")
	}

	table, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return table, nil
}

func (s *tableService) mapError(err error, id string) error {
	switch {
	case errors.Is(err, tableerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Table", id)
	case errors.Is(err, tableerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid table ID format")
	}
	s.cfg.Log.Error("Table repository failure", "table_id", id, "error", err)
	return apperrors.Internal("Failed to access table", err)
}
