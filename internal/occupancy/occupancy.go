// Package occupancy derives the live state of each table from its manual
// status and the day's reservations.
package occupancy

import (
	"sort"
	"time"

	"tablebook/pkg/model"
)

const (
	// ReservedLead is how long before a confirmed booking its tables count as reserved.
	ReservedLead = 30 * time.Minute
	// ReservedTail is how long after the booking time its tables stay reserved.
	ReservedTail = 150 * time.Minute
)

// Derive computes the status of one table at now. Only reservations dated
// today in loc are considered.
func Derive(table *model.Table, reservations []*model.Reservation, now time.Time, loc *time.Location) model.TableStatusView {
	view := model.TableStatusView{
		TableID:     table.ID,
		TableNumber: table.Number,
		Zone:        table.Zone,
		Capacity:    table.Capacity,
		Notes:       table.Notes,
	}

	if !table.IsActive {
		view.Status = model.TableTemporarilyClosed
		view.ClosedReason = table.Status
		return view
	}

	today := now.In(loc).Format(model.DateLayout)
	for _, r := range byTime(reservations) {
		if r.Date != today || !r.HasTable(table.ID) {
			continue
		}
		switch r.Status {
		case model.ReservationSeated:
			view.Status = model.TableOccupied
			view.ReservationID = r.ID
			return view
		case model.ReservationConfirmed:
			if inReservedWindow(r.Time, now) {
				view.Status = model.TableReserved
				view.ReservationID = r.ID
				return view
			}
		}
	}

	if manualHold(table, now) {
		view.Status = table.Status
		view.EstimatedFreeTime = table.EstimatedFreeTime
		return view
	}

	view.Status = model.TableAvailable
	return view
}

// DeriveAll derives every table's status in input order.
func DeriveAll(tables []*model.Table, reservations []*model.Reservation, now time.Time, loc *time.Location) []model.TableStatusView {
	views := make([]model.TableStatusView, 0, len(tables))
	for _, t := range tables {
		views = append(views, Derive(t, reservations, now, loc))
	}
	return views
}

func inReservedWindow(at, now time.Time) bool {
	return !now.Before(at.Add(-ReservedLead)) && !now.After(at.Add(ReservedTail))
}

// manualHold reports whether a walk-in override set by staff still applies.
func manualHold(table *model.Table, now time.Time) bool {
	if table.Status != model.TableOccupied && table.Status != model.TableReserved {
		return false
	}
	return table.EstimatedFreeTime == nil || now.Before(*table.EstimatedFreeTime)
}

func byTime(reservations []*model.Reservation) []*model.Reservation {
	sorted := make([]*model.Reservation, len(reservations))
	copy(sorted, reservations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return sorted
}
