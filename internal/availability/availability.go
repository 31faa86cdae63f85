// Package availability computes which tables are free at a candidate time
// given the reservations already holding them.
package availability

import (
	"sort"
	"time"

	"tablebook/pkg/model"
)

type Candidate struct {
	At        time.Time
	Buffer    time.Duration
	PartySize int
	Zone      string
}

type TableAvailability struct {
	TableID     string `json:"tableId"`
	TableNumber string `json:"tableNumber"`
	Zone        string `json:"zone"`
	Capacity    int    `json:"capacity"`
	Available   bool   `json:"available"`
}

type Summary struct {
	TotalTables        int    `json:"totalTables"`
	AvailableTables    int    `json:"availableTables"`
	RequestedDate      string `json:"requestedDate"`
	RequestedTime      string `json:"requestedTime"`
	RequestedPartySize int    `json:"requestedPartySize"`
}

type Result struct {
	Tables  []TableAvailability `json:"tables"`
	Summary Summary             `json:"summary"`
}

// Conflict is one reservation holding a requested table too close to the
// candidate time.
type Conflict struct {
	TableID       string    `json:"tableId"`
	ReservationID string    `json:"reservationId"`
	Time          time.Time `json:"time"`
}

// Blocked returns the ids of every table held by a blocking reservation less
// than buffer away from at. Reservations without tables block nothing.
func Blocked(at time.Time, buffer time.Duration, reservations []*model.Reservation) map[string]struct{} {
	blocked := make(map[string]struct{})
	for _, r := range reservations {
		if !blocks(r, at, buffer) {
			continue
		}
		for _, id := range r.TableIDs {
			blocked[id] = struct{}{}
		}
	}
	return blocked
}

// Detect lists the active tables, optionally limited to one zone, that no
// reservation blocks at the candidate time. Input order is preserved.
func Detect(c Candidate, tables []*model.Table, reservations []*model.Reservation) Result {
	blocked := Blocked(c.At, c.Buffer, reservations)

	out := Result{Tables: []TableAvailability{}}
	for _, t := range tables {
		if !t.IsActive || (c.Zone != "" && t.Zone != c.Zone) {
			continue
		}
		out.Summary.TotalTables++
		if _, ok := blocked[t.ID]; ok {
			continue
		}
		out.Tables = append(out.Tables, TableAvailability{
			TableID:     t.ID,
			TableNumber: t.Number,
			Zone:        t.Zone,
			Capacity:    t.Capacity,
			Available:   true,
		})
	}

	loc := c.At.Location()
	out.Summary.AvailableTables = len(out.Tables)
	out.Summary.RequestedDate = c.At.In(loc).Format(model.DateLayout)
	out.Summary.RequestedTime = c.At.In(loc).Format("15:04")
	out.Summary.RequestedPartySize = c.PartySize
	return out
}

// Conflicts reports every (table, reservation) pair that prevents tableIDs
// from being booked at at. excludeID skips the reservation being rebooked.
func Conflicts(at time.Time, buffer time.Duration, tableIDs []string, reservations []*model.Reservation, excludeID string) []Conflict {
	wanted := make(map[string]struct{}, len(tableIDs))
	for _, id := range tableIDs {
		wanted[id] = struct{}{}
	}

	var out []Conflict
	for _, r := range reservations {
		if r.ID == excludeID || !blocks(r, at, buffer) {
			continue
		}
		for _, id := range r.TableIDs {
			if _, ok := wanted[id]; ok {
				out = append(out, Conflict{TableID: id, ReservationID: r.ID, Time: r.Time})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TableID < out[j].TableID })
	return out
}

func blocks(r *model.Reservation, at time.Time, buffer time.Duration) bool {
	if !r.Status.Blocks() || len(r.TableIDs) == 0 {
		return false
	}
	delta := at.Sub(r.Time)
	if delta < 0 {
		delta = -delta
	}
	return delta < buffer
}
