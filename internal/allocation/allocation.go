// Package allocation decides whether a set of tables can seat a party.
// Everything here is a pure function of its inputs.
package allocation

import (
	"fmt"

	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
)

// CapacityBuffer is the number of spare seats an allocation may carry.
const CapacityBuffer = 2

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	CodeEnoughSeats      = "already_enough_seats"
	CodeTableTooLarge    = "table_too_large"
	CodeExceedsCapacity  = "exceeds_maximum_capacity"
	CodeBelowPartySize   = "below_party_size"
	CodeExtraCapacity    = "extra_capacity"
	CodeDifferentArea    = "different_area"
	CodeInactiveTable    = "inactive_table"
	CodeDuplicateTable   = "duplicate_table"
	CodeNoTables         = "no_tables"
	CodeInvalidPartySize = "invalid_party_size"
)

// Decision is the outcome of adding one table to a selection.
type Decision struct {
	Accepted      bool   `json:"accepted"`
	Level         Level  `json:"level,omitempty"`
	Code          string `json:"code,omitempty"`
	Message       string `json:"message,omitempty"`
	TotalCapacity int    `json:"totalCapacity"`
}

type Options struct {
	ContiguityCheck bool
	SubZones        []SubZoneRange
}

type Allocator struct {
	contiguity bool
	subZones   []SubZoneRange
}

func New(opts Options) *Allocator {
	subZones := opts.SubZones
	if subZones == nil {
		subZones = DefaultSubZones
	}
	return &Allocator{contiguity: opts.ContiguityCheck, subZones: subZones}
}

func (a *Allocator) SubZone(t *model.Table) string {
	return resolveSubZone(a.subZones, t)
}

func maxCapacity(partySize int) int {
	return partySize + CapacityBuffer
}

// CheckAdd evaluates adding candidate to the tables already selected. A
// candidate that is already part of the selection is refused.
func (a *Allocator) CheckAdd(selected []*model.Table, candidate *model.Table, partySize int) Decision {
	current := model.TotalCapacity(selected)
	total := current + candidate.Capacity

	for _, t := range selected {
		if t.ID == candidate.ID {
			return Decision{
				Level:         LevelError,
				Code:          CodeDuplicateTable,
				Message:       fmt.Sprintf("table %s is already selected", candidate.Number),
				TotalCapacity: current,
			}
		}
	}

	switch {
	case current >= partySize:
		return Decision{Level: LevelInfo, Code: CodeEnoughSeats, Message: "already enough seats", TotalCapacity: current}
	case len(selected) == 0 && candidate.Capacity > maxCapacity(partySize):
		return Decision{Level: LevelError, Code: CodeTableTooLarge, Message: "table too large for this party", TotalCapacity: current}
	case total > maxCapacity(partySize):
		return Decision{Level: LevelError, Code: CodeExceedsCapacity, Message: "exceeds maximum capacity", TotalCapacity: current}
	case a.contiguity && len(selected) > 0 && a.SubZone(selected[0]) != a.SubZone(candidate):
		return Decision{Level: LevelError, Code: CodeDifferentArea, Message: "must be in the same area", TotalCapacity: current}
	}

	d := Decision{Accepted: true, TotalCapacity: total}
	if candidate.Capacity > partySize {
		d.Level = LevelWarning
		d.Code = CodeExtraCapacity
		d.Message = "extra capacity"
	}
	return d
}

// Validate checks a final selection and returns every violation found.
func (a *Allocator) Validate(selected []*model.Table, partySize int) []apperrors.Violation {
	var violations []apperrors.Violation

	if partySize <= 0 {
		return append(violations, apperrors.Violation{
			Code:    CodeInvalidPartySize,
			Message: "party size must be positive",
			Fields:  map[string]any{"partySize": partySize},
		})
	}
	if len(selected) == 0 {
		return append(violations, apperrors.Violation{Code: CodeNoTables, Message: "no tables selected"})
	}

	seen := make(map[string]bool, len(selected))
	var unique []*model.Table
	for _, t := range selected {
		if seen[t.ID] {
			violations = append(violations, apperrors.Violation{
				Code:    CodeDuplicateTable,
				Message: fmt.Sprintf("table %s selected more than once", t.Number),
				Fields:  map[string]any{"tableId": t.ID},
			})
			continue
		}
		seen[t.ID] = true
		unique = append(unique, t)

		if !t.IsActive {
			violations = append(violations, apperrors.Violation{
				Code:    CodeInactiveTable,
				Message: fmt.Sprintf("table %s is closed", t.Number),
				Fields:  map[string]any{"tableId": t.ID},
			})
		}
	}

	total := model.TotalCapacity(unique)
	if total < partySize {
		violations = append(violations, apperrors.Violation{
			Code:    CodeBelowPartySize,
			Message: fmt.Sprintf("selected tables seat %d, party needs %d", total, partySize),
			Fields:  map[string]any{"bound": "min", "limit": partySize, "totalCapacity": total},
		})
	}
	if total > maxCapacity(partySize) {
		violations = append(violations, apperrors.Violation{
			Code:    CodeExceedsCapacity,
			Message: fmt.Sprintf("selected tables seat %d, maximum for this party is %d", total, maxCapacity(partySize)),
			Fields:  map[string]any{"bound": "max", "limit": maxCapacity(partySize), "totalCapacity": total},
		})
	}

	if a.contiguity && len(unique) > 1 {
		area := a.SubZone(unique[0])
		for _, t := range unique[1:] {
			if a.SubZone(t) != area {
				violations = append(violations, apperrors.Violation{
					Code:    CodeDifferentArea,
					Message: "must be in the same area",
					Fields:  map[string]any{"tableId": t.ID, "area": a.SubZone(t), "expectedArea": area},
				})
			}
		}
	}

	return violations
}

// Suggest picks tables for a party that named none: the smallest single
// table that fits, else the pair in one sub-zone with the fewest spare seats.
// Ties go to the earlier tables in available.
func (a *Allocator) Suggest(available []*model.Table, partySize int) ([]*model.Table, bool) {
	if partySize <= 0 {
		return nil, false
	}
	limit := maxCapacity(partySize)

	var best *model.Table
	for _, t := range available {
		if !t.IsActive || t.Capacity < partySize || t.Capacity > limit {
			continue
		}
		if best == nil || t.Capacity < best.Capacity {
			best = t
		}
	}
	if best != nil {
		return []*model.Table{best}, true
	}

	var pair []*model.Table
	bestTotal := limit + 1
	for i := 0; i < len(available); i++ {
		first := available[i]
		if !first.IsActive {
			continue
		}
		for j := i + 1; j < len(available); j++ {
			second := available[j]
			if !second.IsActive || a.SubZone(first) != a.SubZone(second) {
				continue
			}
			total := first.Capacity + second.Capacity
			if total >= partySize && total <= limit && total < bestTotal {
				pair = []*model.Table{first, second}
				bestTotal = total
			}
		}
	}
	return pair, pair != nil
}
