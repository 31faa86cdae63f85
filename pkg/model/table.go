package model

import "time"

type TableStatus string

const (
	TableAvailable         TableStatus = "available"
	TableReserved          TableStatus = "reserved"
	TableOccupied          TableStatus = "occupied"
	TableMaintenance       TableStatus = "maintenance"
	TableTemporarilyClosed TableStatus = "temporarily_closed"
)

const (
	ZoneIndoor  = "indoor"
	ZoneOutdoor = "outdoor"
	ZoneTerrace = "terrace"
	ZoneBar     = "bar"
	ZonePrivate = "private"
)

type Table struct {
	ID                string         `json:"id,omitempty" bson:"_id,omitempty"`
	Number            string         `json:"number" bson:"number" validate:"required,max=10"`
	Capacity          int            `json:"capacity" bson:"capacity" validate:"min=1,max=30"`
	Zone              string         `json:"zone" bson:"zone" validate:"required,table_zone"`
	IsActive          bool           `json:"isActive" bson:"is_active"`
	Position          *TablePosition `json:"position,omitempty" bson:"position,omitempty"`
	Status            TableStatus    `json:"status,omitempty" bson:"status,omitempty"`
	Notes             string         `json:"notes,omitempty" bson:"notes,omitempty"`
	EstimatedFreeTime *time.Time     `json:"estimatedFreeTime,omitempty" bson:"estimated_free_time,omitempty"`
	UpdatedAt         time.Time      `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

type TablePosition struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// TableStatusView is the derived operational state of one table.
type TableStatusView struct {
	TableID           string      `json:"tableId"`
	TableNumber       string      `json:"tableNumber"`
	Zone              string      `json:"zone"`
	Capacity          int         `json:"capacity"`
	Status            TableStatus `json:"status"`
	ClosedReason      TableStatus `json:"closedReason,omitempty"`
	ReservationID     string      `json:"reservationId,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	EstimatedFreeTime *time.Time  `json:"estimatedFreeTime,omitempty"`
}

// TableStatusPatch is a manual status change requested by floor staff.
type TableStatusPatch struct {
	TableID           string      `json:"tableId" validate:"required,mongodb"`
	Status            TableStatus `json:"status" validate:"required,oneof=available reserved occupied maintenance temporarily_closed"`
	Notes             *string     `json:"notes,omitempty" validate:"omitempty,max=500"`
	EstimatedFreeTime *time.Time  `json:"estimatedFreeTime,omitempty"`
}

// TableStatusUpdate is the persisted part of a patch.
type TableStatusUpdate struct {
	IsActive          bool
	Status            TableStatus
	Notes             string
	EstimatedFreeTime *time.Time
}

func TotalCapacity(tables []*Table) int {
	total := 0
	for _, t := range tables {
		total += t.Capacity
	}
	return total
}
