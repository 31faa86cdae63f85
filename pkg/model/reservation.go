package model

import (
	"math"
	"slices"
	"time"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationSeated    ReservationStatus = "SEATED"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationNoShow    ReservationStatus = "NO_SHOW"
)

// BlockingStatuses hold a table against other bookings.
var BlockingStatuses = []ReservationStatus{ReservationPending, ReservationConfirmed, ReservationSeated}

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled, ReservationNoShow},
	ReservationConfirmed: {ReservationSeated, ReservationCancelled, ReservationNoShow},
	ReservationSeated:    {ReservationCompleted},
}

func (s ReservationStatus) Blocks() bool {
	return slices.Contains(BlockingStatuses, s)
}

// Cancellable reports whether a customer may still cancel or modify.
func (s ReservationStatus) Cancellable() bool {
	return s != ReservationCancelled && s != ReservationCompleted
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	return slices.Contains(reservationTransitions[s], next)
}

type Reservation struct {
	ID              string            `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerName    string            `json:"customerName" bson:"customer_name"`
	CustomerEmail   string            `json:"customerEmail,omitempty" bson:"customer_email,omitempty"`
	CustomerPhone   string            `json:"customerPhone,omitempty" bson:"customer_phone,omitempty"`
	PartySize       int               `json:"partySize" bson:"party_size"`
	Date            string            `json:"date" bson:"date"`
	Time            time.Time         `json:"time" bson:"time"`
	Status          ReservationStatus `json:"status" bson:"status"`
	TableIDs        []string          `json:"tableIds" bson:"table_ids"`
	SpecialRequests string            `json:"specialRequests,omitempty" bson:"special_requests,omitempty"`
	PreOrderItems   []PreOrderItem    `json:"preOrderItems,omitempty" bson:"pre_order_items,omitempty"`
	CreatedAt       time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" bson:"updated_at"`
}

func (r *Reservation) HasTable(tableID string) bool {
	return slices.Contains(r.TableIDs, tableID)
}

type PreOrderItem struct {
	MenuItemID string  `json:"menuItemId" bson:"menu_item_id" validate:"required,mongodb"`
	Name       string  `json:"name" bson:"name" validate:"required,max=120"`
	Quantity   int     `json:"quantity" bson:"quantity" validate:"min=1,max=50"`
	UnitPrice  float64 `json:"unitPrice" bson:"unit_price" validate:"min=0"`
}

func (p PreOrderItem) Total() float64 {
	return RoundMoney(p.UnitPrice * float64(p.Quantity))
}

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
