package model

import "time"

type ReservationToken struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	Token         string    `json:"token" bson:"token"`
	ReservationID string    `json:"reservationId" bson:"reservation_id"`
	Expires       time.Time `json:"expires" bson:"expires"`
	IsActive      bool      `json:"isActive" bson:"is_active"`
	IssuedBy      string    `json:"issuedBy,omitempty" bson:"issued_by,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}
