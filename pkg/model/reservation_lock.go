package model

import "time"

// ReservationLock is an advisory lock on one table for one service date. Its
// _id is unique, so a second insert of the same key fails until the holder
// deletes it or the TTL index removes it after ExpiresAt.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
