package model

import "time"

// BusinessHours is the operating window and booking parameters of one
// weekday. IsOpen governs the main (dinner) shift; the lunch shift is
// enabled when both lunch times are set.
type BusinessHours struct {
	ID                    string    `json:"id,omitempty" bson:"_id,omitempty"`
	DayOfWeek             int       `json:"dayOfWeek" bson:"day_of_week" validate:"min=0,max=6"`
	IsOpen                bool      `json:"isOpen" bson:"is_open"`
	OpenTime              string    `json:"openTime,omitempty" bson:"open_time,omitempty" validate:"required_if=IsOpen true,time_of_day"`
	CloseTime             string    `json:"closeTime,omitempty" bson:"close_time,omitempty" validate:"required_if=IsOpen true,time_of_day"`
	LunchOpenTime         string    `json:"lunchOpenTime,omitempty" bson:"lunch_open_time,omitempty" validate:"required_with=LunchCloseTime,time_of_day"`
	LunchCloseTime        string    `json:"lunchCloseTime,omitempty" bson:"lunch_close_time,omitempty" validate:"required_with=LunchOpenTime,time_of_day"`
	AdvanceBookingMinutes int       `json:"advanceBookingMinutes" bson:"advance_booking_minutes" validate:"min=0,max=10080"`
	SlotDurationMinutes   int       `json:"slotDurationMinutes" bson:"slot_duration_minutes" validate:"min=5,max=240"`
	BufferMinutes         int       `json:"bufferMinutes" bson:"buffer_minutes" validate:"min=0,max=720"`
	MaxPartySize          int       `json:"maxPartySize" bson:"max_party_size" validate:"min=1,max=100"`
	UpdatedAt             time.Time `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

func (h *BusinessHours) HasLunchShift() bool {
	return h.LunchOpenTime != "" && h.LunchCloseTime != ""
}

// IsClosed reports a day with no enabled shift at all.
func (h *BusinessHours) IsClosed() bool {
	return !h.IsOpen && !h.HasLunchShift()
}

func (h *BusinessHours) Weekday() time.Weekday {
	return time.Weekday(h.DayOfWeek)
}

func (h *BusinessHours) Buffer() time.Duration {
	return time.Duration(h.BufferMinutes) * time.Minute
}
