package model

// CreateReservationRequest is a booking as submitted by a customer or host.
// Date and Time are in the restaurant's time zone. Without TableIDs the
// tables are chosen automatically. At least one of email and phone is
// required.
type CreateReservationRequest struct {
	CustomerName    string         `json:"customerName" validate:"required,min=2,max=120"`
	CustomerEmail   string         `json:"customerEmail,omitempty" validate:"omitempty,email,max=254"`
	CustomerPhone   string         `json:"customerPhone,omitempty" validate:"omitempty,e164"`
	PartySize       int            `json:"partySize" validate:"min=1,max=100"`
	Date            string         `json:"date" validate:"required,civil_date"`
	Time            string         `json:"time" validate:"required,time_of_day"`
	TableIDs        []string       `json:"tableIds,omitempty" validate:"omitempty,max=6,dive,mongodb"`
	SpecialRequests string         `json:"specialRequests,omitempty" validate:"max=1000"`
	PreOrderItems   []PreOrderItem `json:"preOrderItems,omitempty" validate:"omitempty,max=30,dive"`
}

type ReservationStatusRequest struct {
	Status ReservationStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED SEATED COMPLETED CANCELLED NO_SHOW"`
	Reason string            `json:"reason,omitempty" validate:"max=500"`
}

// AvailabilityQuery asks which tables are free at one time. DurationMinutes,
// when set, replaces the day's buffer.
type AvailabilityQuery struct {
	Date            string `validate:"required,civil_date"`
	Time            string `validate:"required,time_of_day"`
	PartySize       int    `validate:"min=1,max=100"`
	DurationMinutes *int   `validate:"omitempty,min=15,max=720"`
	Zone            string `validate:"omitempty,table_zone"`
}

// AllocationCheckRequest asks whether CandidateTableID can join the tables
// already selected for a party.
type AllocationCheckRequest struct {
	PartySize        int      `json:"partySize" validate:"min=1,max=100"`
	SelectedTableIDs []string `json:"selectedTableIds" validate:"max=6,dive,mongodb"`
	CandidateTableID string   `json:"candidateTableId" validate:"required,mongodb"`
}

type AllocationValidateRequest struct {
	PartySize int      `json:"partySize" validate:"min=1,max=100"`
	TableIDs  []string `json:"tableIds" validate:"required,min=1,max=6,dive,mongodb"`
}
