package slots

import (
	"testing"
	"time"

	"tablebook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rome = mustLoad("Europe/Rome")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func dinnerOnly() *model.BusinessHours {
	return &model.BusinessHours{
		DayOfWeek:             5,
		IsOpen:                true,
		OpenTime:              "18:00",
		CloseTime:             "23:00",
		SlotDurationMinutes:   15,
		AdvanceBookingMinutes: 30,
		BufferMinutes:         150,
		MaxPartySize:          12,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, rome)
}

func times(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

func TestGenerate_FirstAvailableRespectsAdvanceBooking(t *testing.T) {
	d := day(2026, 3, 13)
	now := time.Date(2026, 3, 13, 19, 0, 0, 0, rome)

	slots, err := Generate(d, now, dinnerOnly())
	require.NoError(t, err)

	first, ok := FirstAvailable(slots)
	require.True(t, ok)
	assert.Equal(t, "19:30", first.Time)

	s, ok := Find(slots, time.Date(2026, 3, 13, 19, 15, 0, 0, rome))
	require.True(t, ok)
	assert.False(t, s.Available)
	assert.Equal(t, ReasonAdvanceBooking, s.Reason)
}

func TestGenerate_TodayCutoffHoldsForEverySlot(t *testing.T) {
	d := day(2026, 3, 13)
	for _, now := range []time.Time{
		time.Date(2026, 3, 13, 8, 0, 0, 0, rome),
		time.Date(2026, 3, 13, 18, 7, 0, 0, rome),
		time.Date(2026, 3, 13, 21, 59, 0, 0, rome),
		time.Date(2026, 3, 13, 23, 30, 0, 0, rome),
	} {
		slots, err := Generate(d, now, dinnerOnly())
		require.NoError(t, err)

		cutoff := now.Add(30 * time.Minute)
		for _, s := range slots {
			assert.Equal(t, !s.At.Before(cutoff), s.Available, "slot %s at now=%s", s.Time, now.Format("15:04"))
		}
	}
}

func TestGenerate_LastSlotIsCloseMinusDuration(t *testing.T) {
	slots, err := Generate(day(2026, 3, 20), time.Date(2026, 3, 13, 12, 0, 0, 0, rome), dinnerOnly())
	require.NoError(t, err)

	require.Len(t, slots, 20)
	assert.Equal(t, "18:00", slots[0].Time)
	assert.Equal(t, "22:45", slots[len(slots)-1].Time)
	for _, s := range slots {
		assert.True(t, s.Available, "future dates are always time-available")
		assert.Equal(t, ShiftDinner, s.Shift)
	}
}

func TestGenerate_LunchAndDinnerAreGapped(t *testing.T) {
	hours := dinnerOnly()
	hours.LunchOpenTime = "12:00"
	hours.LunchCloseTime = "14:30"
	hours.OpenTime = "19:00"
	hours.SlotDurationMinutes = 30

	slots, err := Generate(day(2026, 3, 20), time.Date(2026, 3, 13, 12, 0, 0, 0, rome), hours)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"12:00", "12:30", "13:00", "13:30", "14:00",
		"19:00", "19:30", "20:00", "20:30", "21:00", "21:30", "22:00", "22:30",
	}, times(slots))
	assert.Equal(t, ShiftLunch, slots[4].Shift)
	assert.Equal(t, ShiftDinner, slots[5].Shift)
}

func TestGenerate_LunchOnlyDay(t *testing.T) {
	hours := dinnerOnly()
	hours.IsOpen = false
	hours.LunchOpenTime = "12:00"
	hours.LunchCloseTime = "13:00"

	slots, err := Generate(day(2026, 3, 20), time.Date(2026, 3, 13, 12, 0, 0, 0, rome), hours)
	require.NoError(t, err)
	assert.Equal(t, []string{"12:00", "12:15", "12:30", "12:45"}, times(slots))
}

func TestGenerate_ClosedDayYieldsMarker(t *testing.T) {
	hours := dinnerOnly()
	hours.IsOpen = false

	slots, err := Generate(day(2026, 3, 20), time.Date(2026, 3, 13, 12, 0, 0, 0, rome), hours)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].IsClosedMarker())
	assert.False(t, slots[0].Available)
	assert.Equal(t, ReasonClosed, slots[0].Reason)

	_, ok := FirstAvailable(slots)
	assert.False(t, ok)
}

func TestGenerate_PastDate(t *testing.T) {
	slots, err := Generate(day(2026, 3, 12), time.Date(2026, 3, 13, 9, 0, 0, 0, rome), dinnerOnly())
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.False(t, s.Available)
		assert.Equal(t, ReasonPastDate, s.Reason)
	}
}

func TestGenerate_ShiftPastMidnight(t *testing.T) {
	hours := dinnerOnly()
	hours.OpenTime = "22:00"
	hours.CloseTime = "01:00"
	hours.SlotDurationMinutes = 60

	slots, err := Generate(day(2026, 3, 20), time.Date(2026, 3, 13, 12, 0, 0, 0, rome), hours)
	require.NoError(t, err)
	require.Equal(t, []string{"22:00", "23:00", "00:00"}, times(slots))
	assert.Equal(t, time.Date(2026, 3, 21, 0, 0, 0, 0, rome), slots[2].At)
}

func TestGenerate_ShiftShorterThanSlot(t *testing.T) {
	hours := dinnerOnly()
	hours.OpenTime = "18:00"
	hours.CloseTime = "18:10"

	slots, err := Generate(day(2026, 3, 20), time.Date(2026, 3, 13, 12, 0, 0, 0, rome), hours)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerate_InvalidHours(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *model.BusinessHours)
	}{
		{name: "zero duration", mutate: func(h *model.BusinessHours) { h.SlotDurationMinutes = 0 }},
		{name: "malformed open", mutate: func(h *model.BusinessHours) { h.OpenTime = "6pm" }},
		{name: "overlapping shifts", mutate: func(h *model.BusinessHours) {
			h.LunchOpenTime = "12:00"
			h.LunchCloseTime = "19:00"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hours := dinnerOnly()
			tt.mutate(hours)
			_, err := Generate(day(2026, 3, 20), time.Date(2026, 3, 13, 12, 0, 0, 0, rome), hours)
			assert.ErrorIs(t, err, ErrInvalidHours)
		})
	}
}

func TestGenerate_Restartable(t *testing.T) {
	d := day(2026, 3, 13)
	now := time.Date(2026, 3, 13, 19, 0, 0, 0, rome)

	first, err := Generate(d, now, dinnerOnly())
	require.NoError(t, err)
	second, err := Generate(d, now, dinnerOnly())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
