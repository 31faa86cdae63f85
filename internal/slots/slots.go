// Package slots turns a day's business hours into the ordered list of
// bookable reservation times.
package slots

import (
	"errors"
	"fmt"
	"time"

	"tablebook/pkg/model"
)

type Shift string

const (
	ShiftLunch  Shift = "lunch"
	ShiftDinner Shift = "dinner"
	ShiftClosed Shift = "closed"
)

const (
	ReasonAdvanceBooking = "requires advance booking"
	ReasonPastDate       = "date in the past"
	ReasonClosed         = "closed"
)

const minutesPerDay = 24 * 60

var ErrInvalidHours = errors.New("invalid business hours")

type Slot struct {
	Time      string    `json:"time"`
	At        time.Time `json:"at"`
	Shift     Shift     `json:"shift"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
}

// IsClosedMarker reports the single entry returned for a closed day.
func (s Slot) IsClosedMarker() bool {
	return s.Shift == ShiftClosed
}

type window struct {
	shift Shift
	open  int
	close int
}

// Generate lists the slots of day (midnight in the restaurant's location) as
// seen at instant now. A closed day yields exactly one closed marker, so an
// empty result always means the shifts are too short for a single slot.
func Generate(day time.Time, now time.Time, hours *model.BusinessHours) ([]Slot, error) {
	if hours == nil {
		return nil, fmt.Errorf("%w: no hours for %s", ErrInvalidHours, day.Format(model.DateLayout))
	}
	if hours.IsClosed() {
		return []Slot{{
			At:     day,
			Shift:  ShiftClosed,
			Reason: ReasonClosed,
		}}, nil
	}
	if hours.SlotDurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive, got %d", ErrInvalidHours, hours.SlotDurationMinutes)
	}

	windows, err := shiftWindows(hours)
	if err != nil {
		return nil, err
	}

	today := model.StartOfDay(now, day.Location())
	cutoff := now.Add(time.Duration(hours.AdvanceBookingMinutes) * time.Minute)
	past := day.Before(today)
	isToday := day.Equal(today)

	var out []Slot
	for _, w := range windows {
		last := w.close - hours.SlotDurationMinutes
		for m := w.open; m <= last; m += hours.SlotDurationMinutes {
			at := model.At(day, m)
			slot := Slot{
				Time:      model.FormatTimeOfDay(m),
				At:        at,
				Shift:     w.shift,
				Available: true,
			}
			switch {
			case past:
				slot.Available = false
				slot.Reason = ReasonPastDate
			case isToday && at.Before(cutoff):
				slot.Available = false
				slot.Reason = ReasonAdvanceBooking
			}
			out = append(out, slot)
		}
	}
	return out, nil
}

func shiftWindows(hours *model.BusinessHours) ([]window, error) {
	var windows []window

	if hours.HasLunchShift() {
		w, err := parseWindow(ShiftLunch, hours.LunchOpenTime, hours.LunchCloseTime)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}

	if hours.IsOpen {
		w, err := parseWindow(ShiftDinner, hours.OpenTime, hours.CloseTime)
		if err != nil {
			return nil, err
		}
		if len(windows) == 1 && windows[0].close > w.open {
			return nil, fmt.Errorf("%w: lunch shift ends at %s after dinner opens at %s",
				ErrInvalidHours, hours.LunchCloseTime, hours.OpenTime)
		}
		windows = append(windows, w)
	}

	return windows, nil
}

// parseWindow reads a shift. A close time at or before the open time means
// the shift runs past midnight.
func parseWindow(shift Shift, openStr, closeStr string) (window, error) {
	open, err := model.ParseTimeOfDay(openStr)
	if err != nil {
		return window{}, fmt.Errorf("%w: %s open: %v", ErrInvalidHours, shift, err)
	}
	closing, err := model.ParseTimeOfDay(closeStr)
	if err != nil {
		return window{}, fmt.Errorf("%w: %s close: %v", ErrInvalidHours, shift, err)
	}
	if closing <= open {
		closing += minutesPerDay
	}
	return window{shift: shift, open: open, close: closing}, nil
}

// Find returns the slot starting exactly at at.
func Find(slots []Slot, at time.Time) (Slot, bool) {
	for _, s := range slots {
		if !s.IsClosedMarker() && s.At.Equal(at) {
			return s, true
		}
	}
	return Slot{}, false
}

// FirstAvailable returns the earliest bookable slot.
func FirstAvailable(slots []Slot) (Slot, bool) {
	for _, s := range slots {
		if s.Available {
			return s, true
		}
	}
	return Slot{}, false
}
