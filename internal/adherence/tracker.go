// Package adherence computes check-in adherence over a module's tracking days.
// Everything here is pure: inputs are never mutated.
package adherence

import (
	"errors"
	"fmt"
	"math"
	"time"

	"minutri/internal/model"
)

var (
	ErrDayOutOfRange = errors.New("day out of range")
	ErrUnknownField  = errors.New("unknown tracking field")
)

const day = 24 * time.Hour

// CalculateAdherence returns completedChecks / (len(days)*4) as a rounded
// percentage. An empty slice yields 0.
func CalculateAdherence(days []model.DayTracking) int {
	if len(days) == 0 {
		return 0
	}
	completed := 0
	for _, d := range days {
		completed += d.Completed()
	}
	possible := len(days) * model.ChecksPerDay
	return int(math.Round(float64(completed) * 100 / float64(possible)))
}

// CurrentDay returns the 1-based module day for now, clamped to [1, 30].
func CurrentDay(startDate, now time.Time) int {
	elapsed := now.Sub(startDate)
	d := int(math.Floor(float64(elapsed)/float64(day))) + 1
	if d < 1 {
		return 1
	}
	if d > model.ModuleDays {
		return model.ModuleDays
	}
	return d
}

// ProgressPercent maps the current day to 0..100.
func ProgressPercent(currentDay int) int {
	return int(math.Round(float64(currentDay) * 100 / float64(model.ModuleDays)))
}

// NewTracking builds a fresh 30-day tracking set with all flags false,
// dated consecutively from startDate.
func NewTracking(startDate time.Time) []model.DayTracking {
	days := make([]model.DayTracking, model.ModuleDays)
	for i := range days {
		days[i] = model.DayTracking{
			Day:  i + 1,
			Date: startDate.AddDate(0, 0, i),
		}
	}
	return days
}

// UpdateDay returns a copy of days with one field of one day replaced.
func UpdateDay(days []model.DayTracking, dayNumber int, field model.TrackingField, value bool) ([]model.DayTracking, error) {
	idx := -1
	for i := range days {
		if days[i].Day == dayNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", ErrDayOutOfRange, dayNumber)
	}
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	out := make([]model.DayTracking, len(days))
	copy(out, days)

	d := out[idx]
	switch field {
	case model.FieldBreakfast:
		d.Meals.Breakfast = value
	case model.FieldLunch:
		d.Meals.Lunch = value
	case model.FieldDinner:
		d.Meals.Dinner = value
	case model.FieldExercise:
		d.Exercise = value
	}
	out[idx] = d
	return out, nil
}
