package model

import "time"

type MealChecks struct {
	Breakfast bool `json:"breakfast"`
	Lunch     bool `json:"lunch"`
	Dinner    bool `json:"dinner"`
}

// DayTracking holds the user's check-ins for one day of a module.
type DayTracking struct {
	Day      int        `json:"day"`
	Date     time.Time  `json:"date"`
	Meals    MealChecks `json:"meals"`
	Exercise bool       `json:"exercise"`
}

// TrackingField names one check-in box.
type TrackingField string

const (
	FieldBreakfast TrackingField = "breakfast"
	FieldLunch     TrackingField = "lunch"
	FieldDinner    TrackingField = "dinner"
	FieldExercise  TrackingField = "exercise"
)

func (f TrackingField) Valid() bool {
	switch f {
	case FieldBreakfast, FieldLunch, FieldDinner, FieldExercise:
		return true
	}
	return false
}

// Completed counts the checked boxes of the day.
func (d DayTracking) Completed() int {
	n := 0
	for _, b := range []bool{d.Meals.Breakfast, d.Meals.Lunch, d.Meals.Dinner, d.Exercise} {
		if b {
			n++
		}
	}
	return n
}
