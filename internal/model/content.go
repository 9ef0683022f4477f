package model

import "time"

// Source marks whether content came from the AI backend or the fallback tables.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type Meal struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Ingredients []string  `json:"ingredients"`
	Preparation string    `json:"preparation"`
	Nutrition   Nutrition `json:"nutrition"`
	Source      Source    `json:"source"`
}

type DayMeals struct {
	Breakfast Meal `json:"breakfast"`
	Lunch     Meal `json:"lunch"`
	Dinner    Meal `json:"dinner"`
}

// All returns the meals in breakfast, lunch, dinner order.
func (m DayMeals) All() []Meal {
	return []Meal{m.Breakfast, m.Lunch, m.Dinner}
}

type ExerciseType string

const (
	ExerciseCardio      ExerciseType = "cardio"
	ExerciseStrength    ExerciseType = "strength"
	ExerciseFlexibility ExerciseType = "flexibility"
	ExerciseMixed       ExerciseType = "mixed"
)

func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseCardio, ExerciseStrength, ExerciseFlexibility, ExerciseMixed:
		return true
	}
	return false
}

type Exercise struct {
	Name            string       `json:"name"`
	Type            ExerciseType `json:"type"`
	DurationMinutes int          `json:"duration_minutes"`
	Description     string       `json:"description"`
	Instructions    []string     `json:"instructions"`
	Equipment       []string     `json:"equipment"`
	Recommendations []string     `json:"recommendations"`
	Source          Source       `json:"source"`
}

// DailyContent is the generated plan for one module day. It is never edited
// after generation.
type DailyContent struct {
	DayNumber    int       `json:"day_number"`
	Date         time.Time `json:"date"`
	Meals        DayMeals  `json:"meals"`
	Exercise     Exercise  `json:"exercise"`
	Tips         []string  `json:"tips"`
	ShoppingList []string  `json:"shopping_list"`
}
