package nutrition

import (
	"math"

	"minutri/internal/model"
)

// DefaultBMR is used when weight, height or age is missing.
const DefaultBMR = 2000.0

const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0

	fatRatio = 0.25
)

// Meal-level calorie split. The remaining 10% is reserved for snacks and not
// modelled separately.
const (
	BreakfastShare = 0.25
	LunchShare     = 0.35
	DinnerShare    = 0.30
)

type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
)

var MealSlots = []MealSlot{Breakfast, Lunch, Dinner}

func (s MealSlot) Share() float64 {
	switch s {
	case Breakfast:
		return BreakfastShare
	case Lunch:
		return LunchShare
	case Dinner:
		return DinnerShare
	}
	return 0
}

// Targets are the daily goals the content pipeline generates against.
type Targets struct {
	BMR      float64         `json:"bmr"`
	TDEE     float64         `json:"tdee"`
	Calories float64         `json:"calories"`
	Macros   model.Nutrition `json:"macros"`
	Fiber    float64         `json:"fiber"`
}

// BMR uses Mifflin-St Jeor. Incomplete profiles, including ones without a
// male or female gender, get DefaultBMR.
func BMR(p model.UserProfile) float64 {
	if p.WeightKg <= 0 || p.HeightCm <= 0 || p.Age <= 0 {
		return DefaultBMR
	}
	base := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	switch p.Gender {
	case model.GenderMale:
		return base + 5
	case model.GenderFemale:
		return base - 161
	}
	return DefaultBMR
}

// ActivityFactor returns the TDEE multiplier; unknown levels count as moderate.
func ActivityFactor(level model.ActivityLevel) float64 {
	switch level {
	case model.ActivitySedentary:
		return 1.2
	case model.ActivityLight:
		return 1.375
	case model.ActivityModerate:
		return 1.55
	case model.ActivityActive:
		return 1.725
	case model.ActivityVeryActive:
		return 1.9
	}
	return 1.55
}

// CalorieAdjustment is the daily kcal delta applied to TDEE per goal.
func CalorieAdjustment(goal model.Goal) float64 {
	switch goal {
	case model.GoalWeightLoss:
		return -500
	case model.GoalWeightGain, model.GoalMuscleGain:
		return 300
	case model.GoalMaintenance:
		return 0
	}
	return 0
}

// ProteinRatio is the share of calories from protein per goal.
func ProteinRatio(goal model.Goal) float64 {
	switch goal {
	case model.GoalWeightLoss:
		return 0.30
	case model.GoalMuscleGain:
		return 0.35
	case model.GoalWeightGain, model.GoalMaintenance:
		return 0.25
	}
	return 0.25
}

// Macros splits a calorie budget into grams of protein, carbs and fat.
func Macros(calories float64, goal model.Goal) model.Nutrition {
	pr := ProteinRatio(goal)
	carbRatio := 1 - pr - fatRatio
	return model.Nutrition{
		Calories: round(calories),
		Protein:  round(calories * pr / kcalPerGramProtein),
		Carbs:    round(calories * carbRatio / kcalPerGramCarbs),
		Fat:      round(calories * fatRatio / kcalPerGramFat),
	}
}

// DailyTargets computes BMR -> TDEE -> goal-adjusted calories and macros.
func DailyTargets(p model.UserProfile) Targets {
	bmr := BMR(p)
	tdee := bmr * ActivityFactor(p.ActivityLevel)
	calories := tdee + CalorieAdjustment(p.Goal)
	return Targets{
		BMR:      bmr,
		TDEE:     tdee,
		Calories: calories,
		Macros:   Macros(calories, p.Goal),
		Fiber:    round(calories / 1000 * 14),
	}
}

// ForMeal scales the daily macros to one meal slot.
func (t Targets) ForMeal(slot MealSlot) model.Nutrition {
	share := slot.Share()
	return model.Nutrition{
		Calories: round(t.Macros.Calories * share),
		Protein:  round(t.Macros.Protein * share),
		Carbs:    round(t.Macros.Carbs * share),
		Fat:      round(t.Macros.Fat * share),
	}
}

func round(v float64) float64 {
	return math.Round(v)
}
