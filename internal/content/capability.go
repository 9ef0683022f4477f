package content

import (
	"context"
	"encoding/json"
	"fmt"

	"minutri/internal/model"
)

// TextGenerator is the free-text AI capability used for exercises and
// recipe instructions.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// MenuGenerator is the batched weekly-menu AI capability.
type MenuGenerator interface {
	GenerateWeeklyMenu(ctx context.Context, req WeeklyMenuRequest) (*WeeklyMenuResponse, error)
}

type NutritionGoals struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
}

// WeeklyMenuRequest asks for up to seven consecutive day menus.
type WeeklyMenuRequest struct {
	NutritionGoals     NutritionGoals      `json:"nutritionGoals"`
	TotalCalories      float64             `json:"totalCalories"`
	DietaryPreferences []string            `json:"dietaryPreferences"`
	Allergies          []string            `json:"allergies"`
	Weight             float64             `json:"weight,omitempty"`
	Height             float64             `json:"height,omitempty"`
	Age                int                 `json:"age,omitempty"`
	Gender             model.Gender        `json:"gender,omitempty"`
	ActivityLevel      model.ActivityLevel `json:"activityLevel,omitempty"`
	Goal               model.Goal          `json:"goal,omitempty"`
	StartDay           int                 `json:"startDay"`
	Days               int                 `json:"days"`
}

// MenuMeal is one AI-proposed meal. Every field may be missing.
type MenuMeal struct {
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Ingredients  []string         `json:"ingredients"`
	Instructions string           `json:"instructions"`
	Nutrition    *model.Nutrition `json:"nutrition,omitempty"`
}

type MenuMeals struct {
	Breakfast *MenuMeal `json:"breakfast"`
	Lunch     *MenuMeal `json:"lunch"`
	Dinner    *MenuMeal `json:"dinner"`
}

type MenuDay struct {
	Meals MenuMeals `json:"meals"`

	// DecodeErr is set when this day could not be decoded. Other days of
	// the same response are unaffected.
	DecodeErr error `json:"-"`
}

type WeeklyMenuResponse struct {
	Success    bool      `json:"success"`
	WeeklyMenu []MenuDay `json:"weeklyMenu"`
}

// UnmarshalJSON decodes each day on its own, so one malformed day does not
// discard the rest of the week.
func (r *WeeklyMenuResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success    bool              `json:"success"`
		WeeklyMenu []json.RawMessage `json:"weeklyMenu"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Success = raw.Success
	r.WeeklyMenu = make([]MenuDay, len(raw.WeeklyMenu))
	for i, day := range raw.WeeklyMenu {
		if err := json.Unmarshal(day, &r.WeeklyMenu[i]); err != nil {
			r.WeeklyMenu[i] = MenuDay{DecodeErr: fmt.Errorf("day %d: %w", i+1, err)}
		}
	}
	return nil
}
