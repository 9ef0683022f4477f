package content

import (
	"fmt"
	"strings"

	"minutri/internal/model"
	"minutri/internal/nutrition"
	"minutri/pkg/jsonx"
)

func validateMenuMeal(m *MenuMeal) error {
	if m == nil {
		return fmt.Errorf("%w: meal missing", ErrIncomplete)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: meal name missing", ErrIncomplete)
	}
	if len(nonEmpty(m.Ingredients)) == 0 {
		return fmt.Errorf("%w: ingredients missing for %q", ErrIncomplete, m.Name)
	}
	return nil
}

// DayResults is the per-slot outcome of one menu day.
type DayResults struct {
	Breakfast Result[MenuMeal]
	Lunch     Result[MenuMeal]
	Dinner    Result[MenuMeal]
}

func (d DayResults) For(slot nutrition.MealSlot) Result[MenuMeal] {
	switch slot {
	case nutrition.Breakfast:
		return d.Breakfast
	case nutrition.Lunch:
		return d.Lunch
	case nutrition.Dinner:
		return d.Dinner
	}
	return Fail[MenuMeal](fmt.Errorf("%w: unknown slot %q", ErrIncomplete, slot))
}

// SplitDay validates one menu day. A day is used only when all three meals
// are usable; otherwise the whole day falls back.
func SplitDay(r Result[MenuDay]) DayResults {
	if r.Err != nil {
		return DayResults{Breakfast: Fail[MenuMeal](r.Err), Lunch: Fail[MenuMeal](r.Err), Dinner: Fail[MenuMeal](r.Err)}
	}
	meals := r.Value.Meals
	for _, m := range []*MenuMeal{meals.Breakfast, meals.Lunch, meals.Dinner} {
		if err := validateMenuMeal(m); err != nil {
			return DayResults{Breakfast: Fail[MenuMeal](err), Lunch: Fail[MenuMeal](err), Dinner: Fail[MenuMeal](err)}
		}
	}
	return DayResults{
		Breakfast: Ok(*meals.Breakfast),
		Lunch:     Ok(*meals.Lunch),
		Dinner:    Ok(*meals.Dinner),
	}
}

// ResolveMeal maps a meal result onto content: AI data with backfilled
// nutrition when usable, the rotation table otherwise.
func ResolveMeal(r Result[MenuMeal], slot nutrition.MealSlot, day int, targets nutrition.Targets, profile model.UserProfile) model.Meal {
	if r.Err != nil || validateMenuMeal(&r.Value) != nil {
		return FallbackMeal(slot, day, targets, profile)
	}
	m := r.Value
	ingredients := nonEmpty(m.Ingredients)
	meal := model.Meal{
		Name:        strings.TrimSpace(m.Name),
		Description: strings.TrimSpace(m.Description),
		Ingredients: ingredients,
		Preparation: strings.TrimSpace(m.Instructions),
		Nutrition:   backfillNutrition(m.Nutrition, targets.ForMeal(slot)),
		Source:      model.SourceAI,
	}
	if meal.Description == "" {
		meal.Description = fmt.Sprintf("%s with %s", meal.Name, strings.Join(ingredients, ", "))
	}
	if meal.Preparation == "" {
		meal.Preparation = TemplatePreparation(meal.Name, ingredients)
	}
	return meal
}

func backfillNutrition(n *model.Nutrition, target model.Nutrition) model.Nutrition {
	if n == nil {
		return target
	}
	out := *n
	if out.Calories <= 0 {
		out.Calories = target.Calories
	}
	if out.Protein <= 0 {
		out.Protein = target.Protein
	}
	if out.Carbs <= 0 {
		out.Carbs = target.Carbs
	}
	if out.Fat <= 0 {
		out.Fat = target.Fat
	}
	return out
}

type exercisePayload struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	DurationMinutes int      `json:"durationMinutes"`
	Description     string   `json:"description"`
	Instructions    []string `json:"instructions"`
	Equipment       []string `json:"equipment"`
	Recommendations []string `json:"recommendations"`
}

// ParseExercise decodes the model's exercise answer, fenced or not.
func ParseExercise(text string) (model.Exercise, error) {
	var p exercisePayload
	if err := jsonx.Decode(text, &p); err != nil {
		return model.Exercise{}, err
	}
	kind := model.ExerciseType(strings.ToLower(strings.TrimSpace(p.Type)))
	switch {
	case strings.TrimSpace(p.Name) == "":
		return model.Exercise{}, fmt.Errorf("%w: exercise name missing", ErrIncomplete)
	case !kind.Valid():
		return model.Exercise{}, fmt.Errorf("%w: exercise type %q", ErrIncomplete, p.Type)
	case p.DurationMinutes <= 0:
		return model.Exercise{}, fmt.Errorf("%w: duration %d", ErrIncomplete, p.DurationMinutes)
	case len(nonEmpty(p.Instructions)) == 0:
		return model.Exercise{}, fmt.Errorf("%w: instructions missing", ErrIncomplete)
	}
	return model.Exercise{
		Name:            strings.TrimSpace(p.Name),
		Type:            kind,
		DurationMinutes: p.DurationMinutes,
		Description:     strings.TrimSpace(p.Description),
		Instructions:    nonEmpty(p.Instructions),
		Equipment:       nonEmpty(p.Equipment),
		Recommendations: nonEmpty(p.Recommendations),
		Source:          model.SourceAI,
	}, nil
}

// ResolveExercise returns the AI exercise or the rotation fallback.
func ResolveExercise(r Result[model.Exercise], day int, profile model.UserProfile) model.Exercise {
	if r.Err != nil {
		return FallbackExercise(day, profile)
	}
	return r.Value
}

// ShoppingList is the union of the day's ingredients, deduplicated by exact
// string match. "Eggs" and "eggs" are kept as two entries.
func ShoppingList(meals model.DayMeals) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range meals.All() {
		for _, ing := range m.Ingredients {
			if _, ok := seen[ing]; ok {
				continue
			}
			seen[ing] = struct{}{}
			out = append(out, ing)
		}
	}
	return out
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
