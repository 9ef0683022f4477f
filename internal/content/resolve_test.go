package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minutri/internal/model"
	"minutri/internal/nutrition"
)

func TestSplitDay(t *testing.T) {
	ok := SplitDay(Ok(menuDay(1)))
	require.NoError(t, ok.Breakfast.Err)
	require.NoError(t, ok.Lunch.Err)
	require.NoError(t, ok.Dinner.Err)

	bad := menuDay(1)
	bad.Meals.Lunch.Ingredients = []string{" ", ""}
	split := SplitDay(Ok(bad))
	assert.ErrorIs(t, split.Breakfast.Err, ErrIncomplete)
	assert.ErrorIs(t, split.Dinner.Err, ErrIncomplete)

	boom := errors.New("boom")
	split = SplitDay(Fail[MenuDay](boom))
	assert.ErrorIs(t, split.Lunch.Err, boom)
}

func TestResolveMeal_BackfillsNutrition(t *testing.T) {
	targets := nutrition.DailyTargets(testProfile)
	m := *menuMeal(3, "dinner")
	m.Nutrition = &model.Nutrition{Calories: 610}
	m.Description = ""

	meal := ResolveMeal(Ok(m), nutrition.Dinner, 3, targets, testProfile)

	want := targets.ForMeal(nutrition.Dinner)
	assert.Equal(t, model.SourceAI, meal.Source)
	assert.Equal(t, 610.0, meal.Nutrition.Calories)
	assert.Equal(t, want.Protein, meal.Nutrition.Protein)
	assert.Equal(t, want.Carbs, meal.Nutrition.Carbs)
	assert.Equal(t, want.Fat, meal.Nutrition.Fat)
	assert.NotEmpty(t, meal.Description)
}

func TestResolveMeal_ErrorIsFallback(t *testing.T) {
	targets := nutrition.DailyTargets(testProfile)
	meal := ResolveMeal(Fail[MenuMeal](ErrUnconfigured), nutrition.Breakfast, 5, targets, testProfile)
	assert.Equal(t, FallbackMeal(nutrition.Breakfast, 5, targets, testProfile), meal)
}

func TestResolveExercise(t *testing.T) {
	ex, err := ParseExercise(exerciseJSON)
	require.NoError(t, err)
	assert.Equal(t, ex, ResolveExercise(Ok(ex), 4, testProfile))
	assert.Equal(t, FallbackExercise(4, testProfile), ResolveExercise(Fail[model.Exercise](ErrIncomplete), 4, testProfile))
}

func TestParseExercise(t *testing.T) {
	ex, err := ParseExercise(exerciseJSON)
	require.NoError(t, err)
	assert.Equal(t, "Park run", ex.Name)
	assert.Equal(t, model.ExerciseCardio, ex.Type)
	assert.Equal(t, 25, ex.DurationMinutes)
	assert.Equal(t, model.SourceAI, ex.Source)

	for _, in := range []string{
		"",
		"not json at all",
		`{"name":"","type":"cardio","durationMinutes":10,"instructions":["a"]}`,
		`{"name":"Run","type":"cardio","durationMinutes":0,"instructions":["a"]}`,
		`{"name":"Run","type":"cardio","durationMinutes":10,"instructions":[]}`,
		`{"name":"Run","type":"cardio","durationMinutes":"ten"}`,
	} {
		_, err := ParseExercise(in)
		assert.Error(t, err, in)
	}
}

func TestShoppingList_ExactDedup(t *testing.T) {
	meals := model.DayMeals{
		Breakfast: model.Meal{Ingredients: []string{"Eggs", "Spinach"}},
		Lunch:     model.Meal{Ingredients: []string{"eggs", "Spinach", "Rice"}},
		Dinner:    model.Meal{Ingredients: []string{"Rice", "Salmon"}},
	}
	assert.Equal(t, []string{"Eggs", "Spinach", "eggs", "Rice", "Salmon"}, ShoppingList(meals))
}
