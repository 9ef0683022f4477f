package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minutri/internal/model"
	"minutri/internal/nutrition"
)

func TestFallbackMeal_RotatesAndScales(t *testing.T) {
	targets := nutrition.DailyTargets(testProfile)

	a := FallbackMeal(nutrition.Lunch, 1, targets, testProfile)
	b := FallbackMeal(nutrition.Lunch, 1+len(lunchTable), targets, testProfile)
	c := FallbackMeal(nutrition.Lunch, 2, targets, testProfile)

	assert.Equal(t, a.Name, b.Name)
	assert.NotEqual(t, a.Name, c.Name)
	assert.Equal(t, targets.ForMeal(nutrition.Lunch), a.Nutrition)
	assert.Equal(t, model.SourceFallback, a.Source)
	assert.NotEmpty(t, a.Preparation)
}

func TestFallbackMeal_SkipsAllergens(t *testing.T) {
	targets := nutrition.DailyTargets(testProfile)
	p := testProfile
	p.Allergies = []string{"egg"}

	for day := 1; day <= 10; day++ {
		m := FallbackMeal(nutrition.Breakfast, day, targets, p)
		for _, ing := range m.Ingredients {
			assert.NotContains(t, ing, "Egg", "day %d", day)
		}
	}
}

func TestFallbackMeal_AllTemplatesExcludedStillReturnsMeal(t *testing.T) {
	p := testProfile
	p.Allergies = []string{"o", "a", "e"}
	m := FallbackMeal(nutrition.Dinner, 3, nutrition.DailyTargets(p), p)
	assert.Equal(t, dinnerTable[3].name, m.Name)
}

func TestFallbackExercise_WeeklyRotation(t *testing.T) {
	names := map[string]bool{}
	for day := 0; day < 7; day++ {
		ex := FallbackExercise(day, testProfile)
		names[ex.Name] = true
		assert.Equal(t, weeklyExercises[day].duration, ex.DurationMinutes)
		assert.Equal(t, FallbackExercise(day+7, testProfile), ex)
	}
	assert.Len(t, names, 7)
}

func TestFallbackExercise_AgeBrackets(t *testing.T) {
	senior := testProfile
	senior.Age = 65
	teen := testProfile
	teen.Age = 15

	base := FallbackExercise(0, testProfile) // strength, 40 min
	old := FallbackExercise(0, senior)
	young := FallbackExercise(0, teen)

	assert.Equal(t, 40, base.DurationMinutes)
	assert.Equal(t, 32, old.DurationMinutes)
	assert.Equal(t, 36, young.DurationMinutes)

	assert.Equal(t, weeklyExercises[0].lowImpact, old.Instructions)
	assert.Equal(t, weeklyExercises[0].instructions, young.Instructions)
	assert.Contains(t, young.Recommendations, "Exercise under adult supervision")
	assert.Len(t, old.Recommendations, len(base.Recommendations)+1)
}

func TestFallbackExercise_DoesNotShareTableSlices(t *testing.T) {
	ex := FallbackExercise(1, testProfile)
	ex.Instructions[0] = "mutated"
	assert.NotEqual(t, "mutated", weeklyExercises[1].instructions[0])
}

func TestTemplatePreparation_NeverEmpty(t *testing.T) {
	assert.NotEmpty(t, TemplatePreparation("", nil))
	assert.Contains(t, TemplatePreparation("Soup", []string{"Leek"}), "Leek")
}

func TestTips(t *testing.T) {
	for _, g := range model.Goals {
		tips := Tips(g, 4)
		require.Len(t, tips, 2)
		assert.NotEqual(t, tips[0], tips[1])
	}
	assert.NotEmpty(t, Tips(model.Goal("unknown"), 1))
}
