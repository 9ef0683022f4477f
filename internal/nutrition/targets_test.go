package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"minutri/internal/model"
)

func TestBMR_MifflinStJeor(t *testing.T) {
	male := model.UserProfile{Age: 30, WeightKg: 80, HeightCm: 175, Gender: model.GenderMale}
	assert.InDelta(t, 1724.75, BMR(male), 1e-9)

	female := male
	female.Gender = model.GenderFemale
	assert.InDelta(t, 1724.75-166, BMR(female), 1e-9)
}

func TestBMR_IncompleteProfile(t *testing.T) {
	assert.Equal(t, DefaultBMR, BMR(model.UserProfile{}))
	assert.Equal(t, DefaultBMR, BMR(model.UserProfile{WeightKg: 70, HeightCm: 170}))
	assert.Equal(t, DefaultBMR, BMR(model.UserProfile{Age: 30, WeightKg: 80, HeightCm: 175}), "no gender")
	assert.Equal(t, DefaultBMR, BMR(model.UserProfile{Age: 30, WeightKg: 80, HeightCm: 175, Gender: model.Gender("other")}))
}

func TestDailyTargets_WeightLossExample(t *testing.T) {
	p := model.UserProfile{
		Age: 30, WeightKg: 80, HeightCm: 175,
		Gender:        model.GenderMale,
		ActivityLevel: model.ActivityModerate,
		Goal:          model.GoalWeightLoss,
	}
	tg := DailyTargets(p)

	assert.InDelta(t, 2673, tg.TDEE, 1)
	assert.InDelta(t, 2173, tg.Calories, 1)
	assert.Equal(t, 2173.0, tg.Macros.Calories)
	// 30% protein, 25% fat, 45% carbs
	assert.InDelta(t, 2173*0.30/4, tg.Macros.Protein, 1)
	assert.InDelta(t, 2173*0.45/4, tg.Macros.Carbs, 1)
	assert.InDelta(t, 2173*0.25/9, tg.Macros.Fat, 1)
}

func TestActivityFactor_UnknownIsModerate(t *testing.T) {
	assert.Equal(t, 1.55, ActivityFactor(""))
	assert.Equal(t, 1.2, ActivityFactor(model.ActivitySedentary))
	assert.Equal(t, 1.9, ActivityFactor(model.ActivityVeryActive))
}

func TestGoalTables(t *testing.T) {
	assert.Equal(t, -500.0, CalorieAdjustment(model.GoalWeightLoss))
	assert.Equal(t, 300.0, CalorieAdjustment(model.GoalWeightGain))
	assert.Equal(t, 300.0, CalorieAdjustment(model.GoalMuscleGain))
	assert.Equal(t, 0.0, CalorieAdjustment(model.GoalMaintenance))

	assert.Equal(t, 0.30, ProteinRatio(model.GoalWeightLoss))
	assert.Equal(t, 0.35, ProteinRatio(model.GoalMuscleGain))
	assert.Equal(t, 0.25, ProteinRatio(model.GoalWeightGain))
	assert.Equal(t, 0.25, ProteinRatio(model.GoalMaintenance))
}

func TestForMeal_Split(t *testing.T) {
	tg := Targets{Macros: model.Nutrition{Calories: 2000, Protein: 150, Carbs: 200, Fat: 60}}

	b := tg.ForMeal(Breakfast)
	l := tg.ForMeal(Lunch)
	d := tg.ForMeal(Dinner)

	assert.Equal(t, 500.0, b.Calories)
	assert.Equal(t, 700.0, l.Calories)
	assert.Equal(t, 600.0, d.Calories)
	// 10% stays unallocated for snacks
	assert.Equal(t, 1800.0, b.Calories+l.Calories+d.Calories)
}
