package content

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minutri/internal/model"
	"minutri/internal/nutrition"
)

var (
	moduleStart = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	testModule  = model.Module{ID: 2, StartDate: moduleStart, EndDate: moduleStart.AddDate(0, 0, 30), Status: model.ModuleActive, TargetAdherence: 85}
	testProfile = model.UserProfile{
		Age: 30, WeightKg: 80, HeightCm: 175,
		Gender:        model.GenderMale,
		ActivityLevel: model.ActivityModerate,
		Goal:          model.GoalWeightLoss,
	}
)

func requireComplete(t *testing.T, days []model.DailyContent) {
	t.Helper()
	require.Len(t, days, model.ModuleDays)
	for i, d := range days {
		assert.Equal(t, i+1, d.DayNumber)
		assert.Equal(t, moduleStart.AddDate(0, 0, i), d.Date)
		for _, m := range d.Meals.All() {
			assert.NotEmpty(t, m.Name, "day %d", d.DayNumber)
			assert.NotEmpty(t, m.Ingredients, "day %d", d.DayNumber)
			assert.NotEmpty(t, strings.TrimSpace(m.Preparation), "day %d", d.DayNumber)
			assert.Positive(t, m.Nutrition.Calories, "day %d", d.DayNumber)
			assert.NotEmpty(t, m.Source)
		}
		assert.NotEmpty(t, d.Exercise.Name)
		assert.True(t, d.Exercise.Type.Valid())
		assert.Positive(t, d.Exercise.DurationMinutes)
		assert.NotEmpty(t, d.Exercise.Instructions)
		assert.NotEmpty(t, d.Tips)
		assert.NotEmpty(t, d.ShoppingList)
	}
}

func TestGenerate_AllCallsFail(t *testing.T) {
	boom := errors.New("backend down")
	menu := &MockMenuGenerator{GenerateFunc: func(context.Context, WeeklyMenuRequest) (*WeeklyMenuResponse, error) {
		return nil, boom
	}}
	text := &MockTextGenerator{GenerateFunc: func(context.Context, string) (string, error) {
		return "", boom
	}}

	days := NewPipeline(menu, text, Options{}, nil).Generate(context.Background(), testModule, testProfile, nil)

	requireComplete(t, days)
	assert.Len(t, menu.Calls, BatchedWeeks)
	assert.Equal(t, model.ModuleDays, text.count(exerciseMarker))
	for _, d := range days {
		for _, m := range d.Meals.All() {
			assert.Equal(t, model.SourceFallback, m.Source)
		}
		assert.Equal(t, model.SourceFallback, d.Exercise.Source)
	}
}

func TestGenerate_Unconfigured(t *testing.T) {
	days := NewPipeline(nil, nil, Options{}, nil).Generate(context.Background(), testModule, testProfile, nil)
	requireComplete(t, days)
	assert.Equal(t, FallbackMeal(nutrition.Breakfast, 1, nutrition.DailyTargets(testProfile), testProfile).Name, days[0].Meals.Breakfast.Name)
}

func TestGenerate_BatchesByWeek(t *testing.T) {
	menu := &MockMenuGenerator{GenerateFunc: func(_ context.Context, req WeeklyMenuRequest) (*WeeklyMenuResponse, error) {
		return fullWeek(req), nil
	}}
	text := &MockTextGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, exerciseMarker) {
			return exerciseJSON, nil
		}
		return "1. Mix. 2. Serve.", nil
	}}

	days := NewPipeline(menu, text, Options{}, nil).Generate(context.Background(), testModule, testProfile, nil)
	requireComplete(t, days)

	require.Len(t, menu.Calls, 4)
	assert.LessOrEqual(t, len(menu.Calls), 5)
	for i, req := range menu.Calls {
		assert.Equal(t, i*7+1, req.StartDay)
		assert.Equal(t, 7, req.Days)
		assert.InDelta(t, 2173, req.TotalCalories, 1)
		assert.Positive(t, req.NutritionGoals.Fiber)
	}

	for _, d := range days[:28] {
		assert.Equal(t, model.SourceAI, d.Meals.Lunch.Source)
		assert.Equal(t, "Cook it.", d.Meals.Lunch.Preparation)
		assert.Equal(t, 500.0, d.Meals.Lunch.Nutrition.Calories)
		assert.Equal(t, model.SourceAI, d.Exercise.Source)
		assert.Equal(t, model.ExerciseCardio, d.Exercise.Type)
	}
	for _, d := range days[28:] {
		assert.Equal(t, model.SourceFallback, d.Meals.Dinner.Source)
		assert.Equal(t, "1. Mix. 2. Serve.", d.Meals.Dinner.Preparation)
	}
	// AI meals already had instructions; only the 2 fallback days x 3 meals asked for recipes
	assert.Equal(t, 6, text.count(recipeMarker))
}

func TestGenerate_PartialWeekFallsBackPerDay(t *testing.T) {
	menu := &MockMenuGenerator{GenerateFunc: func(_ context.Context, req WeeklyMenuRequest) (*WeeklyMenuResponse, error) {
		resp := fullWeek(req)
		if req.StartDay == 1 {
			resp.WeeklyMenu[1].Meals.Lunch.Name = ""           // day 2 malformed
			resp.WeeklyMenu[2].Meals.Dinner = nil              // day 3 malformed
			resp.WeeklyMenu[3].Meals.Breakfast.Nutrition = nil // day 4 backfilled
			resp.WeeklyMenu[4].Meals.Lunch.Instructions = ""   // day 5 needs recipe text
			resp.WeeklyMenu = resp.WeeklyMenu[:6]              // day 7 missing
		}
		return resp, nil
	}}
	text := &MockTextGenerator{GenerateFunc: func(context.Context, string) (string, error) {
		return "", errors.New("no text today")
	}}

	days := NewPipeline(menu, text, Options{}, nil).Generate(context.Background(), testModule, testProfile, nil)
	requireComplete(t, days)

	assert.Equal(t, model.SourceAI, days[0].Meals.Lunch.Source)
	for _, idx := range []int{1, 2, 6} {
		for _, m := range days[idx].Meals.All() {
			assert.Equal(t, model.SourceFallback, m.Source, "day %d", idx+1)
		}
	}
	assert.Equal(t, model.SourceAI, days[3].Meals.Breakfast.Source)
	assert.Equal(t, 543.0, days[3].Meals.Breakfast.Nutrition.Calories) // 25% of 2173
	assert.Equal(t, model.SourceAI, days[4].Meals.Lunch.Source)
	assert.Equal(t, TemplatePreparation(days[4].Meals.Lunch.Name, days[4].Meals.Lunch.Ingredients), days[4].Meals.Lunch.Preparation)
	assert.Equal(t, model.SourceAI, days[7].Meals.Lunch.Source)
}

func TestGenerate_UnsuccessfulResponse(t *testing.T) {
	menu := &MockMenuGenerator{GenerateFunc: func(context.Context, WeeklyMenuRequest) (*WeeklyMenuResponse, error) {
		return &WeeklyMenuResponse{Success: false}, nil
	}}
	days := NewPipeline(menu, nil, Options{}, nil).Generate(context.Background(), testModule, testProfile, nil)
	requireComplete(t, days)
	assert.Equal(t, model.SourceFallback, days[0].Meals.Breakfast.Source)
}

func TestGenerate_ProgressIsSequential(t *testing.T) {
	var steps []int
	var totals []int
	NewPipeline(nil, nil, Options{}, nil).Generate(context.Background(), testModule, testProfile, func(step, total int, msg string) {
		steps = append(steps, step)
		totals = append(totals, total)
		assert.NotEmpty(t, msg)
	})
	assert.Equal(t, []int{1, 2, 3, 4, 5}, steps)
	for _, tot := range totals {
		assert.Equal(t, 5, tot)
	}
}

func TestGenerate_PanicAndTimeoutBecomeFallback(t *testing.T) {
	menu := &MockMenuGenerator{GenerateFunc: func(ctx context.Context, req WeeklyMenuRequest) (*WeeklyMenuResponse, error) {
		if req.StartDay == 1 {
			panic("nil map")
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	days := NewPipeline(menu, nil, Options{CallTimeout: 10 * time.Millisecond}, nil).Generate(context.Background(), testModule, testProfile, nil)
	requireComplete(t, days)
	assert.Len(t, menu.Calls, 4)
}

func TestGenerate_MalformedExerciseFallsBack(t *testing.T) {
	text := &MockTextGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Day 3 of") {
			return `{"name":"Yoga","type":"zen","durationMinutes":20,"instructions":["breathe"]}`, nil
		}
		return "Sorry, I can't produce JSON right now.", nil
	}}
	days := NewPipeline(nil, text, Options{}, nil).Generate(context.Background(), testModule, testProfile, nil)
	requireComplete(t, days)
	for _, d := range days {
		assert.Equal(t, FallbackExercise(d.DayNumber, testProfile).Name, d.Exercise.Name)
	}
}

func TestFallbackReason(t *testing.T) {
	assert.Equal(t, "unconfigured", FallbackReason(genErr(StageMenu, 1, ErrUnconfigured)))
	assert.Equal(t, "not_batched", FallbackReason(genErr(StageMenu, 29, ErrNotBatched)))
	assert.Equal(t, "incomplete", FallbackReason(ErrIncomplete))
	assert.Equal(t, "timeout", FallbackReason(genErr(StageExercise, 2, context.DeadlineExceeded)))
	assert.Equal(t, "none", FallbackReason(nil))
}

func TestPipeline_MaxDuration(t *testing.T) {
	assert.Equal(t, 124, MaxAICalls)
	assert.Equal(t, 124*2*time.Second, NewPipeline(nil, nil, Options{CallTimeout: 2 * time.Second}, nil).MaxDuration())
	assert.Equal(t, 62*time.Minute, NewPipeline(nil, nil, Options{}, nil).MaxDuration())
}
