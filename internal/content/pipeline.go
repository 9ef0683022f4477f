// Package content produces the 30 days of meals and exercises for a module.
// Weekly menus are requested in batches; every failure is resolved per day to
// deterministic fallback content, so generation always yields 30 entries.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"minutri/internal/model"
	"minutri/internal/nutrition"
	"minutri/pkg/jsonx"
	"minutri/pkg/metrics"
	"minutri/pkg/util"
)

const (
	DaysPerBatch = 7
	// BatchedWeeks covers days 1-28; days 29 and 30 are always fallback.
	BatchedWeeks = 4

	defaultCallTimeout = 30 * time.Second
)

// MaxAICalls is the most AI calls one Generate makes: a menu call per batched
// week, an exercise call per day and a recipe call per meal.
const MaxAICalls = BatchedWeeks + model.ModuleDays + model.ModuleDays*3

// ErrNotBatched marks the days after the last full week.
var ErrNotBatched = errors.New("day outside batched weeks")

// ProgressFunc is advisory; it never influences generation.
type ProgressFunc func(step, total int, message string)

type Options struct {
	// CallTimeout bounds each AI call. Zero means 30s.
	CallTimeout time.Duration
}

type Pipeline struct {
	menu        MenuGenerator
	text        TextGenerator
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewPipeline accepts nil generators: an unconfigured capability simply
// yields fallback content.
func NewPipeline(menu MenuGenerator, text TextGenerator, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Pipeline{
		menu:        menu,
		text:        text,
		callTimeout: timeout,
		logger:      logger,
	}
}

// MaxDuration bounds one Generate run in which every AI call times out.
func (p *Pipeline) MaxDuration() time.Duration {
	return time.Duration(MaxAICalls) * p.callTimeout
}

// Generate returns exactly model.ModuleDays populated entries for the module.
// Weeks are requested sequentially so progress can be reported in order.
func (p *Pipeline) Generate(ctx context.Context, module model.Module, profile model.UserProfile, onProgress ProgressFunc) []model.DailyContent {
	targets := nutrition.DailyTargets(profile)
	days := make([]model.DailyContent, model.ModuleDays)
	total := BatchedWeeks + 1

	p.logger.Info("Generating module content",
		zap.Int("module_id", module.ID),
		zap.String("goal", string(profile.Goal)),
		zap.Float64("calories", targets.Calories),
	)

	for w := 0; w < BatchedWeeks; w++ {
		first := w*DaysPerBatch + 1
		week := p.requestWeek(ctx, first, targets, profile)
		for i, r := range week {
			day := first + i
			days[day-1] = p.buildDay(ctx, module, day, r, targets, profile)
		}
		report(onProgress, w+1, total, fmt.Sprintf("week %d of %d ready", w+1, BatchedWeeks))
	}

	for day := BatchedWeeks*DaysPerBatch + 1; day <= model.ModuleDays; day++ {
		r := Fail[MenuDay](genErr(StageMenu, day, ErrNotBatched))
		days[day-1] = p.buildDay(ctx, module, day, r, targets, profile)
	}
	report(onProgress, total, total, "remaining days ready")

	p.logger.Info("Module content generated",
		zap.Int("module_id", module.ID),
		zap.Int("days", len(days)),
	)
	return days
}

// requestWeek performs one batched menu call and carves it into per-day
// results. Days the response omits come back as failures.
func (p *Pipeline) requestWeek(ctx context.Context, firstDay int, targets nutrition.Targets, profile model.UserProfile) []Result[MenuDay] {
	out := make([]Result[MenuDay], DaysPerBatch)
	fail := func(err error) []Result[MenuDay] {
		for i := range out {
			out[i] = Fail[MenuDay](genErr(StageMenu, firstDay+i, err))
		}
		return out
	}

	if p.menu == nil {
		return fail(ErrUnconfigured)
	}

	req := WeeklyMenuRequest{
		NutritionGoals: NutritionGoals{
			Protein: targets.Macros.Protein,
			Carbs:   targets.Macros.Carbs,
			Fat:     targets.Macros.Fat,
			Fiber:   targets.Fiber,
		},
		TotalCalories:      targets.Macros.Calories,
		DietaryPreferences: profile.DietaryPreferences,
		Allergies:          profile.Allergies,
		Weight:             profile.WeightKg,
		Height:             profile.HeightCm,
		Age:                profile.Age,
		Gender:             profile.Gender,
		ActivityLevel:      profile.ActivityLevel,
		Goal:               profile.Goal,
		StartDay:           firstDay,
		Days:               DaysPerBatch,
	}

	var resp *WeeklyMenuResponse
	err := p.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.menu.GenerateWeeklyMenu(ctx, req)
		return err
	})
	if err != nil {
		p.logger.Warn("Weekly menu request failed, using fallback for the week",
			zap.Int("first_day", firstDay),
			zap.Error(err),
		)
		return fail(err)
	}
	if resp == nil || !resp.Success {
		p.logger.Warn("Weekly menu response unsuccessful", zap.Int("first_day", firstDay))
		return fail(ErrUnsuccessful)
	}

	for i := range out {
		if i < len(resp.WeeklyMenu) {
			day := resp.WeeklyMenu[i]
			if day.DecodeErr != nil {
				out[i] = Fail[MenuDay](genErr(StageMenu, firstDay+i, fmt.Errorf("%w: %v", ErrIncomplete, day.DecodeErr)))
				continue
			}
			out[i] = Ok(day)
			continue
		}
		out[i] = Fail[MenuDay](genErr(StageMenu, firstDay+i, fmt.Errorf("%w: day missing from response", ErrIncomplete)))
	}
	return out
}

func (p *Pipeline) buildDay(ctx context.Context, module model.Module, day int, r Result[MenuDay], targets nutrition.Targets, profile model.UserProfile) model.DailyContent {
	date := module.StartDate.AddDate(0, 0, day-1)
	split := SplitDay(r)

	var meals model.DayMeals
	for _, slot := range nutrition.MealSlots {
		res := split.For(slot)
		meal := ResolveMeal(res, slot, day, targets, profile)
		p.record(StageMenu, res.Err, meal.Source)
		if meal.Source == model.SourceFallback || strings.TrimSpace(res.Value.Instructions) == "" {
			p.fillPreparation(ctx, &meal, day, profile.Goal)
		}
		switch slot {
		case nutrition.Breakfast:
			meals.Breakfast = meal
		case nutrition.Lunch:
			meals.Lunch = meal
		case nutrition.Dinner:
			meals.Dinner = meal
		}
	}
	if split.Breakfast.Err != nil {
		p.logger.Debug("Day meals resolved from fallback",
			zap.Int("day", day),
			zap.Error(split.Breakfast.Err),
		)
	}

	exRes := p.requestExercise(ctx, day, date, profile)
	exercise := ResolveExercise(exRes, day, profile)
	p.record(StageExercise, exRes.Err, exercise.Source)

	return model.DailyContent{
		DayNumber:    day,
		Date:         date,
		Meals:        meals,
		Exercise:     exercise,
		Tips:         Tips(profile.Goal, day),
		ShoppingList: ShoppingList(meals),
	}
}

// fillPreparation replaces the templated preparation with generated recipe
// text when the text capability answers. Failures keep the template.
func (p *Pipeline) fillPreparation(ctx context.Context, meal *model.Meal, day int, goal model.Goal) {
	if p.text == nil {
		return
	}
	var text string
	err := p.call(ctx, func(ctx context.Context) error {
		var err error
		text, err = p.text.GenerateText(ctx, buildRecipePrompt(*meal, goal))
		return err
	})
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = fmt.Errorf("%w: empty recipe text", ErrIncomplete)
	}
	if err != nil {
		p.record(StageRecipe, genErr(StageRecipe, day, err), model.SourceFallback)
		return
	}
	meal.Preparation = text
	p.record(StageRecipe, nil, model.SourceAI)
}

func (p *Pipeline) requestExercise(ctx context.Context, day int, date time.Time, profile model.UserProfile) Result[model.Exercise] {
	if p.text == nil {
		return Fail[model.Exercise](genErr(StageExercise, day, ErrUnconfigured))
	}
	var text string
	err := p.call(ctx, func(ctx context.Context) error {
		var err error
		text, err = p.text.GenerateText(ctx, buildExercisePrompt(profile, day, date))
		return err
	})
	if err != nil {
		return Fail[model.Exercise](genErr(StageExercise, day, err))
	}
	ex, err := ParseExercise(text)
	if err != nil {
		return Fail[model.Exercise](genErr(StageExercise, day, err))
	}
	return Ok(ex)
}

// call runs fn under the per-call timeout and turns a panic inside the
// capability into an error.
func (p *Pipeline) call(ctx context.Context, fn func(context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ai capability panicked: %v", r)
		}
	}()
	return fn(ctx)
}

func (p *Pipeline) record(stage Stage, err error, source model.Source) {
	metrics.IncrementContentGenerated(string(stage), string(source))
	if source == model.SourceFallback {
		metrics.IncrementContentFallback(string(stage), FallbackReason(err))
	}
}

// FallbackReason labels why content fell back.
func FallbackReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrUnconfigured):
		return "unconfigured"
	case errors.Is(err, ErrNotBatched):
		return "not_batched"
	case errors.Is(err, ErrUnsuccessful):
		return "unsuccessful"
	case errors.Is(err, ErrIncomplete):
		return "incomplete"
	case errors.Is(err, jsonx.ErrEmpty), errors.Is(err, jsonx.ErrNoPayload):
		return "unparseable"
	}
	_, kind := util.IsRetryableError(err)
	return kind
}

func report(fn ProgressFunc, step, total int, msg string) {
	if fn != nil {
		fn(step, total, msg)
	}
}
