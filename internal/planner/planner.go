// Package planner turns an onboarding goal into a Roadmap and its ordered
// 30-day modules.
package planner

import (
	"math"
	"time"

	"minutri/internal/model"
)

// WeeksPerMonth is the average number of weeks in a month.
const WeeksPerMonth = 4.33

type Classification string

const (
	Realistic Classification = "realistic"
	Ambitious Classification = "ambitious"
)

// Assessment is advisory output; the caller chooses between the requested
// and the suggested timeframe.
type Assessment struct {
	Classification  Classification `json:"classification"`
	WeeklyRate      float64        `json:"weekly_rate"`
	MaxWeeklyRate   float64        `json:"max_weekly_rate,omitempty"`
	SuggestedMonths int            `json:"suggested_months,omitempty"`
	Notes           []string       `json:"notes,omitempty"`
}

type rateLimit struct {
	max  float64
	safe float64
}

// limitsFor returns the flagging threshold and the safe rate used for the
// suggested timeframe. ok is false when the goal has no rate limit.
func limitsFor(goal model.Goal) (rateLimit, bool) {
	switch goal {
	case model.GoalWeightLoss:
		return rateLimit{max: 1.5, safe: 1.0}, true
	case model.GoalWeightGain, model.GoalMuscleGain:
		return rateLimit{max: 0.5, safe: 0.3}, true
	case model.GoalMaintenance:
		return rateLimit{}, false
	}
	return rateLimit{}, false
}

// targetAdherenceFor is the unlock threshold per goal.
func targetAdherenceFor(goal model.Goal) int {
	switch goal {
	case model.GoalWeightLoss, model.GoalWeightGain, model.GoalMuscleGain:
		return 85
	case model.GoalMaintenance:
		return 80
	}
	return 85
}

// CreateRoadmap builds a roadmap and classifies how aggressive it is. It never
// fails: odd input produces notes, not errors.
func CreateRoadmap(goal model.Goal, currentValue, targetValue float64, timeframeMonths int, now time.Time) (model.Roadmap, Assessment) {
	var a Assessment

	months := timeframeMonths
	if months < 1 {
		a.Notes = append(a.Notes, "timeframe below one month, using one month")
		months = 1
	}

	rm := model.Roadmap{
		Goal:            goal,
		CurrentValue:    currentValue,
		TargetValue:     targetValue,
		TimeframeMonths: months,
		CreatedAt:       now,
		ModuleCount:     model.ModuleCountFor(float64(months)),
	}

	if goal != model.GoalMaintenance && currentValue == targetValue {
		a.Notes = append(a.Notes, "current and target values are equal")
	}

	delta := math.Abs(targetValue - currentValue)
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		a.Classification = Realistic
		a.Notes = append(a.Notes, "values are not finite numbers, rate not assessed")
		return rm, a
	}

	a.WeeklyRate = delta / (float64(months) * WeeksPerMonth)
	a.Classification = Realistic

	limit, ok := limitsFor(goal)
	if !ok {
		return rm, a
	}
	a.MaxWeeklyRate = limit.max
	if a.WeeklyRate > limit.max {
		a.Classification = Ambitious
		a.SuggestedMonths = int(math.Ceil(delta / (limit.safe * WeeksPerMonth)))
	}
	return rm, a
}

// GenerateModules splits the roadmap into contiguous 30-day modules with
// linearly interpolated milestones. Module 1 starts Active.
func GenerateModules(rm model.Roadmap) []model.Module {
	count := rm.ModuleCount
	if count < 1 {
		count = 1
	}
	step := (rm.TargetValue - rm.CurrentValue) / float64(count)
	target := targetAdherenceFor(rm.Goal)

	modules := make([]model.Module, count)
	for i := range modules {
		start := rm.CreatedAt.AddDate(0, 0, i*model.ModuleDays)
		status := model.ModuleLocked
		if i == 0 {
			status = model.ModuleActive
		}
		milestone := rm.CurrentValue + step*float64(i+1)
		if i == count-1 {
			milestone = rm.TargetValue
		}
		modules[i] = model.Module{
			ID:              i + 1,
			StartDate:       start,
			EndDate:         start.AddDate(0, 0, model.ModuleDays),
			MilestoneTarget: round1(milestone),
			Status:          status,
			TargetAdherence: target,
		}
	}
	return modules
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
