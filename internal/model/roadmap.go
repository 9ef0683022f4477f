package model

import (
	"math"
	"time"
)

// Goal is the user's long-horizon objective.
type Goal string

const (
	GoalWeightLoss  Goal = "weight_loss"
	GoalWeightGain  Goal = "weight_gain"
	GoalMuscleGain  Goal = "muscle_gain"
	GoalMaintenance Goal = "maintenance"
)

// Goals lists every goal variant in declaration order.
var Goals = []Goal{GoalWeightLoss, GoalWeightGain, GoalMuscleGain, GoalMaintenance}

func (g Goal) Valid() bool {
	switch g {
	case GoalWeightLoss, GoalWeightGain, GoalMuscleGain, GoalMaintenance:
		return true
	}
	return false
}

func ParseGoal(s string) (Goal, bool) {
	g := Goal(s)
	return g, g.Valid()
}

// Roadmap is the per-user long-horizon goal. It is immutable once created;
// a new onboarding replaces it wholesale.
type Roadmap struct {
	// PlanID identifies one onboarding. Records written for an earlier plan
	// carry a different id.
	PlanID          string    `json:"plan_id,omitempty"`
	Goal            Goal      `json:"goal"`
	CurrentValue    float64   `json:"current_value"`
	TargetValue     float64   `json:"target_value"`
	TimeframeMonths int       `json:"timeframe_months"`
	CreatedAt       time.Time `json:"created_at"`
	ModuleCount     int       `json:"module_count"`
}

// ModuleCountFor returns ceil(months), never less than one.
func ModuleCountFor(months float64) int {
	n := int(math.Ceil(months))
	if n < 1 {
		return 1
	}
	return n
}
