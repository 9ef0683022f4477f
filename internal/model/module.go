package model

import "time"

const (
	// ModuleDays is the fixed length of every module.
	ModuleDays = 30
	// ChecksPerDay 3 meals + 1 exercise
	ChecksPerDay = 4
)

type ModuleStatus string

const (
	ModuleLocked    ModuleStatus = "locked"
	ModuleActive    ModuleStatus = "active"
	ModuleCompleted ModuleStatus = "completed"
)

// Module is one 30-day segment of a roadmap.
type Module struct {
	ID               int          `json:"id"`
	StartDate        time.Time    `json:"start_date"`
	EndDate          time.Time    `json:"end_date"`
	MilestoneTarget  float64      `json:"milestone_target"`
	Status           ModuleStatus `json:"status"`
	Stalled          bool         `json:"stalled"`
	ProgressPercent  int          `json:"progress_percent"`
	AdherencePercent int          `json:"adherence_percent"`
	TargetAdherence  int          `json:"target_adherence"`
}

// ActiveModule returns the index of the single active module, or -1.
func ActiveModule(modules []Module) int {
	for i := range modules {
		if modules[i].Status == ModuleActive {
			return i
		}
	}
	return -1
}

// FindModule returns the index of the module with the given id, or -1.
func FindModule(modules []Module, id int) int {
	for i := range modules {
		if modules[i].ID == id {
			return i
		}
	}
	return -1
}
