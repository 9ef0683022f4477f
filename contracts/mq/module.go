package mq

import "time"

// Routing keys for roadmap lifecycle events.
const (
	RoutingModuleCompleted = "module.completed"
	RoutingModuleUnlocked  = "module.unlocked"
	RoutingModuleStalled   = "module.stalled"
)

// ModuleEventPayload is published on every module state change.
type ModuleEventPayload struct {
	EventID          string    `json:"event_id"`
	UserID           int       `json:"user_id"`
	ModuleID         int       `json:"module_id"`
	Status           string    `json:"status"`
	AdherencePercent int       `json:"adherence_percent"`
	TargetAdherence  int       `json:"target_adherence"`
	Overridden       bool      `json:"overridden,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}
