// Package progression drives modules through Locked -> Active -> Completed.
//
// A module reaching day 30 below its adherence threshold stays Active and is
// flagged Stalled. The flag clears if adherence recovers, and the user may
// explicitly override a stalled module to complete it.
package progression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "minutri/contracts/mq"
	"minutri/internal/adherence"
	"minutri/internal/model"
	"minutri/internal/store"
	"minutri/pkg/logger"
	"minutri/pkg/metrics"
)

var (
	ErrNoRoadmap           = errors.New("no roadmap for user")
	ErrModuleNotFound      = errors.New("module not found")
	ErrNotActive           = errors.New("module is not active")
	ErrNotStalled          = errors.New("module is not stalled")
	ErrInconsistentModules = errors.New("module list is inconsistent")
)

// ContentScheduler pre-generates content for a newly unlocked module.
type ContentScheduler interface {
	ScheduleContent(ctx context.Context, userID int, module model.Module)
}

// EventPublisher is satisfied by *mq.Publisher.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Outcome describes one evaluation.
type Outcome struct {
	Module     model.Module `json:"module"`
	CurrentDay int          `json:"current_day"`
	Completed  bool         `json:"completed"`
	// Unlocked is the module activated by this evaluation, if any.
	Unlocked *model.Module `json:"unlocked,omitempty"`
	// Finished is set once every module is Completed.
	Finished bool `json:"finished"`
}

type Engine struct {
	store     store.RoadmapStore
	scheduler ContentScheduler
	events    EventPublisher
	logger    *zap.Logger
}

// NewEngine wires the engine. scheduler and events may be nil.
func NewEngine(st store.RoadmapStore, scheduler ContentScheduler, events EventPublisher, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: st, scheduler: scheduler, events: events, logger: log}
}

// snapshot is the state an evaluation works on.
type snapshot struct {
	modules  []model.Module
	idx      int
	tracking []model.DayTracking
	day      int
}

// Evaluate recomputes the active module's progress and adherence and applies
// any transition due at now. Repeated calls with the same inputs write nothing.
func (e *Engine) Evaluate(ctx context.Context, userID int, now time.Time) (Outcome, error) {
	log := logger.WithTrace(ctx, e.logger).With(zap.Int("user_id", userID))

	snap, finished, err := e.load(ctx, userID, now)
	if err != nil {
		return Outcome{}, err
	}
	if finished {
		return Outcome{Finished: true, Module: snap.modules[len(snap.modules)-1], CurrentDay: model.ModuleDays}, nil
	}

	before := snap.modules[snap.idx]
	mod := refresh(before, snap.tracking, snap.day)

	if snap.day == model.ModuleDays && mod.AdherencePercent >= mod.TargetAdherence {
		snap.modules[snap.idx] = mod
		return e.complete(ctx, log, userID, snap, false)
	}

	mod.Stalled = snap.day == model.ModuleDays
	snap.modules[snap.idx] = mod
	if changed(before, mod) {
		if err := e.store.SaveModules(ctx, userID, snap.modules); err != nil {
			return Outcome{}, fmt.Errorf("save modules: %w", err)
		}
	}

	switch {
	case mod.Stalled && !before.Stalled:
		log.Info("Module stalled below adherence threshold",
			zap.Int("module_id", mod.ID),
			zap.Int("adherence", mod.AdherencePercent),
			zap.Int("target", mod.TargetAdherence),
		)
		metrics.IncrementModuleTransition("stalled")
		e.publish(log, mqcontracts.RoutingModuleStalled, userID, mod, false)
	case !mod.Stalled && before.Stalled:
		log.Info("Module recovered from stall", zap.Int("module_id", mod.ID))
		metrics.IncrementModuleTransition("recovered")
	}

	return Outcome{Module: mod, CurrentDay: snap.day}, nil
}

// Override completes a stalled module and unlocks the next one.
func (e *Engine) Override(ctx context.Context, userID, moduleID int, now time.Time) (Outcome, error) {
	log := logger.WithTrace(ctx, e.logger).With(zap.Int("user_id", userID))

	snap, finished, err := e.load(ctx, userID, now)
	if err != nil {
		return Outcome{}, err
	}
	target := model.FindModule(snap.modules, moduleID)
	if target < 0 {
		return Outcome{}, fmt.Errorf("%w: %d", ErrModuleNotFound, moduleID)
	}
	if finished || target != snap.idx {
		return Outcome{}, fmt.Errorf("%w: %d", ErrNotActive, moduleID)
	}

	mod := refresh(snap.modules[snap.idx], snap.tracking, snap.day)
	if snap.day < model.ModuleDays || mod.AdherencePercent >= mod.TargetAdherence {
		return Outcome{}, fmt.Errorf("%w: %d", ErrNotStalled, moduleID)
	}
	snap.modules[snap.idx] = mod

	log.Info("Overriding stalled module", zap.Int("module_id", moduleID))
	metrics.IncrementModuleTransition("overridden")
	return e.complete(ctx, log, userID, snap, true)
}

// load reads the module list and the active module's tracking. Missing
// tracking is initialized lazily. finished reports that no module is left.
func (e *Engine) load(ctx context.Context, userID int, now time.Time) (snapshot, bool, error) {
	modules, err := e.store.GetModules(ctx, userID)
	if err != nil {
		return snapshot{}, false, fmt.Errorf("load modules: %w", err)
	}
	if len(modules) == 0 {
		return snapshot{}, false, ErrNoRoadmap
	}

	idx := model.ActiveModule(modules)
	if idx < 0 {
		idx, err = e.repair(ctx, userID, modules)
		if err != nil {
			return snapshot{}, false, err
		}
		if idx < 0 {
			return snapshot{modules: modules}, true, nil
		}
	}

	mod := modules[idx]
	tracking, err := e.store.GetTracking(ctx, userID, mod.ID)
	if err != nil {
		return snapshot{}, false, fmt.Errorf("load tracking: %w", err)
	}
	if tracking == nil {
		tracking = adherence.NewTracking(mod.StartDate)
		if err := e.store.SaveTracking(ctx, userID, mod.ID, tracking); err != nil {
			return snapshot{}, false, fmt.Errorf("init tracking: %w", err)
		}
	}

	return snapshot{
		modules:  modules,
		idx:      idx,
		tracking: tracking,
		day:      adherence.CurrentDay(mod.StartDate, now),
	}, false, nil
}

// repair handles a module list with no Active entry. The first Locked module
// is activated when every module before it is Completed. With no Locked
// module left the roadmap is done.
func (e *Engine) repair(ctx context.Context, userID int, modules []model.Module) (int, error) {
	next := -1
	for i := range modules {
		if modules[i].Status == model.ModuleLocked {
			next = i
			break
		}
	}
	if next < 0 {
		return -1, nil
	}
	for _, m := range modules[:next] {
		if m.Status != model.ModuleCompleted {
			e.logger.Warn("Cannot reactivate module after an unfinished one",
				zap.Int("user_id", userID),
				zap.Int("module_id", modules[next].ID),
				zap.Int("blocking_module_id", m.ID),
				zap.String("blocking_status", string(m.Status)),
			)
			return -1, fmt.Errorf("%w: module %d is %q", ErrInconsistentModules, m.ID, m.Status)
		}
	}

	modules[next].Status = model.ModuleActive
	tracking := adherence.NewTracking(modules[next].StartDate)
	err := e.store.CommitTransition(ctx, userID, store.Transition{
		Modules:    modules,
		UnlockedID: modules[next].ID,
		Tracking:   tracking,
	})
	if err != nil {
		return -1, fmt.Errorf("reactivate module %d: %w", modules[next].ID, err)
	}
	e.logger.Warn("Reactivated module missing from an interrupted transition",
		zap.Int("user_id", userID),
		zap.Int("module_id", modules[next].ID),
	)
	return next, nil
}

func (e *Engine) complete(ctx context.Context, log *zap.Logger, userID int, snap snapshot, overridden bool) (Outcome, error) {
	mod := snap.modules[snap.idx]
	mod.Status = model.ModuleCompleted
	mod.Stalled = false
	mod.ProgressPercent = 100
	snap.modules[snap.idx] = mod

	t := store.Transition{Modules: snap.modules}
	out := Outcome{Module: mod, CurrentDay: snap.day, Completed: true}

	switch n := snap.idx + 1; {
	case n >= len(snap.modules):
		out.Finished = true
	case snap.modules[n].Status == model.ModuleLocked:
		next := snap.modules[n]
		next.Status = model.ModuleActive
		snap.modules[n] = next
		t.UnlockedID = next.ID
		t.Tracking = adherence.NewTracking(next.StartDate)
		out.Unlocked = &next
	default:
		log.Warn("Next module is not locked, nothing to unlock",
			zap.Int("module_id", snap.modules[n].ID),
			zap.String("status", string(snap.modules[n].Status)),
		)
	}

	if err := e.store.CommitTransition(ctx, userID, t); err != nil {
		return Outcome{}, fmt.Errorf("commit transition: %w", err)
	}

	log.Info("Module completed",
		zap.Int("module_id", mod.ID),
		zap.Int("adherence", mod.AdherencePercent),
		zap.Bool("overridden", overridden),
	)
	metrics.IncrementModuleTransition("completed")
	e.publish(log, mqcontracts.RoutingModuleCompleted, userID, mod, overridden)

	if out.Unlocked != nil {
		log.Info("Module unlocked", zap.Int("module_id", out.Unlocked.ID))
		metrics.IncrementModuleTransition("unlocked")
		e.publish(log, mqcontracts.RoutingModuleUnlocked, userID, *out.Unlocked, false)
		if e.scheduler != nil {
			e.scheduler.ScheduleContent(ctx, userID, *out.Unlocked)
		}
	} else if out.Finished {
		log.Info("Roadmap finished")
	}
	return out, nil
}

func changed(a, b model.Module) bool {
	return a.Stalled != b.Stalled ||
		a.AdherencePercent != b.AdherencePercent ||
		a.ProgressPercent != b.ProgressPercent
}

// refresh recomputes the derived percentages of an active module.
func refresh(mod model.Module, tracking []model.DayTracking, day int) model.Module {
	mod.AdherencePercent = adherence.CalculateAdherence(tracking)
	mod.ProgressPercent = adherence.ProgressPercent(day)
	return mod
}

func (e *Engine) publish(log *zap.Logger, routingKey string, userID int, mod model.Module, overridden bool) {
	if e.events == nil {
		return
	}
	payload := mqcontracts.ModuleEventPayload{
		EventID:          uuid.NewString(),
		UserID:           userID,
		ModuleID:         mod.ID,
		Status:           string(mod.Status),
		AdherencePercent: mod.AdherencePercent,
		TargetAdherence:  mod.TargetAdherence,
		Overridden:       overridden,
		OccurredAt:       time.Now().UTC(),
	}
	if err := e.events.Publish(routingKey, payload); err != nil {
		log.Warn("Failed to publish module event",
			zap.String("routing_key", routingKey),
			zap.Int("module_id", mod.ID),
			zap.Error(err),
		)
	}
}
