package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"minutri/internal/adherence"
	"minutri/internal/content"
	"minutri/internal/model"
	"minutri/internal/planner"
	"minutri/internal/progression"
	"minutri/internal/store"
	"minutri/pkg/logger"
)

const (
	generateScope = "generate"

	// maxPlanAttempts bounds regeneration when onboarding replaces the plan
	// while its content is being generated.
	maxPlanAttempts = 3
)

var (
	ErrInvalidGoal        = errors.New("invalid goal")
	ErrContentPending     = errors.New("content generation in progress")
	ErrContentDayNotFound = errors.New("content day not found")
	ErrPlanReplaced       = errors.New("plan replaced during content generation")
)

// ContentGenerator is satisfied by *content.Pipeline.
type ContentGenerator interface {
	Generate(ctx context.Context, module model.Module, profile model.UserProfile, onProgress content.ProgressFunc) []model.DailyContent
}

// GenerationGuard prevents two concurrent generations of the same module.
// Satisfied by *util.Deduper and *util.LocalDeduper.
type GenerationGuard interface {
	AcquireOnce(ctx context.Context, scope string, userID, moduleID int) bool
	Release(ctx context.Context, scope string, userID, moduleID int)
}

// RoadmapService is the application facade over planner, progression,
// adherence and content generation.
type RoadmapService struct {
	store     store.RoadmapStore
	engine    *progression.Engine
	generator ContentGenerator
	guard     GenerationGuard
	logger    *zap.Logger
	now       func() time.Time

	wg sync.WaitGroup
}

// NewRoadmapService builds the facade and its progression engine. The
// service itself schedules content for modules the engine unlocks.
func NewRoadmapService(st store.RoadmapStore, generator ContentGenerator, guard GenerationGuard, events progression.EventPublisher, log *zap.Logger) *RoadmapService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &RoadmapService{
		store:     st,
		generator: generator,
		guard:     guard,
		logger:    log,
		now:       time.Now,
	}
	s.engine = progression.NewEngine(st, s, events, log)
	return s
}

type OnboardRequest struct {
	Goal            string            `json:"goal" binding:"required"`
	CurrentValue    float64           `json:"current_value"`
	TargetValue     float64           `json:"target_value"`
	TimeframeMonths int               `json:"timeframe_months"`
	AcceptSuggested bool              `json:"accept_suggested"`
	Profile         model.UserProfile `json:"profile"`
}

type OnboardResult struct {
	Roadmap    model.Roadmap      `json:"roadmap"`
	Modules    []model.Module     `json:"modules"`
	Assessment planner.Assessment `json:"assessment"`
}

// Onboard replaces any existing roadmap with a new one and schedules content
// for module 1.
func (s *RoadmapService) Onboard(ctx context.Context, userID int, req OnboardRequest) (*OnboardResult, error) {
	goal, ok := model.ParseGoal(req.Goal)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGoal, req.Goal)
	}

	now := s.now()
	rm, assessment := planner.CreateRoadmap(goal, req.CurrentValue, req.TargetValue, req.TimeframeMonths, now)
	if req.AcceptSuggested && assessment.Classification == planner.Ambitious && assessment.SuggestedMonths > 0 {
		rm, _ = planner.CreateRoadmap(goal, req.CurrentValue, req.TargetValue, assessment.SuggestedMonths, now)
	}
	rm.PlanID = uuid.NewString()
	modules := planner.GenerateModules(rm)

	profile := req.Profile
	profile.Goal = goal
	if profile.WeightKg == 0 && (goal == model.GoalWeightLoss || goal == model.GoalWeightGain) {
		profile.WeightKg = req.CurrentValue
	}

	err := s.store.ReplacePlan(ctx, userID, store.Plan{
		Roadmap:  rm,
		Profile:  profile,
		Modules:  modules,
		Tracking: adherence.NewTracking(modules[0].StartDate),
	})
	if err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}

	logger.WithTrace(ctx, s.logger).Info("Roadmap created",
		zap.Int("user_id", userID),
		zap.String("goal", string(goal)),
		zap.Int("modules", rm.ModuleCount),
		zap.String("classification", string(assessment.Classification)),
	)

	s.ScheduleContent(ctx, userID, modules[0])
	return &OnboardResult{Roadmap: rm, Modules: modules, Assessment: assessment}, nil
}

// Dashboard is the roadmap as seen on a given day.
type Dashboard struct {
	Roadmap    model.Roadmap       `json:"roadmap"`
	Modules    []model.Module      `json:"modules"`
	Active     *model.Module       `json:"active,omitempty"`
	CurrentDay int                 `json:"current_day"`
	Tracking   []model.DayTracking `json:"tracking,omitempty"`
	Today      *model.DailyContent `json:"today,omitempty"`
	Finished   bool                `json:"finished"`
}

// Dashboard evaluates progression and returns the refreshed roadmap state.
func (s *RoadmapService) Dashboard(ctx context.Context, userID int) (*Dashboard, error) {
	rm, err := s.store.GetRoadmap(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load roadmap: %w", err)
	}
	if rm == nil {
		return nil, progression.ErrNoRoadmap
	}

	out, err := s.engine.Evaluate(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	modules, err := s.store.GetModules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}

	d := &Dashboard{Roadmap: *rm, Modules: modules, CurrentDay: out.CurrentDay, Finished: out.Finished}
	if out.Finished {
		return d, nil
	}

	idx := model.ActiveModule(modules)
	if idx < 0 {
		return d, nil
	}
	active := modules[idx]
	d.Active = &active

	if d.Tracking, err = s.store.GetTracking(ctx, userID, active.ID); err != nil {
		return nil, fmt.Errorf("load tracking: %w", err)
	}
	days, err := s.store.GetContent(ctx, userID, active.ID)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	day := adherence.CurrentDay(active.StartDate, s.now())
	d.CurrentDay = day
	if day <= len(days) {
		d.Today = &days[day-1]
	} else {
		s.ScheduleContent(ctx, userID, active)
	}
	return d, nil
}

func (s *RoadmapService) Roadmap(ctx context.Context, userID int) (*model.Roadmap, error) {
	rm, err := s.store.GetRoadmap(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load roadmap: %w", err)
	}
	if rm == nil {
		return nil, progression.ErrNoRoadmap
	}
	return rm, nil
}

func (s *RoadmapService) Modules(ctx context.Context, userID int) ([]model.Module, error) {
	if _, err := s.engine.Evaluate(ctx, userID, s.now()); err != nil {
		return nil, err
	}
	modules, err := s.store.GetModules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	return modules, nil
}

// Tracking returns a module's check-ins. Locked modules have none yet.
func (s *RoadmapService) Tracking(ctx context.Context, userID, moduleID int) ([]model.DayTracking, error) {
	if _, err := s.module(ctx, userID, moduleID); err != nil {
		return nil, err
	}
	days, err := s.store.GetTracking(ctx, userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load tracking: %w", err)
	}
	if days == nil {
		days = []model.DayTracking{}
	}
	return days, nil
}

// CheckIn sets one check-in box of the active module and re-evaluates
// progression, which may complete the module.
func (s *RoadmapService) CheckIn(ctx context.Context, userID, moduleID, day int, field model.TrackingField, value bool) (progression.Outcome, error) {
	mod, err := s.module(ctx, userID, moduleID)
	if err != nil {
		return progression.Outcome{}, err
	}
	if mod.Status != model.ModuleActive {
		return progression.Outcome{}, fmt.Errorf("%w: %d", progression.ErrNotActive, moduleID)
	}

	days, err := s.store.GetTracking(ctx, userID, moduleID)
	if err != nil {
		return progression.Outcome{}, fmt.Errorf("load tracking: %w", err)
	}
	if days == nil {
		days = adherence.NewTracking(mod.StartDate)
	}
	days, err = adherence.UpdateDay(days, day, field, value)
	if err != nil {
		return progression.Outcome{}, err
	}
	if err := s.store.SaveTracking(ctx, userID, moduleID, days); err != nil {
		return progression.Outcome{}, fmt.Errorf("save tracking: %w", err)
	}

	return s.engine.Evaluate(ctx, userID, s.now())
}

// Override completes a stalled module on the user's explicit request.
func (s *RoadmapService) Override(ctx context.Context, userID, moduleID int) (progression.Outcome, error) {
	return s.engine.Override(ctx, userID, moduleID, s.now())
}

// Content returns a module's 30 days, generating them if absent. Content
// already present is returned as is.
func (s *RoadmapService) Content(ctx context.Context, userID, moduleID int) ([]model.DailyContent, error) {
	days, err := s.store.GetContent(ctx, userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if len(days) == model.ModuleDays {
		return days, nil
	}
	return s.generate(ctx, userID, moduleID, false)
}

func (s *RoadmapService) ContentDay(ctx context.Context, userID, moduleID, day int) (*model.DailyContent, error) {
	days, err := s.Content(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if day < 1 || day > len(days) {
		return nil, fmt.Errorf("%w: %d", ErrContentDayNotFound, day)
	}
	return &days[day-1], nil
}

// RegenerateContent rebuilds a module's content from scratch.
func (s *RoadmapService) RegenerateContent(ctx context.Context, userID, moduleID int) ([]model.DailyContent, error) {
	return s.generate(ctx, userID, moduleID, true)
}

// ScheduleContent pre-generates content in the background. Wait blocks
// until every scheduled generation has finished.
func (s *RoadmapService) ScheduleContent(ctx context.Context, userID int, module model.Module) {
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.Content(bg, userID, module.ID); err != nil && !errors.Is(err, ErrContentPending) {
			logger.WithTrace(bg, s.logger).Error("Content pre-generation failed",
				zap.Int("user_id", userID),
				zap.Int("module_id", module.ID),
				zap.Error(err),
			)
		}
	}()
}

func (s *RoadmapService) Wait() { s.wg.Wait() }

func (s *RoadmapService) generate(ctx context.Context, userID, moduleID int, force bool) ([]model.DailyContent, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("user_id", userID), zap.Int("module_id", moduleID))

	if _, err := s.module(ctx, userID, moduleID); err != nil {
		return nil, err
	}
	if !s.guard.AcquireOnce(ctx, generateScope, userID, moduleID) {
		return nil, ErrContentPending
	}
	defer s.guard.Release(ctx, generateScope, userID, moduleID)

	for attempt := 1; attempt <= maxPlanAttempts; attempt++ {
		planID, err := s.planID(ctx, userID)
		if err != nil {
			return nil, err
		}
		mod, err := s.module(ctx, userID, moduleID)
		if err != nil {
			return nil, err
		}

		if !force {
			// another caller may have finished while we waited for the guard
			days, err := s.store.GetContent(ctx, userID, moduleID)
			if err != nil {
				return nil, fmt.Errorf("load content: %w", err)
			}
			if len(days) == model.ModuleDays {
				return days, nil
			}
		}

		profile, err := s.profile(ctx, userID)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		days := s.generator.Generate(ctx, mod, profile, func(step, total int, msg string) {
			log.Debug("Content generation progress", zap.Int("step", step), zap.Int("total", total), zap.String("message", msg))
		})

		current, err := s.planID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if current != planID {
			// onboarding replaced the plan mid-run; the content belongs to the old one
			log.Info("Plan replaced during content generation, regenerating",
				zap.String("old_plan_id", planID),
				zap.String("plan_id", current),
				zap.Int("attempt", attempt),
			)
			continue
		}

		if err := s.store.SaveContent(ctx, userID, moduleID, days); err != nil {
			return nil, fmt.Errorf("save content: %w", err)
		}
		log.Info("Module content generated",
			zap.Bool("regenerated", force),
			zap.Duration("took", time.Since(start)),
		)
		return days, nil
	}
	return nil, ErrPlanReplaced
}

// planID returns the id of the user's current plan.
func (s *RoadmapService) planID(ctx context.Context, userID int) (string, error) {
	rm, err := s.store.GetRoadmap(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load roadmap: %w", err)
	}
	if rm == nil {
		return "", progression.ErrNoRoadmap
	}
	return rm.PlanID, nil
}

func (s *RoadmapService) module(ctx context.Context, userID, moduleID int) (model.Module, error) {
	modules, err := s.store.GetModules(ctx, userID)
	if err != nil {
		return model.Module{}, fmt.Errorf("load modules: %w", err)
	}
	if modules == nil {
		return model.Module{}, progression.ErrNoRoadmap
	}
	idx := model.FindModule(modules, moduleID)
	if idx < 0 {
		return model.Module{}, fmt.Errorf("%w: %d", progression.ErrModuleNotFound, moduleID)
	}
	return modules[idx], nil
}

// profile falls back to the roadmap goal when no profile was stored.
func (s *RoadmapService) profile(ctx context.Context, userID int) (model.UserProfile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	if p != nil {
		return *p, nil
	}
	rm, err := s.store.GetRoadmap(ctx, userID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("load roadmap: %w", err)
	}
	if rm == nil {
		return model.UserProfile{}, progression.ErrNoRoadmap
	}
	return model.UserProfile{Goal: rm.Goal}, nil
}
