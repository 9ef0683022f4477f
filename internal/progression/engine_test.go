package progression

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mqcontracts "minutri/contracts/mq"
	"minutri/internal/adherence"
	"minutri/internal/model"
	"minutri/internal/store"
)

const userID = 42

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// dayAt returns an instant on the given 1-based module day of a module
// starting at s.
func dayAt(s time.Time, day int) time.Time {
	return s.AddDate(0, 0, day-1).Add(12 * time.Hour)
}

type MockPublisher struct {
	mu       sync.Mutex
	Err      error
	Routings []string
	Payloads []mqcontracts.ModuleEventPayload
}

func (m *MockPublisher) Publish(routingKey string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Routings = append(m.Routings, routingKey)
	if p, ok := payload.(mqcontracts.ModuleEventPayload); ok {
		m.Payloads = append(m.Payloads, p)
	}
	return m.Err
}

type MockScheduler struct {
	Scheduled []model.Module
}

func (m *MockScheduler) ScheduleContent(_ context.Context, _ int, module model.Module) {
	m.Scheduled = append(m.Scheduled, module)
}

type fixture struct {
	store     *store.Store
	publisher *MockPublisher
	scheduler *MockScheduler
	engine    *Engine
}

func newFixture(t *testing.T, count int) *fixture {
	t.Helper()
	modules := make([]model.Module, count)
	for i := range modules {
		s := start.AddDate(0, 0, i*model.ModuleDays)
		modules[i] = model.Module{
			ID:              i + 1,
			StartDate:       s,
			EndDate:         s.AddDate(0, 0, model.ModuleDays),
			MilestoneTarget: 90 - float64(i+1)*2,
			Status:          model.ModuleLocked,
			TargetAdherence: 85,
		}
	}
	modules[0].Status = model.ModuleActive

	st := store.NewMemoryStore(nil)
	require.NoError(t, st.ReplacePlan(context.Background(), userID, store.Plan{
		Roadmap:  model.Roadmap{Goal: model.GoalWeightLoss, CurrentValue: 90, TargetValue: 90 - float64(count)*2, TimeframeMonths: count, CreatedAt: start, ModuleCount: count},
		Modules:  modules,
		Tracking: adherence.NewTracking(start),
	}))

	f := &fixture{store: st, publisher: &MockPublisher{}, scheduler: &MockScheduler{}}
	f.engine = NewEngine(st, f.scheduler, f.publisher, nil)
	return f
}

// checkIn marks every field of the first n days of a module.
func (f *fixture) checkIn(t *testing.T, moduleID, n int) {
	t.Helper()
	ctx := context.Background()
	days, err := f.store.GetTracking(ctx, userID, moduleID)
	require.NoError(t, err)
	for d := 1; d <= n; d++ {
		for _, field := range []model.TrackingField{model.FieldBreakfast, model.FieldLunch, model.FieldDinner, model.FieldExercise} {
			days, err = adherence.UpdateDay(days, d, field, true)
			require.NoError(t, err)
		}
	}
	require.NoError(t, f.store.SaveTracking(ctx, userID, moduleID, days))
}

func (f *fixture) modules(t *testing.T) []model.Module {
	t.Helper()
	modules, err := f.store.GetModules(context.Background(), userID)
	require.NoError(t, err)
	return modules
}

func TestEvaluate_MidModuleUpdatesPercentages(t *testing.T) {
	f := newFixture(t, 3)
	f.checkIn(t, 1, 3)

	out, err := f.engine.Evaluate(context.Background(), userID, dayAt(start, 15))
	require.NoError(t, err)

	assert.Equal(t, 15, out.CurrentDay)
	assert.Equal(t, 50, out.Module.ProgressPercent)
	assert.Equal(t, 10, out.Module.AdherencePercent)
	assert.False(t, out.Completed)
	assert.False(t, out.Module.Stalled)

	stored := f.modules(t)
	assert.Equal(t, 10, stored[0].AdherencePercent)
	assert.Equal(t, model.ModuleActive, stored[0].Status)
	assert.Equal(t, model.ModuleLocked, stored[1].Status)
	assert.Empty(t, f.publisher.Routings)
}

func TestEvaluate_CompletesAndUnlocksAtomically(t *testing.T) {
	f := newFixture(t, 3)
	f.checkIn(t, 1, 26) // 104/120 = 87%

	out, err := f.engine.Evaluate(context.Background(), userID, dayAt(start, 30))
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.False(t, out.Finished)
	require.NotNil(t, out.Unlocked)
	assert.Equal(t, 2, out.Unlocked.ID)
	assert.Equal(t, 87, out.Module.AdherencePercent)

	stored := f.modules(t)
	assert.Equal(t, model.ModuleCompleted, stored[0].Status)
	assert.Equal(t, 100, stored[0].ProgressPercent)
	assert.Equal(t, model.ModuleActive, stored[1].Status)
	assert.Equal(t, model.ModuleLocked, stored[2].Status)
	assert.Equal(t, 1, countActive(stored))

	tracking, err := f.store.GetTracking(context.Background(), userID, 2)
	require.NoError(t, err)
	require.Len(t, tracking, model.ModuleDays)
	assert.Equal(t, stored[1].StartDate, tracking[0].Date)
	assert.Equal(t, 0, adherence.CalculateAdherence(tracking))

	assert.Equal(t, []string{mqcontracts.RoutingModuleCompleted, mqcontracts.RoutingModuleUnlocked}, f.publisher.Routings)
	require.Len(t, f.scheduler.Scheduled, 1)
	assert.Equal(t, 2, f.scheduler.Scheduled[0].ID)
}

func TestEvaluate_StallIsObservableAndIdempotent(t *testing.T) {
	f := newFixture(t, 2)
	f.checkIn(t, 1, 20) // 80/120 = 67%
	ctx := context.Background()

	first, err := f.engine.Evaluate(ctx, userID, dayAt(start, 30))
	require.NoError(t, err)
	assert.True(t, first.Module.Stalled)
	assert.Equal(t, model.ModuleActive, first.Module.Status)
	assert.False(t, first.Completed)
	snapshot := f.modules(t)

	// Days keep passing; the module stays on day 30 and nothing changes.
	for _, at := range []time.Time{dayAt(start, 30), dayAt(start, 45), dayAt(start, 90)} {
		again, err := f.engine.Evaluate(ctx, userID, at)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, snapshot, f.modules(t))
	assert.Equal(t, []string{mqcontracts.RoutingModuleStalled}, f.publisher.Routings)
	assert.Empty(t, f.scheduler.Scheduled)

	// Late check-ins that lift adherence over the bar complete the module.
	f.checkIn(t, 1, 26)
	out, err := f.engine.Evaluate(ctx, userID, dayAt(start, 31))
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.False(t, out.Module.Stalled)
	assert.Equal(t, model.ModuleActive, f.modules(t)[1].Status)
}

func TestOverride(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a module that is not stalled", func(t *testing.T) {
		f := newFixture(t, 2)
		_, err := f.engine.Override(ctx, userID, 1, dayAt(start, 10))
		require.ErrorIs(t, err, ErrNotStalled)
		assert.Equal(t, model.ModuleActive, f.modules(t)[0].Status)
	})

	t.Run("rejects a locked module", func(t *testing.T) {
		f := newFixture(t, 2)
		_, err := f.engine.Override(ctx, userID, 2, dayAt(start, 30))
		require.ErrorIs(t, err, ErrNotActive)
	})

	t.Run("rejects an unknown module", func(t *testing.T) {
		f := newFixture(t, 2)
		_, err := f.engine.Override(ctx, userID, 9, dayAt(start, 30))
		require.ErrorIs(t, err, ErrModuleNotFound)
	})

	t.Run("completes a stalled module", func(t *testing.T) {
		f := newFixture(t, 2)
		f.checkIn(t, 1, 10)
		_, err := f.engine.Evaluate(ctx, userID, dayAt(start, 30))
		require.NoError(t, err)

		out, err := f.engine.Override(ctx, userID, 1, dayAt(start, 30))
		require.NoError(t, err)
		assert.True(t, out.Completed)
		require.NotNil(t, out.Unlocked)
		assert.Equal(t, 2, out.Unlocked.ID)

		stored := f.modules(t)
		assert.Equal(t, model.ModuleCompleted, stored[0].Status)
		assert.False(t, stored[0].Stalled)
		assert.Equal(t, model.ModuleActive, stored[1].Status)

		require.NotEmpty(t, f.publisher.Payloads)
		completed := f.publisher.Payloads[len(f.publisher.Payloads)-2]
		assert.True(t, completed.Overridden)
		assert.NotEmpty(t, completed.EventID)
	})
}

func TestEvaluate_LastModuleFinishesRoadmap(t *testing.T) {
	f := newFixture(t, 1)
	f.checkIn(t, 1, 30)
	ctx := context.Background()

	out, err := f.engine.Evaluate(ctx, userID, dayAt(start, 30))
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.True(t, out.Finished)
	assert.Nil(t, out.Unlocked)
	assert.Empty(t, f.scheduler.Scheduled)
	assert.Equal(t, []string{mqcontracts.RoutingModuleCompleted}, f.publisher.Routings)

	again, err := f.engine.Evaluate(ctx, userID, dayAt(start, 40))
	require.NoError(t, err)
	assert.True(t, again.Finished)
	assert.False(t, again.Completed)
	assert.Len(t, f.publisher.Routings, 1)
}

func TestEvaluate_NoRoadmap(t *testing.T) {
	e := NewEngine(store.NewMemoryStore(nil), nil, nil, nil)
	_, err := e.Evaluate(context.Background(), userID, start)
	require.ErrorIs(t, err, ErrNoRoadmap)
}

func TestEvaluate_InitializesMissingTracking(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	require.NoError(t, f.store.SaveTracking(ctx, userID, 1, nil))

	out, err := f.engine.Evaluate(ctx, userID, dayAt(start, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Module.AdherencePercent)

	tracking, err := f.store.GetTracking(ctx, userID, 1)
	require.NoError(t, err)
	assert.Len(t, tracking, model.ModuleDays)
}

func TestEvaluate_ReactivatesAfterInterruptedTransition(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	modules := f.modules(t)
	modules[0].Status = model.ModuleCompleted
	require.NoError(t, f.store.SaveModules(ctx, userID, modules))

	out, err := f.engine.Evaluate(ctx, userID, dayAt(modules[1].StartDate, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Module.ID)
	assert.Equal(t, 3, out.CurrentDay)

	stored := f.modules(t)
	assert.Equal(t, model.ModuleActive, stored[1].Status)
	assert.Equal(t, 1, countActive(stored))
}

func TestEvaluate_PublishFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t, 2)
	f.publisher.Err = errors.New("broker down")
	f.checkIn(t, 1, 30)

	out, err := f.engine.Evaluate(context.Background(), userID, dayAt(start, 30))
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.Equal(t, model.ModuleActive, f.modules(t)[1].Status)
}

func countActive(modules []model.Module) int {
	n := 0
	for _, m := range modules {
		if m.Status == model.ModuleActive {
			n++
		}
	}
	return n
}

func TestEvaluate_DoesNotReactivatePastUnfinishedModule(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	modules := f.modules(t)
	modules[0].Status = model.ModuleStatus("paused")
	require.NoError(t, f.store.SaveModules(ctx, userID, modules))

	_, err := f.engine.Evaluate(ctx, userID, dayAt(modules[1].StartDate, 3))
	require.ErrorIs(t, err, ErrInconsistentModules)

	stored := f.modules(t)
	assert.Equal(t, model.ModuleLocked, stored[1].Status)
	assert.Equal(t, 0, countActive(stored))
}

func TestEvaluate_CompletedNextModuleIsNotFinished(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	modules := f.modules(t)
	modules[1].Status = model.ModuleCompleted
	require.NoError(t, f.store.SaveModules(ctx, userID, modules))
	f.checkIn(t, 1, 30)

	out, err := f.engine.Evaluate(ctx, userID, dayAt(start, 30))
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.False(t, out.Finished)
	assert.Nil(t, out.Unlocked)
	assert.Empty(t, f.scheduler.Scheduled)

	stored := f.modules(t)
	assert.Equal(t, model.ModuleCompleted, stored[0].Status)
	assert.Equal(t, model.ModuleLocked, stored[2].Status)
}
