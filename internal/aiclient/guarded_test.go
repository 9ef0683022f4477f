package aiclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minutri/internal/content"
	"minutri/pkg/circuitbreaker"
)

type MockText struct {
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)
	Calls            int
}

func (m *MockText) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	return m.GenerateTextFunc(ctx, prompt)
}

type MockMenu struct {
	GenerateWeeklyMenuFunc func(ctx context.Context, req content.WeeklyMenuRequest) (*content.WeeklyMenuResponse, error)
	Calls                  int
}

func (m *MockMenu) GenerateWeeklyMenu(ctx context.Context, req content.WeeklyMenuRequest) (*content.WeeklyMenuResponse, error) {
	m.Calls++
	return m.GenerateWeeklyMenuFunc(ctx, req)
}

func TestGuarded_NilCapabilitiesStayNil(t *testing.T) {
	g := NewGuarded(nil, nil, GuardConfig{}, nil)
	assert.Nil(t, g.Menu())
	assert.Nil(t, g.Text())
	assert.Empty(t, g.BreakerStates())
}

func TestGuarded_PassesThrough(t *testing.T) {
	text := &MockText{GenerateTextFunc: func(context.Context, string) (string, error) { return "ok", nil }}
	menu := &MockMenu{GenerateWeeklyMenuFunc: func(context.Context, content.WeeklyMenuRequest) (*content.WeeklyMenuResponse, error) {
		return &content.WeeklyMenuResponse{Success: true}, nil
	}}
	g := NewGuarded(menu, text, GuardConfig{}, nil)

	out, err := g.Text().GenerateText(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	resp, err := g.Menu().GenerateWeeklyMenu(context.Background(), content.WeeklyMenuRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]string{"weekly_menu": "closed", "text": "closed"}, g.BreakerStates())
}

func TestGuarded_BreakerOpensPerCapability(t *testing.T) {
	boom := errors.New("upstream down")
	text := &MockText{GenerateTextFunc: func(context.Context, string) (string, error) { return "", boom }}
	menu := &MockMenu{GenerateWeeklyMenuFunc: func(context.Context, content.WeeklyMenuRequest) (*content.WeeklyMenuResponse, error) {
		return &content.WeeklyMenuResponse{Success: true}, nil
	}}
	g := NewGuarded(menu, text, GuardConfig{Breaker: circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Hour}}, nil)

	for i := 0; i < 2; i++ {
		_, err := g.Text().GenerateText(context.Background(), "p")
		require.ErrorIs(t, err, boom)
	}
	_, err := g.Text().GenerateText(context.Background(), "p")
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitBreakerOpen)
	assert.Equal(t, 2, text.Calls)

	_, err = g.Menu().GenerateWeeklyMenu(context.Background(), content.WeeklyMenuRequest{})
	require.NoError(t, err)
	assert.Equal(t, "open", g.BreakerStates()["text"])
	assert.Equal(t, "closed", g.BreakerStates()["weekly_menu"])
}

func TestGuarded_TimeoutBoundsCall(t *testing.T) {
	text := &MockText{GenerateTextFunc: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := NewGuarded(nil, text, GuardConfig{Timeout: 10 * time.Millisecond}, nil)

	_, err := g.Text().GenerateText(context.Background(), "p")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
