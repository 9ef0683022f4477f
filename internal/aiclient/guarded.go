package aiclient

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"minutri/internal/content"
	"minutri/pkg/circuitbreaker"
	"minutri/pkg/metrics"
)

const (
	capabilityMenu = "weekly_menu"
	capabilityText = "text"
)

// GuardConfig bounds every AI call.
type GuardConfig struct {
	Timeout time.Duration
	Breaker circuitbreaker.Config
}

// Guarded wraps the raw capabilities with a circuit breaker per capability,
// a per-call timeout and latency metrics.
type Guarded struct {
	menu        content.MenuGenerator
	text        content.TextGenerator
	menuBreaker *circuitbreaker.CircuitBreaker
	textBreaker *circuitbreaker.CircuitBreaker
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGuarded accepts nil for either capability.
func NewGuarded(menu content.MenuGenerator, text content.TextGenerator, cfg GuardConfig, logger *zap.Logger) *Guarded {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guarded{
		menu:        menu,
		text:        text,
		menuBreaker: circuitbreaker.NewCircuitBreaker(cfg.Breaker),
		textBreaker: circuitbreaker.NewCircuitBreaker(cfg.Breaker),
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Menu returns the guarded weekly-menu capability, or nil when unconfigured.
func (g *Guarded) Menu() content.MenuGenerator {
	if g.menu == nil {
		return nil
	}
	return guardedMenu{g}
}

// Text returns the guarded text capability, or nil when unconfigured.
func (g *Guarded) Text() content.TextGenerator {
	if g.text == nil {
		return nil
	}
	return guardedText{g}
}

// BreakerStates reports the state of each configured breaker.
func (g *Guarded) BreakerStates() map[string]string {
	states := make(map[string]string, 2)
	if g.menu != nil {
		states[capabilityMenu] = g.menuBreaker.GetState().String()
	}
	if g.text != nil {
		states[capabilityText] = g.textBreaker.GetState().String()
	}
	return states
}

func (g *Guarded) run(ctx context.Context, capability string, cb *circuitbreaker.CircuitBreaker, fn func(context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	err := cb.Execute(func() error { return fn(ctx) })
	status := "success"
	if err != nil {
		status = "error"
		if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
			status = "rejected"
		}
		g.logger.Debug("AI call failed",
			zap.String("capability", capability),
			zap.String("status", status),
			zap.Error(err),
		)
	}
	metrics.RecordAICallLatency(capability, status, time.Since(start))
	return err
}

type guardedMenu struct{ g *Guarded }

func (m guardedMenu) GenerateWeeklyMenu(ctx context.Context, req content.WeeklyMenuRequest) (*content.WeeklyMenuResponse, error) {
	var resp *content.WeeklyMenuResponse
	err := m.g.run(ctx, capabilityMenu, m.g.menuBreaker, func(ctx context.Context) error {
		var err error
		resp, err = m.g.menu.GenerateWeeklyMenu(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

type guardedText struct{ g *Guarded }

func (t guardedText) GenerateText(ctx context.Context, prompt string) (string, error) {
	var text string
	err := t.g.run(ctx, capabilityText, t.g.textBreaker, func(ctx context.Context) error {
		var err error
		text, err = t.g.text.GenerateText(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
