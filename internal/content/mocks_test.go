package content

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"minutri/internal/model"
)

type MockMenuGenerator struct {
	GenerateFunc func(ctx context.Context, req WeeklyMenuRequest) (*WeeklyMenuResponse, error)

	mu    sync.Mutex
	Calls []WeeklyMenuRequest
}

func (m *MockMenuGenerator) GenerateWeeklyMenu(ctx context.Context, req WeeklyMenuRequest) (*WeeklyMenuResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()
	return m.GenerateFunc(ctx, req)
}

type MockTextGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	Prompts []string
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	return m.GenerateFunc(ctx, prompt)
}

func (m *MockTextGenerator) count(marker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.Prompts {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}

const (
	exerciseMarker = "personal trainer"
	recipeMarker   = "preparation instructions"
)

func menuMeal(day int, slot string) *MenuMeal {
	return &MenuMeal{
		Name:         fmt.Sprintf("AI %s %d", slot, day),
		Ingredients:  []string{"Oats", fmt.Sprintf("Item %d", day)},
		Instructions: "Cook it.",
		Nutrition:    &model.Nutrition{Calories: 500, Protein: 30, Carbs: 50, Fat: 15},
	}
}

func menuDay(day int) MenuDay {
	return MenuDay{Meals: MenuMeals{
		Breakfast: menuMeal(day, "breakfast"),
		Lunch:     menuMeal(day, "lunch"),
		Dinner:    menuMeal(day, "dinner"),
	}}
}

func fullWeek(req WeeklyMenuRequest) *WeeklyMenuResponse {
	resp := &WeeklyMenuResponse{Success: true}
	for i := 0; i < req.Days; i++ {
		resp.WeeklyMenu = append(resp.WeeklyMenu, menuDay(req.StartDay+i))
	}
	return resp
}

const exerciseJSON = "```json\n{\"name\":\"Park run\",\"type\":\"Cardio\",\"durationMinutes\":25,\"description\":\"Easy run\",\"instructions\":[\"Warm up\",\"Run\"],\"equipment\":[],\"recommendations\":[\"Hydrate\"]}\n```"
