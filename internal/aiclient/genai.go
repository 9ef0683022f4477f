// Package aiclient implements the content generation capabilities on top of
// Gemini and an external weekly-menu HTTP service.
package aiclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"minutri/internal/content"
	"minutri/pkg/jsonx"
)

const DefaultModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("ai service returned empty response")

// contentGenerator is the slice of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIClient serves both TextGenerator and MenuGenerator through Gemini.
type GenAIClient struct {
	models contentGenerator
	model  string
	logger *zap.Logger
}

func NewGenAIClient(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGenAIClient(client.Models, model, logger), nil
}

func newGenAIClient(models contentGenerator, model string, logger *zap.Logger) *GenAIClient {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenAIClient{models: models, model: model, logger: logger}
}

func (c *GenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
	})
}

// GenerateWeeklyMenu asks the model for a JSON weekly menu and decodes it.
func (c *GenAIClient) GenerateWeeklyMenu(ctx context.Context, req content.WeeklyMenuRequest) (*content.WeeklyMenuResponse, error) {
	text, err := c.generate(ctx, buildMenuPrompt(req), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.8),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var payload content.WeeklyMenuResponse
	if err := jsonx.Decode(text, &payload); err != nil {
		c.logger.Warn("Unparseable weekly menu from model",
			zap.Int("start_day", req.StartDay),
			zap.Error(err),
		)
		return nil, err
	}
	for _, day := range payload.WeeklyMenu {
		if day.DecodeErr != nil {
			c.logger.Warn("Malformed day in weekly menu",
				zap.Int("start_day", req.StartDay),
				zap.Error(day.DecodeErr),
			)
		}
	}
	payload.Success = true
	return &payload, nil
}

func (c *GenAIClient) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func buildMenuPrompt(req content.WeeklyMenuRequest) string {
	var b strings.Builder
	b.WriteString("You are a professional nutritionist and meal planning expert. Create a meal plan based on the user's requirements.\n\n")

	b.WriteString("USER PROFILE:\n")
	if req.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d years\n", req.Age)
	}
	if req.Gender != "" {
		fmt.Fprintf(&b, "- Gender: %s\n", req.Gender)
	}
	if req.Weight > 0 {
		fmt.Fprintf(&b, "- Weight: %.1f kg\n", req.Weight)
	}
	if req.Height > 0 {
		fmt.Fprintf(&b, "- Height: %.1f cm\n", req.Height)
	}
	if req.Goal != "" {
		fmt.Fprintf(&b, "- Goal: %s\n", req.Goal)
	}
	if req.ActivityLevel != "" {
		fmt.Fprintf(&b, "- Activity Level: %s\n", req.ActivityLevel)
	}
	b.WriteString("\n")

	b.WriteString("DAILY TARGETS:\n")
	fmt.Fprintf(&b, "- Calories: %.0f\n", req.TotalCalories)
	fmt.Fprintf(&b, "- Protein: %.0fg\n", req.NutritionGoals.Protein)
	fmt.Fprintf(&b, "- Carbs: %.0fg\n", req.NutritionGoals.Carbs)
	fmt.Fprintf(&b, "- Fat: %.0fg\n", req.NutritionGoals.Fat)
	fmt.Fprintf(&b, "- Fiber: %.0fg\n", req.NutritionGoals.Fiber)
	b.WriteString("- Split: breakfast 25%, lunch 35%, dinner 30% of calories\n\n")

	if len(req.DietaryPreferences) > 0 {
		fmt.Fprintf(&b, "DIETARY PREFERENCES: %s\n\n", strings.Join(req.DietaryPreferences, ", "))
	}
	if len(req.Allergies) > 0 {
		fmt.Fprintf(&b, "ALLERGIES/FOODS TO AVOID: %s\n\n", strings.Join(req.Allergies, ", "))
	}

	days := req.Days
	if days <= 0 {
		days = content.DaysPerBatch
	}
	fmt.Fprintf(&b, "TASK:\nCreate %d consecutive days of meals starting at day %d. ", days, req.StartDay)
	b.WriteString("Each day has breakfast, lunch and dinner. Each meal has a name, a short description, ")
	b.WriteString("an ingredient list, preparation instructions and a nutrition breakdown.\n\n")

	b.WriteString("Respond with JSON only, in this shape:\n")
	b.WriteString(`{"weeklyMenu":[{"meals":{"breakfast":{"name":"","description":"","ingredients":[""],"instructions":"","nutrition":{"calories":0,"protein":0,"carbs":0,"fat":0}},"lunch":{},"dinner":{}}}]}`)
	b.WriteString("\n")
	return b.String()
}
