package content

import (
	"fmt"
	"strings"
	"time"

	"minutri/internal/model"
)

func buildExercisePrompt(p model.UserProfile, day int, date time.Time) string {
	var b strings.Builder
	b.WriteString("You are a certified personal trainer. Plan one exercise session for today.\n\n")
	b.WriteString("USER PROFILE:\n")
	if p.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d years\n", p.Age)
	}
	if p.WeightKg > 0 {
		fmt.Fprintf(&b, "- Weight: %.1f kg\n", p.WeightKg)
	}
	if p.HeightCm > 0 {
		fmt.Fprintf(&b, "- Height: %.0f cm\n", p.HeightCm)
	}
	if p.Gender != "" {
		fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	}
	if p.ActivityLevel != "" {
		fmt.Fprintf(&b, "- Activity level: %s\n", p.ActivityLevel)
	}
	fmt.Fprintf(&b, "- Goal: %s\n\n", p.Goal)
	fmt.Fprintf(&b, "Day %d of the module, %s. Vary the session with the day of the week.\n\n", day, date.Weekday())
	b.WriteString("Respond with ONLY a JSON object of this shape:\n")
	b.WriteString(`{"name": string, "type": "cardio"|"strength"|"flexibility"|"mixed", "durationMinutes": number, "description": string, "instructions": [string], "equipment": [string], "recommendations": [string]}`)
	b.WriteString("\n")
	return b.String()
}

func buildRecipePrompt(m model.Meal, goal model.Goal) string {
	var b strings.Builder
	b.WriteString("You are a professional cook and nutritionist.\n")
	fmt.Fprintf(&b, "Write short step-by-step preparation instructions for %q.\n", m.Name)
	fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(m.Ingredients, ", "))
	fmt.Fprintf(&b, "The user's goal is %s; keep the method consistent with it.\n", goal)
	b.WriteString("Answer in plain text, no more than six steps.\n")
	return b.String()
}
