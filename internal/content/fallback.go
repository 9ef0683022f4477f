package content

import (
	"fmt"
	"math"
	"strings"

	"minutri/internal/model"
	"minutri/internal/nutrition"
)

type mealTemplate struct {
	name        string
	description string
	ingredients []string
}

var breakfastTable = []mealTemplate{
	{"Greek yogurt bowl", "Greek yogurt with oats, berries and a drizzle of honey", []string{"Greek yogurt", "Rolled oats", "Mixed berries", "Honey", "Chia seeds"}},
	{"Veggie omelette", "Two-egg omelette with spinach and tomato, served with wholegrain toast", []string{"Eggs", "Spinach", "Tomato", "Wholegrain bread", "Olive oil"}},
	{"Overnight oats", "Oats soaked in milk with banana and peanut butter", []string{"Rolled oats", "Milk", "Banana", "Peanut butter", "Cinnamon"}},
	{"Avocado toast", "Wholegrain toast topped with avocado and a poached egg", []string{"Wholegrain bread", "Avocado", "Eggs", "Lemon", "Chili flakes"}},
	{"Protein smoothie", "Blended smoothie with whey, banana, spinach and almond milk", []string{"Whey protein", "Banana", "Spinach", "Almond milk", "Flaxseed"}},
}

var lunchTable = []mealTemplate{
	{"Grilled chicken salad", "Grilled chicken breast over mixed greens with quinoa", []string{"Chicken breast", "Mixed greens", "Quinoa", "Cherry tomatoes", "Olive oil", "Lemon"}},
	{"Lentil and vegetable soup", "Hearty lentil soup with carrots and celery, with a slice of rye bread", []string{"Lentils", "Carrots", "Celery", "Onion", "Rye bread", "Olive oil"}},
	{"Turkey wrap", "Wholewheat wrap with turkey, hummus and crunchy vegetables", []string{"Wholewheat tortilla", "Turkey breast", "Hummus", "Cucumber", "Lettuce"}},
	{"Tuna rice bowl", "Brown rice bowl with tuna, edamame and avocado", []string{"Brown rice", "Tuna", "Edamame", "Avocado", "Soy sauce"}},
	{"Chickpea buddha bowl", "Roasted chickpeas with sweet potato, kale and tahini", []string{"Chickpeas", "Sweet potato", "Kale", "Tahini", "Lemon"}},
}

var dinnerTable = []mealTemplate{
	{"Baked salmon", "Oven-baked salmon with roasted broccoli and sweet potato", []string{"Salmon fillet", "Broccoli", "Sweet potato", "Olive oil", "Garlic"}},
	{"Beef stir-fry", "Lean beef stir-fried with peppers over brown rice", []string{"Lean beef", "Bell peppers", "Brown rice", "Soy sauce", "Ginger"}},
	{"Tofu curry", "Tofu and vegetable curry with basmati rice", []string{"Tofu", "Coconut milk", "Spinach", "Basmati rice", "Curry paste"}},
	{"Chicken and vegetables", "Roast chicken thigh with zucchini, carrots and potatoes", []string{"Chicken thigh", "Zucchini", "Carrots", "Potatoes", "Rosemary"}},
	{"Turkey meatballs", "Turkey meatballs in tomato sauce with wholewheat pasta", []string{"Ground turkey", "Tomato sauce", "Wholewheat pasta", "Onion", "Basil"}},
}

func tableFor(slot nutrition.MealSlot) []mealTemplate {
	switch slot {
	case nutrition.Breakfast:
		return breakfastTable
	case nutrition.Lunch:
		return lunchTable
	case nutrition.Dinner:
		return dinnerTable
	}
	return breakfastTable
}

// containsAllergen matches allergens case-insensitively against ingredient names.
func containsAllergen(t mealTemplate, allergies []string) bool {
	for _, a := range allergies {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		for _, ing := range t.ingredients {
			if strings.Contains(strings.ToLower(ing), a) {
				return true
			}
		}
	}
	return false
}

// pickTemplate cycles the table by day % len, skipping templates that carry
// a listed allergen. If every template is excluded the plain rotation wins.
func pickTemplate(table []mealTemplate, day int, allergies []string) mealTemplate {
	n := len(table)
	for off := 0; off < n; off++ {
		t := table[(day+off)%n]
		if !containsAllergen(t, allergies) {
			return t
		}
	}
	return table[day%n]
}

// FallbackMeal builds a deterministic meal for the slot and day, sized to the
// computed targets.
func FallbackMeal(slot nutrition.MealSlot, day int, targets nutrition.Targets, profile model.UserProfile) model.Meal {
	t := pickTemplate(tableFor(slot), day, profile.Allergies)
	n := targets.ForMeal(slot)
	return model.Meal{
		Name:        t.name,
		Description: fmt.Sprintf("%s (about %.0f kcal)", t.description, n.Calories),
		Ingredients: append([]string(nil), t.ingredients...),
		Preparation: TemplatePreparation(t.name, t.ingredients),
		Nutrition:   n,
		Source:      model.SourceFallback,
	}
}

// TemplatePreparation is the generic instruction text used when no recipe
// text could be generated. It is never empty.
func TemplatePreparation(name string, ingredients []string) string {
	if name == "" {
		name = "this meal"
	}
	if len(ingredients) == 0 {
		return fmt.Sprintf("Prepare %s with fresh, minimally processed ingredients and keep portions in line with your daily targets.", name)
	}
	return fmt.Sprintf("Prepare %s: wash and portion %s. Cook proteins thoroughly, keep added oils light, and plate with the vegetables.",
		name, strings.Join(ingredients, ", "))
}

type exerciseTemplate struct {
	name            string
	kind            model.ExerciseType
	duration        int
	description     string
	instructions    []string
	lowImpact       []string
	equipment       []string
	recommendations []string
}

// weeklyExercises is keyed by day % 7.
var weeklyExercises = [7]exerciseTemplate{
	{
		name: "Full-body strength", kind: model.ExerciseStrength, duration: 40,
		description:     "Compound bodyweight and dumbbell circuit",
		instructions:    []string{"Warm up for 5 minutes", "3 rounds: 12 squats, 10 push-ups, 12 dumbbell rows, 30s plank", "Rest 60s between rounds", "Cool down and stretch"},
		lowImpact:       []string{"Warm up for 5 minutes", "3 rounds: 10 chair squats, 10 wall push-ups, 12 light band rows", "Rest 90s between rounds", "Gentle stretch to finish"},
		equipment:       []string{"Dumbbells", "Mat"},
		recommendations: []string{"Keep a neutral spine", "Stop if you feel sharp pain"},
	},
	{
		name: "Steady cardio", kind: model.ExerciseCardio, duration: 30,
		description:     "Moderate-intensity continuous cardio",
		instructions:    []string{"Warm up with 5 minutes of easy pace", "20 minutes jogging or cycling at a conversational pace", "5 minutes cool-down walk"},
		lowImpact:       []string{"Warm up with 5 minutes of easy walking", "20 minutes brisk walking or stationary cycling", "5 minutes slow walk"},
		equipment:       []string{"Running shoes"},
		recommendations: []string{"Stay hydrated", "Aim for a pace where you can still talk"},
	},
	{
		name: "Rest and mobility", kind: model.ExerciseFlexibility, duration: 15,
		description:     "Rest day with light mobility work",
		instructions:    []string{"Neck and shoulder rolls", "Hip circles", "Cat-cow stretches", "Deep breathing for 3 minutes"},
		lowImpact:       []string{"Seated neck and shoulder rolls", "Seated hip circles", "Deep breathing for 3 minutes"},
		equipment:       []string{"Mat"},
		recommendations: []string{"Recovery is part of progress", "Prioritise sleep tonight"},
	},
	{
		name: "Mixed circuit", kind: model.ExerciseMixed, duration: 35,
		description:     "Alternating strength and cardio intervals",
		instructions:    []string{"Warm up for 5 minutes", "4 rounds: 1 min jumping jacks, 12 lunges, 1 min high knees, 10 glute bridges", "Cool down"},
		lowImpact:       []string{"Warm up for 5 minutes", "4 rounds: 1 min marching in place, 8 supported lunges, 10 glute bridges", "Cool down"},
		equipment:       []string{"Mat"},
		recommendations: []string{"Control each repetition", "Breathe steadily"},
	},
	{
		name: "HIIT intervals", kind: model.ExerciseCardio, duration: 25,
		description:     "High-intensity interval training",
		instructions:    []string{"Warm up for 5 minutes", "8 rounds: 30s sprint or burpees, 60s easy", "Cool down for 5 minutes"},
		lowImpact:       []string{"Warm up for 5 minutes", "8 rounds: 30s fast walking, 60s slow walking", "Cool down for 5 minutes"},
		equipment:       []string{"Timer"},
		recommendations: []string{"Go hard only on the work intervals", "Skip if you feel unwell"},
	},
	{
		name: "Flexibility flow", kind: model.ExerciseFlexibility, duration: 30,
		description:     "Yoga-inspired stretching sequence",
		instructions:    []string{"Sun salutation x3", "Hamstring, hip flexor and chest stretches, 45s each", "Child's pose and breathing"},
		lowImpact:       []string{"Chair-supported stretches for hamstrings and hips, 30s each", "Seated chest opener", "Breathing exercises"},
		equipment:       []string{"Mat"},
		recommendations: []string{"Never bounce in a stretch", "Move within a comfortable range"},
	},
	{
		name: "Active recovery walk", kind: model.ExerciseCardio, duration: 30,
		description:     "Easy-paced walk to support recovery",
		instructions:    []string{"Walk at an easy pace for 30 minutes", "Finish with light calf and quad stretches"},
		lowImpact:       []string{"Walk at a relaxed pace for 20-30 minutes", "Finish with gentle supported stretches"},
		equipment:       []string{"Comfortable shoes"},
		recommendations: []string{"Enjoy being outdoors if possible"},
	},
}

// FallbackExercise picks the day % 7 rotation entry and adjusts it for the
// user's age bracket.
func FallbackExercise(day int, profile model.UserProfile) model.Exercise {
	t := weeklyExercises[((day%7)+7)%7]
	ex := model.Exercise{
		Name:            t.name,
		Type:            t.kind,
		DurationMinutes: t.duration,
		Description:     t.description,
		Instructions:    append([]string(nil), t.instructions...),
		Equipment:       append([]string(nil), t.equipment...),
		Recommendations: append([]string(nil), t.recommendations...),
		Source:          model.SourceFallback,
	}

	switch {
	case profile.Age >= 60:
		ex.DurationMinutes = scaleMinutes(t.duration, 0.8)
		ex.Instructions = append([]string(nil), t.lowImpact...)
		ex.Recommendations = append(ex.Recommendations, "Keep the intensity low-impact and check with your doctor before increasing it")
	case profile.Age > 0 && profile.Age < 18:
		ex.DurationMinutes = scaleMinutes(t.duration, 0.9)
		ex.Recommendations = append(ex.Recommendations, "Exercise under adult supervision")
	}
	return ex
}

func scaleMinutes(minutes int, factor float64) int {
	return int(math.Round(float64(minutes) * factor))
}

var tipsByGoal = map[model.Goal][]string{
	model.GoalWeightLoss: {
		"Fill half your plate with vegetables",
		"Drink a glass of water before each meal",
		"Keep protein in every meal to stay full",
		"Plan tomorrow's meals tonight",
		"Walk for ten minutes after dinner",
	},
	model.GoalWeightGain: {
		"Add a calorie-dense snack between meals",
		"Use whole milk or nut butters to boost calories",
		"Eat at regular times, even without hunger",
		"Track your weight weekly, not daily",
	},
	model.GoalMuscleGain: {
		"Spread protein evenly across your meals",
		"Eat a carb and protein meal after training",
		"Sleep at least seven hours for recovery",
		"Progressively increase training load",
	},
	model.GoalMaintenance: {
		"Keep meal times consistent",
		"Stay active every day, even lightly",
		"Prefer whole foods over processed ones",
		"Check in with your hunger before snacking",
	},
}

// Tips returns two rotating tips for the goal and day.
func Tips(goal model.Goal, day int) []string {
	pool, ok := tipsByGoal[goal]
	if !ok || len(pool) == 0 {
		pool = tipsByGoal[model.GoalMaintenance]
	}
	n := len(pool)
	return []string{pool[day%n], pool[(day+1)%n]}
}
