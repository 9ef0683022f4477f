package model

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// UserProfile is the subset of the user's onboarding answers the content
// pipeline needs. Zero values mean "not provided".
type UserProfile struct {
	Age                int           `json:"age,omitempty"`
	WeightKg           float64       `json:"weight_kg,omitempty"`
	HeightCm           float64       `json:"height_cm,omitempty"`
	Gender             Gender        `json:"gender,omitempty"`
	ActivityLevel      ActivityLevel `json:"activity_level,omitempty"`
	Goal               Goal          `json:"goal"`
	DietaryPreferences []string      `json:"dietary_preferences,omitempty"`
	Allergies          []string      `json:"allergies,omitempty"`
}
