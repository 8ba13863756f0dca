package memory

// RatingPolicy instructs the backend how to score facts for relevance.
// Each example calibrates one end of the scale.
type RatingPolicy struct {
	Instruction string `json:"instruction"`
	Examples    struct {
		High   string `json:"high"`
		Medium string `json:"medium"`
		Low    string `json:"low"`
	} `json:"examples"`
}

// DefaultRatingPolicy is attached to every user EnsureUser creates.
func DefaultRatingPolicy() RatingPolicy {
	p := RatingPolicy{
		Instruction: "Rate facts by relevance and utility. Highly relevant facts directly impact " +
			"the user's ongoing goals or durable preferences. Low relevance facts are incidental " +
			"details that rarely influence future conversations.",
	}
	p.Examples.High = "The user is building an AI assistant that uses Zep for long-term memory."
	p.Examples.Medium = "The user prefers short, checklist-style answers."
	p.Examples.Low = "The user mentioned the weather today."
	return p
}
