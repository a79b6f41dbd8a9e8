package types

// ScoringNotes carries metadata the scorer reports alongside components.
type ScoringNotes struct {
	FoundGPA             string `json:"found_gpa"`
	AccommodationPresent bool   `json:"accommodation_present"`
	VisaMention          bool   `json:"visa_mention"`
}

// ScoringResult is the rubric scorer output for one text.
type ScoringResult struct {
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Components map[string]float64 `json:"components"`
	Notes      ScoringNotes       `json:"notes"`
	ModelRaw   string             `json:"model_raw,omitempty"`
}
