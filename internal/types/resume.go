package types

import (
	"encoding/json"
	"strconv"
)

// ParsedResume is the structured extraction produced by the resume parser.
type ParsedResume struct {
	FirstName            string           `json:"first_name"`
	LastName             string           `json:"last_name"`
	Email                string           `json:"email"`
	Phone                string           `json:"phone"`
	Age                  *int             `json:"age"`
	ExperienceYears      *float64         `json:"experience_years"`
	CurrentTitle         string           `json:"current_title"`
	Skills               []string         `json:"skills"`
	Education            []Education      `json:"education"`
	WorkExperience       []WorkExperience `json:"work_experience"`
	Certifications       []string         `json:"certifications"`
	Languages            []string         `json:"languages"`
	CareerGaps           []string         `json:"career_gaps"`
	ManagementExperience bool             `json:"management_experience"`
	TeamSizeManaged      *int             `json:"team_size_managed"`
	NotableAchievements  []string         `json:"notable_achievements"`
	Summary              string           `json:"summary"`
}

// Education is a single degree entry.
type Education struct {
	Degree      string  `json:"degree"`
	Institution string  `json:"institution"`
	Field       string  `json:"field"`
	GPA         *string `json:"gpa"`
	Year        *string `json:"year"`
}

// WorkExperience is a single position held.
type WorkExperience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// UnmarshalJSON accepts GPA and year as either strings or numbers, since
// models emit both.
func (e *Education) UnmarshalJSON(data []byte) error {
	var raw struct {
		Degree      string `json:"degree"`
		Institution string `json:"institution"`
		Field       string `json:"field"`
		GPA         any    `json:"gpa"`
		Year        any    `json:"year"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Degree = raw.Degree
	e.Institution = raw.Institution
	e.Field = raw.Field
	e.GPA = looseString(raw.GPA)
	e.Year = looseString(raw.Year)
	return nil
}

func looseString(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}
