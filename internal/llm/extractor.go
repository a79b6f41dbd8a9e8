// Package llm - extractor.go provides schema-driven structured extraction prompts.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "Resume")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt renders the output structure the model must follow.
// The input text is not embedded; callers pass it as a separate user turn.
func BuildExtractionPrompt(schema ExtractionSchema) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "\"string\""
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent values.\n")
	sb.WriteString("- Use null for unknown numbers and empty lists for missing lists.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")

	return sb.String()
}

// ResumeSchema returns the extraction schema for candidate resumes.
func ResumeSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "Resume",
		Description: `You are an expert resume parser. Extract structured candidate information from the resume text.
Do not guess protected attributes. Only report age when the resume states it explicitly.`,
		Fields: []SchemaField{
			{Name: "first_name", Description: "Candidate first name", Required: true},
			{Name: "last_name", Description: "Candidate last name", Required: true},
			{Name: "email", Description: "Contact email"},
			{Name: "phone", Description: "Contact phone"},
			{Name: "age", Type: "number|null", Description: "Only if explicitly stated"},
			{Name: "experience_years", Type: "number|null", Description: "Total years of professional experience", Required: true},
			{Name: "current_title", Description: "Most recent job title"},
			{Name: "skills", Type: "[\"string\"]", Description: "Technical and professional skills", Required: true},
			{
				Name:        "education",
				Type:        `[{"degree": "string", "institution": "string", "field": "string", "gpa": "string|null", "year": "string|null"}]`,
				Description: "Degrees in reverse chronological order",
				Required:    true,
			},
			{
				Name:        "work_experience",
				Type:        `[{"title": "string", "company": "string", "duration": "string", "description": "string"}]`,
				Description: "Roles in reverse chronological order",
				Required:    true,
			},
			{Name: "certifications", Type: "[\"string\"]"},
			{Name: "languages", Type: "[\"string\"]"},
			{Name: "career_gaps", Type: "[\"string\"]", Description: "Gaps or breaks as stated"},
			{Name: "management_experience", Type: "boolean"},
			{Name: "team_size_managed", Type: "number|null"},
			{Name: "notable_achievements", Type: "[\"string\"]"},
			{Name: "summary", Description: "Two-sentence professional summary"},
		},
	}
}
