package parsing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-evaluator/internal/llm"
	"github.com/jonathan/candidate-evaluator/internal/llm/llmtest"
	"github.com/jonathan/candidate-evaluator/internal/schemas"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

const validParse = `{
	"first_name": " Emily ",
	"last_name": "Chen",
	"email": "emily.chen@example.com",
	"phone": "555-201-7788",
	"age": null,
	"experience_years": 7,
	"current_title": "Staff ML Engineer",
	"skills": ["python", "Golang", "k8s", "Go", "SQL"],
	"education": [{"degree": "B.S.", "institution": "Stanford University", "field": "Computer Science", "gpa": 3.8, "year": 2017}],
	"work_experience": [{"title": "Staff ML Engineer", "company": "Northwind Analytics", "duration": "2020 - present", "description": "Led a team"}],
	"certifications": [],
	"languages": ["English", " "],
	"career_gaps": ["3-month career break in 2019"],
	"management_experience": true,
	"team_size_managed": 5,
	"notable_achievements": ["Cut deployment time to one day"],
	"summary": "ML platform engineer."
}`

func TestParser_Parse(t *testing.T) {
	mock := &llmtest.MockClient{
		SendJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return validParse, nil
		},
	}
	parser := NewParser(mock, nil)

	parsed, err := parser.Parse(context.Background(), "Emily Chen\nStaff ML Engineer")
	require.NoError(t, err)

	assert.Equal(t, "Emily", parsed.FirstName)
	assert.Equal(t, []string{"Python", "Go", "Kubernetes", "SQL"}, parsed.Skills)
	require.NotNil(t, parsed.ExperienceYears)
	assert.Equal(t, 7.0, *parsed.ExperienceYears)
	assert.Nil(t, parsed.Age)
	require.Len(t, parsed.Education, 1)
	require.NotNil(t, parsed.Education[0].GPA)
	assert.Equal(t, "3.8", *parsed.Education[0].GPA)
	assert.Equal(t, "2017", *parsed.Education[0].Year)
	assert.Equal(t, []string{"English"}, parsed.Languages)
	assert.True(t, parsed.ManagementExperience)
	require.NotNil(t, parsed.TeamSizeManaged)
	assert.Equal(t, 5, *parsed.TeamSizeManaged)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Messages, 2)
	assert.Equal(t, llm.RoleSystem, calls[0].Messages[0].Role)
	assert.Contains(t, calls[0].Messages[0].Content, `"experience_years"`)
	assert.Contains(t, llmtest.LastUserMessage(calls[0]), "Emily Chen\nStaff ML Engineer")
}

func TestParser_Parse_EmptyText(t *testing.T) {
	mock := &llmtest.MockClient{}
	parser := NewParser(mock, nil)

	for _, text := range []string{"", "   \n\t"} {
		_, err := parser.Parse(context.Background(), text)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "resume_text", vErr.Field)
	}
	assert.Empty(t, mock.Calls(), "no LLM call for blank input")
}

func TestParser_Parse_NoJSON(t *testing.T) {
	mock := &llmtest.MockClient{
		SendJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return "", &llm.NoJSONFoundError{Preview: "Sorry, I can't"}
		},
	}

	_, err := NewParser(mock, nil).Parse(context.Background(), "resume")

	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.True(t, errors.Is(err, llm.ErrNoJSONFound))
	assert.False(t, llm.IsTransient(err))
}

func TestParser_Parse_SchemaMismatch(t *testing.T) {
	mock := &llmtest.MockClient{
		SendJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return `{"first_name": "Emily", "skills": "Go"}`, nil
		},
	}

	_, err := NewParser(mock, nil).Parse(context.Background(), "resume")

	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	var schemaErr *schemas.ValidationError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Fields(), "skills")
}

func TestParser_Parse_MalformedJSON(t *testing.T) {
	mock := &llmtest.MockClient{
		SendJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return `{"skills": [], "education": [], "work_experience": [],}`, nil
		},
	}

	_, err := NewParser(mock, nil).Parse(context.Background(), "resume")

	var exErr *ExtractionError
	assert.ErrorAs(t, err, &exErr)
}

func TestParser_Parse_TransportErrorPassesThrough(t *testing.T) {
	apiErr := &llm.APICallError{Provider: llm.ProviderOpenAI, StatusCode: 503, Message: "overloaded"}
	mock := &llmtest.MockClient{
		SendJSONFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return "", apiErr
		},
	}

	_, err := NewParser(mock, nil).Parse(context.Background(), "resume")

	require.Error(t, err)
	var exErr *ExtractionError
	assert.False(t, errors.As(err, &exErr))
	assert.True(t, llm.IsTransient(err))
}

func TestApplyIdentity(t *testing.T) {
	c := &types.Candidate{FirstName: "Em", LastName: "C", Email: "old@example.com", Phone: "1"}

	ApplyIdentity(c, &types.ParsedResume{FirstName: "Emily", Email: ""})

	assert.Equal(t, "Emily", c.FirstName)
	assert.Equal(t, "C", c.LastName, "empty parse keeps existing value")
	assert.Equal(t, "old@example.com", c.Email)
	assert.Equal(t, "1", c.Phone)

	ApplyIdentity(c, nil)
	assert.Equal(t, "Emily", c.FirstName)
}

func TestApply(t *testing.T) {
	years := 4.5
	age := 40
	parsed := &types.ParsedResume{
		LastName:        "Chen",
		Skills:          []string{"Go"},
		ExperienceYears: &years,
		Age:             &age,
		Education:       []types.Education{{Degree: "BS"}},
	}
	c := &types.Candidate{FirstName: "Emily"}

	Apply(c, parsed)

	assert.Equal(t, "Emily Chen", c.FullName())
	assert.Same(t, parsed, c.ParsedData)
	assert.Equal(t, []string{"Go"}, c.Skills)
	assert.Equal(t, &years, c.ExperienceYears)
	assert.Equal(t, &age, c.Age)
	assert.Len(t, c.Education, 1)
}

func TestBuildMessages_PromptCarriesSchema(t *testing.T) {
	msgs, err := buildMessages("text")
	require.NoError(t, err)

	for _, f := range llm.ResumeSchema().Fields {
		assert.True(t, strings.Contains(msgs[0].Content, `"`+f.Name+`"`), "schema field %s missing", f.Name)
	}
}
