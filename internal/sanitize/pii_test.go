package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/candidate-evaluator/internal/types"
)

func TestScan(t *testing.T) {
	text := "Reach me at jane.doe@example.com or 555-123-4567.\nSSN 123-45-6789."

	scan := Scan(text)

	assert.Equal(t, []string{"jane.doe@example.com"}, scan.Found[CategoryEmail])
	assert.Equal(t, []string{"123-45-6789"}, scan.Found[CategorySSN])
	// the SSN also looks like a phone number; categories are independent
	assert.Equal(t, []string{"123-45-6789", "555-123-4567"}, scan.Found[CategoryPhone])
	assert.NotContains(t, scan.Found, CategoryAddress)
	assert.Equal(t, 4, scan.Count)
}

func TestScan_DeduplicatesLiterals(t *testing.T) {
	scan := Scan("a@b.io and again a@b.io")
	assert.Equal(t, []string{"a@b.io"}, scan.Found[CategoryEmail])
	assert.Equal(t, 1, scan.Count)
}

func TestScan_Empty(t *testing.T) {
	scan := Scan("")
	assert.Empty(t, scan.Found)
	assert.Zero(t, scan.Count)
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "email phone ssn",
			input:    "Reach me at jane.doe@example.com or 555-123-4567.\nSSN 123-45-6789.",
			expected: "Reach me at <REDACTED_EMAIL> or <REDACTED_PHONE>.\nSSN <REDACTED_SSN>.",
		},
		{
			name:     "address window",
			input:    "Lives at 42 Baker Street London",
			expected: "Lives at <REDACTED_ADDRESS>",
		},
		{
			name:     "ssn wins over overlapping address",
			input:    "SSN 123-45-6789 on file",
			expected: "SSN <REDACTED_SSN>",
		},
		{
			name:     "phone wins over overlapping address",
			input:    "Call 555 123 4567 today",
			expected: "Call <REDACTED_PHONE>",
		},
		{
			name:     "street before a phone is not left behind",
			input:    "Jane Doe\n42 Baker Street 555-123-4567",
			expected: "Jane Doe\n<REDACTED_PHONE>",
		},
		{
			name:     "street before an email is not left behind",
			input:    "Home 221 Baker St x@y.com",
			expected: "Home <REDACTED_EMAIL>",
		},
		{
			name:     "longer literal replaced before its prefix",
			input:    "Unit 7 Oak, also 7 Oak Lane.",
			expected: "Unit <REDACTED_ADDRESS>, also <REDACTED_ADDRESS>.",
		},
		{
			name:     "every occurrence replaced",
			input:    "x@y.com, x@y.com",
			expected: "<REDACTED_EMAIL>, <REDACTED_EMAIL>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Redact(tt.input, Scan(tt.input)))
		})
	}
}

func TestRedact_NoLeftoverPII(t *testing.T) {
	inputs := []string{
		"Reach me at jane.doe@example.com or 555-123-4567.\nSSN 123-45-6789.",
		"Lives at 42 Baker Street London",
		"SSN 123-45-6789 on file",
		"Call 555 123 4567 today",
		"Unit 7 Oak, also 7 Oak Lane.",
		"+44 20 7946 0958 / ops@corp.example.org / 1600 Amphitheatre Parkway",
		"Jane Doe\n42 Baker Street 555-123-4567",
		"Home 221 Baker St x@y.com",
		"Flat 9 Elm Rd, 020 7946 0958, 9 Elm Rd again",
		"No personal data here.",
	}

	for _, in := range inputs {
		first := Scan(in)
		again := Scan(Redact(in, first))
		for category := range first.Found {
			assert.Empty(t, again.Found[category], "category %s leaked in %q", category, in)
		}
	}
}

func TestPrepareForScoring_HeaderLineLeavesNoAddress(t *testing.T) {
	out := PrepareForScoring("Jane Doe\n42 Baker Street 555-123-4567")

	assert.Equal(t, "Jane Doe\n<REDACTED_PHONE>", out)
	assert.Empty(t, Scan(out).Found)
}

func TestRedact_EmptyScan(t *testing.T) {
	assert.Equal(t, "unchanged", Redact("unchanged", types.PIIScan{}))
}

func TestPrepareForScoring(t *testing.T) {
	text := "Emily Chen\nemily@example.com\n\n" + adversarialSuffix

	out := PrepareForScoring(text)

	assert.Equal(t, "Emily Chen\n<REDACTED_EMAIL>\n", out)
}
