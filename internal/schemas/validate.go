// Package schemas provides JSON Schema validation of structured LLM output.
package schemas

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// Embedded schema names.
const (
	Resume = "resume"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Fields returns the sorted, de-duplicated field paths that failed.
func (ve *ValidationError) Fields() []string {
	seen := make(map[string]bool, len(ve.Errors))
	fields := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		if !seen[e.Field] {
			seen[e.Field] = true
			fields = append(fields, e.Field)
		}
	}
	sort.Strings(fields)
	return fields
}

// Load returns the content of an embedded schema by name (e.g. "resume").
func Load(name string) (string, error) {
	path := name + ".schema.json"
	data, err := schemaFiles.ReadFile(path)
	if err != nil {
		return "", &SchemaLoadError{Path: path, Message: "embedded schema not found", Cause: err}
	}
	return string(data), nil
}

// Validate validates JSON content against an embedded schema.
func Validate(name, jsonContent string) error {
	schema, err := Load(name)
	if err != nil {
		return err
	}
	return ValidateJSONString(schema, jsonContent)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	return toValidationError(result.Errors())
}

// ValidateGo validates an already-decoded Go value (e.g. a map built for a
// prompt) against schema string content.
func ValidateGo(schemaContent string, document any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schemaContent), gojsonschema.NewGoLoader(document))
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	if result.Valid() {
		return nil
	}
	return toValidationError(result.Errors())
}

func toValidationError(errs []gojsonschema.ResultError) *ValidationError {
	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(errs)),
	}

	for _, desc := range errs {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
