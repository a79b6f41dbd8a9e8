// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// ExtractJSONObject returns the balanced {...} object starting at the first
// character of text, honouring string literals and escapes. It returns ""
// when text does not start with '{' or the object is never closed.
func ExtractJSONObject(text string) string {
	if !strings.HasPrefix(text, "{") {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}

// FirstJSONObject finds the first well-formed JSON object in a raw reply,
// tolerating surrounding prose and markdown fences.
//
// When braces are present but no candidate parses, the widest {...} span is
// returned so the caller's decoder reports the syntax error. ErrNoJSONFound
// is returned only when the reply has no {...} block at all.
func FirstJSONObject(raw string) (string, error) {
	text := CleanJSONBlock(raw)

	for start := strings.IndexByte(text, '{'); start >= 0; {
		if obj := ExtractJSONObject(text[start:]); obj != "" && json.Valid([]byte(obj)) {
			return obj, nil
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first < 0 || last <= first {
		return "", &NoJSONFoundError{Preview: preview(raw, 300)}
	}
	return text[first : last+1], nil
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
