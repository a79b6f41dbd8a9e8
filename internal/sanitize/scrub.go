// Package sanitize removes prompt-injection lines and personal data from
// untrusted resume text before it reaches a scoring call.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultInjectionPatterns match role markers, instruction overrides, forced
// scores and compliance assertions.
var DefaultInjectionPatterns = []string{
	`^\s*(SYSTEM|ASSISTANT|DEVELOPER)\s*:`,
	`ignore (all )?previous instructions`,
	`assign score\s*=\s*1\.0`,
	`you will (?:comply|follow|always)`,
}

// Scrubber drops lines matching any of its injection patterns.
type Scrubber struct {
	patterns []*regexp.Regexp
}

// NewScrubber compiles patterns case-insensitively.
func NewScrubber(patterns []string) (*Scrubber, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid injection pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Scrubber{patterns: compiled}, nil
}

var defaultScrubber = mustScrubber(DefaultInjectionPatterns)

func mustScrubber(patterns []string) *Scrubber {
	s, err := NewScrubber(patterns)
	if err != nil {
		panic(err)
	}
	return s
}

// ScrubInjection removes every line that matches an injection pattern.
// Surviving lines keep their order; text with no match is returned unchanged.
func (s *Scrubber) ScrubInjection(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	keep := lines[:0:0]
	for _, line := range lines {
		if s.Matches(line) {
			continue
		}
		keep = append(keep, line)
	}
	return strings.Join(keep, "\n")
}

// Matches reports whether a single line matches any pattern.
func (s *Scrubber) Matches(line string) bool {
	for _, re := range s.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// ScrubInjection applies the default patterns.
func ScrubInjection(text string) string {
	return defaultScrubber.ScrubInjection(text)
}
