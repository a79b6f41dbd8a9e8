package parsing

import (
	"strings"
)

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":     "Go",
	"golanglang": "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"pytorch":    "PyTorch",
	"tensorflow": "TensorFlow",
	"mlops":      "MLOps",
}

// acronyms keep their upper-case spelling instead of being title-cased.
var acronyms = map[string]bool{
	"SQL": true, "AWS": true, "GCP": true, "ML": true, "AI": true,
	"NLP": true, "API": true, "CI/CD": true, "ETL": true, "HTML": true, "CSS": true,
}

// NormalizeSkillName normalizes a skill name to its canonical form
func NormalizeSkillName(skillName string) string {
	if skillName == "" {
		return ""
	}

	normalized := strings.TrimSpace(skillName)

	// Check for exact match in normalization map (case-insensitive)
	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}
	if upper := strings.ToUpper(normalized); acronyms[upper] {
		return upper
	}

	// For all-caps single words that aren't acronyms, capitalize first letter only
	if normalized == strings.ToUpper(normalized) && len(normalized) > 1 && !strings.Contains(lower, " ") {
		return strings.ToUpper(normalized[:1]) + strings.ToLower(normalized[1:])
	}

	// Already has mixed case, return as-is
	if normalized != strings.ToUpper(normalized) && normalized != strings.ToLower(normalized) {
		return normalized
	}

	// If all lowercase and single word, capitalize first letter
	if normalized == lower && !strings.Contains(normalized, " ") && len(normalized) > 0 {
		return strings.ToUpper(normalized[:1]) + normalized[1:]
	}

	return normalized
}

// NormalizeSkills normalizes skill names and drops blanks and duplicates,
// keeping the first occurrence's position.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		n := NormalizeSkillName(s)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
