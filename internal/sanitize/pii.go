package sanitize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/candidate-evaluator/internal/types"
)

// PII categories.
const (
	CategorySSN     = "ssn"
	CategoryEmail   = "email"
	CategoryPhone   = "phone"
	CategoryAddress = "address"
)

// Categories lists PII categories in redaction priority order. Where matches
// of different categories overlap, the earlier category names the token.
var Categories = []string{CategorySSN, CategoryEmail, CategoryPhone, CategoryAddress}

var piiPatterns = map[string]*regexp.Regexp{
	CategoryEmail:   regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
	CategoryPhone:   regexp.MustCompile(`(?:\+?\d[\s\-\(\)]?){7,}\d`),
	CategorySSN:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	CategoryAddress: regexp.MustCompile(`\b\d+\s+\w+(?:\s+\w+){0,3}\b`),
}

// Scan finds PII literals per category. Categories are scanned independently,
// so one substring may be reported under several categories.
func Scan(text string) types.PIIScan {
	scan := types.PIIScan{Found: make(map[string][]string)}
	for _, category := range Categories {
		matches := piiPatterns[category].FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		unique := dedupe(matches)
		scan.Found[category] = unique
		scan.Count += len(unique)
	}
	return scan
}

// maxRedactPasses bounds the rescans Redact makes after the first pass.
const maxRedactPasses = 4

// Redact replaces every occurrence of each scanned literal with
// <REDACTED_CATEGORY>. Occurrences are located as spans in text; spans that
// overlap are merged into one token named after the highest-priority
// category among them, so no fragment of a lower-priority match survives.
// Merging can expose matches the first scan shadowed, so the result is
// rescanned for the scanned categories until nothing is left.
func Redact(text string, scan types.PIIScan) string {
	categories := orderedCategories(scan)
	redacted := redactSpans(text, categories, scan.Found)

	for pass := 0; pass < maxRedactPasses; pass++ {
		found := scanCategories(redacted, categories)
		if len(found) == 0 {
			break
		}
		next := redactSpans(redacted, categories, found)
		if next == redacted {
			break
		}
		redacted = next
	}
	return redacted
}

type piiSpan struct {
	start, end int
	rank       int // index into the category order; lower wins
}

func redactSpans(text string, categories []string, found map[string][]string) string {
	var spans []piiSpan
	for rank, category := range categories {
		for _, lit := range found[category] {
			if lit == "" {
				continue
			}
			for off := 0; off < len(text); {
				i := strings.Index(text[off:], lit)
				if i < 0 {
					break
				}
				start := off + i
				spans = append(spans, piiSpan{start: start, end: start + len(lit), rank: rank})
				off = start + len(lit)
			}
		}
	}
	if len(spans) == 0 {
		return text
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var b strings.Builder
	pos := 0
	for i := 0; i < len(spans); {
		start, end, rank := spans[i].start, spans[i].end, spans[i].rank
		j := i + 1
		for ; j < len(spans) && spans[j].start < end; j++ {
			end = max(end, spans[j].end)
			rank = min(rank, spans[j].rank)
		}
		b.WriteString(text[pos:start])
		b.WriteString("<REDACTED_" + strings.ToUpper(categories[rank]) + ">")
		pos = end
		i = j
	}
	b.WriteString(text[pos:])
	return b.String()
}

// scanCategories runs the known patterns of categories over text.
func scanCategories(text string, categories []string) map[string][]string {
	found := make(map[string][]string)
	for _, category := range categories {
		re, ok := piiPatterns[category]
		if !ok {
			continue
		}
		if matches := re.FindAllString(text, -1); len(matches) > 0 {
			found[category] = dedupe(matches)
		}
	}
	return found
}

// PrepareForScoring scrubs injection lines and then redacts PII found in the
// scrubbed text. The result is the only text sent to scoring calls.
func PrepareForScoring(text string) string {
	scrubbed := ScrubInjection(text)
	return Redact(scrubbed, Scan(scrubbed))
}

// orderedCategories returns the scan's categories, known ones first in
// priority order and any others alphabetically.
func orderedCategories(scan types.PIIScan) []string {
	out := make([]string, 0, len(scan.Found))
	known := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		known[c] = true
		if _, ok := scan.Found[c]; ok {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range scan.Found {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
