package probe

import (
	"strings"

	"github.com/jonathan/candidate-evaluator/internal/types"
)

// BaselineScenario identifies the unmodified text.
const BaselineScenario = "baseline"

// AdversarialScenario identifies the injected variant.
const AdversarialScenario = "adversarial"

// Variant is one probe input.
type Variant struct {
	Scenario string
	Type     types.ProbeType
	Kind     ProxyKind // set for proxy flips
	Text     string
}

// BuildVariants returns the baseline, a name swap for every catalog name
// present in text, a proxy flip for every catalog phrase present, and one
// adversarial variant, in that order. Matching is case-sensitive and every
// occurrence is replaced.
func BuildVariants(text string, c *Catalog) []Variant {
	variants := []Variant{{Scenario: BaselineScenario, Type: types.ProbeBaseline, Text: text}}

	for _, p := range c.NamePairs {
		if strings.Contains(text, p.From) {
			variants = append(variants, Variant{
				Scenario: "nameSwap:" + p.From + "->" + p.To,
				Type:     types.ProbeNameSwap,
				Text:     strings.ReplaceAll(text, p.From, p.To),
			})
		}
	}

	for _, p := range c.ProxyPairs {
		if strings.Contains(text, p.From) {
			variants = append(variants, Variant{
				Scenario: "proxy:" + p.From + "->" + p.To,
				Type:     types.ProbeProxyFlip,
				Kind:     p.Kind,
				Text:     strings.ReplaceAll(text, p.From, p.To),
			})
		}
	}

	variants = append(variants, Variant{
		Scenario: AdversarialScenario,
		Type:     types.ProbeAdversarial,
		Text:     text + "\n\n" + c.AdversarialSuffix,
	})
	return variants
}
