package probe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-evaluator/internal/types"
)

func TestBuildVariants(t *testing.T) {
	text := "John Smith led MIT robotics. John mentored Wei."
	variants := BuildVariants(text, DefaultCatalog())

	require.Len(t, variants, 5)
	assert.Equal(t, Variant{Scenario: "baseline", Type: types.ProbeBaseline, Text: text}, variants[0])
	assert.Equal(t, "nameSwap:John->Johanna", variants[1].Scenario)
	assert.Equal(t, "Johanna Smith led MIT robotics. Johanna mentored Wei.", variants[1].Text)
	assert.Equal(t, "nameSwap:Wei->William", variants[2].Scenario)
	assert.Equal(t, "proxy:MIT->Community College", variants[3].Scenario)
	assert.Equal(t, KindInstitution, variants[3].Kind)
	assert.Equal(t, text+"\n\n"+DefaultAdversarialSuffix, variants[4].Text)
}

func TestBuildVariants_CaseSensitive(t *testing.T) {
	variants := BuildVariants("emily studied at mit", DefaultCatalog())
	require.Len(t, variants, 2)
	assert.Equal(t, BaselineScenario, variants[0].Scenario)
	assert.Equal(t, AdversarialScenario, variants[1].Scenario)
}

func TestExplain(t *testing.T) {
	v := Variant{Type: types.ProbeProxyFlip, Kind: KindCareerBreak}
	assert.Equal(t, "Score 0.400 (-0.300 vs baseline 0.700) | "+kindNotes[KindCareerBreak], Explain(v, 0.7, 0.4))

	base := Variant{Type: types.ProbeBaseline}
	assert.Equal(t, "Score 0.700 (+0.000 vs baseline 0.700)", Explain(base, 0.7, 0.7))
}

func TestFlagged(t *testing.T) {
	probe := Variant{Type: types.ProbeNameSwap}
	assert.False(t, Flagged(probe, 0.15))
	assert.False(t, Flagged(probe, -0.15))
	assert.True(t, Flagged(probe, 0.1501))
	assert.True(t, Flagged(probe, -0.2))
	assert.False(t, Flagged(Variant{Type: types.ProbeBaseline}, 0.5))
	assert.Equal(t, 0.15, Delta(0.7, 0.85))
}

func TestOverallRisk(t *testing.T) {
	assert.Equal(t, types.RiskLow, OverallRisk(0))
	assert.Equal(t, types.RiskMedium, OverallRisk(1))
	assert.Equal(t, types.RiskMedium, OverallRisk(2))
	assert.Equal(t, types.RiskHigh, OverallRisk(3))
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name_pairs:
  - from: Priya
    to: Peter
proxy_pairs:
  - from: Harvard
    to: State University
    kind: institution
`), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{From: "Priya", To: "Peter"}}, c.NamePairs)
	assert.Equal(t, KindInstitution, c.ProxyPairs[0].Kind)
	assert.Equal(t, DefaultAdversarialSuffix, c.AdversarialSuffix)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "proxy_pairs:\n  - {from: A, to: B, kind: zodiac}\n"},
		{"missing kind", "proxy_pairs:\n  - {from: A, to: B}\n"},
		{"identity pair", "name_pairs:\n  - {from: A, to: A}\n"},
		{"empty from", "name_pairs:\n  - {to: B}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := LoadCatalog(path)
			assert.Error(t, err)
		})
	}
}

func TestDefaultCatalog_Valid(t *testing.T) {
	assert.NoError(t, DefaultCatalog().Validate())
}

func TestLoadCatalog_ShippedFileMatchesDefault(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("..", "..", "configs", "probe_catalog.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), c)
}
