package pipeline

import (
	"fmt"
	"strings"
)

// AgentKind is one of the components that can be run on its own.
type AgentKind int

// Agent kinds.
const (
	AgentParser AgentKind = iota + 1
	AgentGuardrail
	AgentScorer
	AgentSummarizer
	AgentBiasAuditor
)

// Execution-log agent types for work that is not an AgentKind.
const (
	AgentTypeOrchestrator = "orchestrator"
	AgentTypeSanitizer    = "sanitizer"
)

var agentNames = map[AgentKind]string{
	AgentParser:      "parser",
	AgentGuardrail:   "guardrail",
	AgentScorer:      "scorer",
	AgentSummarizer:  "summarizer",
	AgentBiasAuditor: "bias_auditor",
}

// AgentKinds lists every kind in pipeline order.
func AgentKinds() []AgentKind {
	return []AgentKind{AgentParser, AgentGuardrail, AgentScorer, AgentSummarizer, AgentBiasAuditor}
}

// String returns the wire name used in the execution log and the CLI.
func (k AgentKind) String() string {
	if name, ok := agentNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AgentKind(%d)", int(k))
}

// ParseAgentKind maps a wire name to its kind. Unknown names wrap ErrValidation.
func ParseAgentKind(s string) (AgentKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range AgentKinds() {
		if agentNames[k] == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown agent type %q", ErrValidation, s)
}
