package testutil

// DefaultFlowToken is used when a scenario does not pin its own token.
const DefaultFlowToken = "test-flow-default"

// FixedFlowGenerator returns the same flow token on every call.
//
// All calls in a scenario then share one flow, and the same scenario run
// twice produces byte-identical call records and traces.
// It satisfies engine.FlowTokenGenerator.
//
// Thread-safety: FixedFlowGenerator is immutable and safe for concurrent use.
type FixedFlowGenerator struct {
	token string
}

// NewFixedFlowGenerator creates a generator for token.
// An empty token falls back to DefaultFlowToken.
func NewFixedFlowGenerator(token string) *FixedFlowGenerator {
	if token == "" {
		token = DefaultFlowToken
	}
	return &FixedFlowGenerator{token: token}
}

// Generate returns the fixed flow token.
func (g *FixedFlowGenerator) Generate() string {
	return g.token
}
