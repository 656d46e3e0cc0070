package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ffibench/internal/ir"
)

// Scenario defines a conformance test scenario.
// Scenarios execute a flow of boundary calls and assert on the resulting
// trace and stored calls.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Surface is an optional CUE surface file. Relative paths are resolved
	// against the scenario file's directory by LoadScenario.
	// If empty, the built-in surface is used.
	Surface string `yaml:"surface,omitempty"`

	// Flow contains the calls to make, in order, with expected outcomes.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and store.
	Assertions []Assertion `yaml:"assertions"`

	// FlowToken is an optional fixed flow token for deterministic tests.
	// If empty, defaults to "test-flow-default" for deterministic golden file comparison.
	FlowToken string `yaml:"flow_token,omitempty"`
}

// FlowStep represents one boundary call in the flow.
type FlowStep struct {
	// Invoke is the entry point name.
	Invoke string `yaml:"invoke"`

	// Args contains the host arguments by name.
	Args map[string]any `yaml:"args"`

	// Expect specifies the expected outcome.
	// If nil, the call is made but not checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected call behavior.
type ExpectClause struct {
	// Case is the expected outcome: ok, conversion_error or unknown_entry_point.
	Case string `yaml:"case"`

	// Result is the expected result when Case is ok.
	// Numbers match across int and float; objects are subset matches.
	// If nil, only the case is validated.
	Result any `yaml:"result,omitempty"`

	// Error is a substring the call's error text must contain.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check a call appears in trace with args
	// - "trace_order": Check entry points are first called in order
	// - "trace_count": Check an entry point is called exactly N times
	// - "nanos_format": Check timed results carry decimal nanos
	// - "stored_calls": Check the store holds exactly N calls
	Type string `yaml:"type"`

	// EntryPoint is the entry point name (trace_contains, trace_count;
	// optional filter for nanos_format and stored_calls).
	EntryPoint string `yaml:"entry_point,omitempty"`

	// Args are the expected call arguments (used by trace_contains).
	// Subset match - only specified fields are validated.
	Args map[string]any `yaml:"args,omitempty"`

	// Outcome optionally restricts trace_contains to calls with this outcome.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of occurrences (trace_count, stored_calls).
	Count int `yaml:"count,omitempty"`

	// EntryPoints is the expected call order (used by trace_order).
	EntryPoints []string `yaml:"entry_points,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertNanosFormat   = "nanos_format"
	AssertStoredCalls   = "stored_calls"
)

// validOutcomes are the cases an expect clause may name.
var validOutcomes = map[string]bool{
	ir.OutcomeOK:                true,
	ir.OutcomeConversionError:   true,
	ir.OutcomeUnknownEntryPoint: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative surface path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Surface != "" && !filepath.IsAbs(scenario.Surface) {
		scenario.Surface = filepath.Join(filepath.Dir(path), scenario.Surface)
	}
	if scenario.Surface != "" {
		if _, err := os.Stat(scenario.Surface); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: surface file not found: %s", scenario.Surface)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow[%d]: invoke is required", i)
		}
		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required (use empty map if no args)", i)
		}
		if step.Expect == nil {
			continue
		}
		if step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
		if !validOutcomes[step.Expect.Case] {
			return fmt.Errorf("flow[%d].expect: unknown case %q", i, step.Expect.Case)
		}
		if step.Expect.Case != ir.OutcomeOK && step.Expect.Result != nil {
			return fmt.Errorf("flow[%d].expect: result is only valid for case %q", i, ir.OutcomeOK)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.EntryPoint == "" {
			return fmt.Errorf("assertions[%d]: entry_point is required for trace_contains", index)
		}
		if a.Outcome != "" && !validOutcomes[a.Outcome] {
			return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
		}
	case AssertTraceOrder:
		if len(a.EntryPoints) == 0 {
			return fmt.Errorf("assertions[%d]: entry_points list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.EntryPoint == "" {
			return fmt.Errorf("assertions[%d]: entry_point is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertNanosFormat:
	case AssertStoredCalls:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for stored_calls", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
