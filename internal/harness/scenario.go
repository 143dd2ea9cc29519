package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: referents, a flow of
// safe-reference operations with expected outcomes, and assertions
// over the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario (also names its golden
	// file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Objects lists referents created before the flow starts.
	Objects []ObjectDecl `yaml:"objects,omitempty"`

	// Flow contains the operations to execute, in order.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ObjectDecl declares one referent.
type ObjectDecl struct {
	// ID names the referent within the scenario.
	ID string `yaml:"id"`

	// Value is the widget's observable payload.
	Value int64 `yaml:"value,omitempty"`

	// Label is the payload of the widget's Plate view.
	Label string `yaml:"label,omitempty"`
}

// Step is one operation in the flow.
type Step struct {
	// Op is the operation: create, destroy, ref, deref, clone, move,
	// upcast, drop.
	Op string `yaml:"op"`

	// Object names the referent (create, destroy, ref).
	Object string `yaml:"object,omitempty"`

	// Ref names the operation's source ref (deref, clone, move,
	// upcast, drop).
	Ref string `yaml:"ref,omitempty"`

	// To names the destination ref (ref, clone, move, upcast).
	// Writing to an existing name replaces its state.
	To string `yaml:"to,omitempty"`

	// Mode selects the upcast flavor: "clone" (default) or "move".
	Mode string `yaml:"mode,omitempty"`

	// Value and Label configure mid-flow creates.
	Value int64  `yaml:"value,omitempty"`
	Label string `yaml:"label,omitempty"`

	// Expect specifies the expected outcome. If nil, the step is
	// assumed to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Outcome is "ok" or "fatal".
	Outcome string `yaml:"outcome"`

	// Code is the required violation code when Outcome is "fatal"
	// (CONSUMED_USE or STALE_USE).
	Code string `yaml:"code,omitempty"`

	// SameAs asserts the deref resolved to this object's address (or
	// its view's address, for upcast refs).
	SameAs string `yaml:"same_as,omitempty"`

	// Value asserts the widget value read through the ref.
	Value *int64 `yaml:"value,omitempty"`

	// Label asserts the plate label read through the ref.
	Label *string `yaml:"label,omitempty"`
}

// Assertion validates the trace or final state after the flow.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event matching op/ref/outcome/code exists
	// - "trace_order": ops appear in the given order
	// - "trace_count": events matching op/outcome appear Count times
	// - "final_state": last matching events row has expected values
	Type string `yaml:"type"`

	// Op filters by operation (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Ref filters by ref id (trace_contains).
	Ref string `yaml:"ref,omitempty"`

	// Outcome filters by outcome (trace_contains, trace_count).
	Outcome string `yaml:"outcome,omitempty"`

	// Code filters by violation code (trace_contains).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Ops is the expected operation order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Where filters the events table (final_state). Exact match.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state). Subset
	// match against the last (highest seq) row satisfying Where.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Step operation constants.
const (
	OpCreate  = "create"
	OpDestroy = "destroy"
	OpRef     = "ref"
	OpDeref   = "deref"
	OpClone   = "clone"
	OpMove    = "move"
	OpUpcast  = "upcast"
	OpDrop    = "drop"
)

// LoadScenario reads and parses a scenario YAML file. Returns an error
// if the file doesn't exist, is malformed, contains unknown fields
// (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs
	// "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// ValidateScenario checks structural validity: required fields, known
// operations and assertion types, well-formed expect clauses.
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow must contain at least one step")
	}

	for i, obj := range s.Objects {
		if obj.ID == "" {
			return fmt.Errorf("objects[%d]: id is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpCreate, OpDestroy:
		if step.Object == "" {
			return fmt.Errorf("op %s requires object", step.Op)
		}
	case OpRef:
		if step.Object == "" || step.To == "" {
			return fmt.Errorf("op ref requires object and to")
		}
	case OpDeref, OpDrop:
		if step.Ref == "" {
			return fmt.Errorf("op %s requires ref", step.Op)
		}
	case OpClone, OpMove, OpUpcast:
		if step.Ref == "" || step.To == "" {
			return fmt.Errorf("op %s requires ref and to", step.Op)
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if step.Mode != "" && step.Op != OpUpcast {
		return fmt.Errorf("mode is only valid for upcast")
	}
	if step.Op == OpUpcast {
		switch step.Mode {
		case "", "clone", "move":
		default:
			return fmt.Errorf("unknown upcast mode %q", step.Mode)
		}
	}

	if e := step.Expect; e != nil {
		switch e.Outcome {
		case "ok":
			if e.Code != "" {
				return fmt.Errorf("expect.code is only valid with outcome fatal")
			}
		case "fatal":
			if e.Code == "" {
				return fmt.Errorf("expect.code is required with outcome fatal")
			}
		default:
			return fmt.Errorf("expect.outcome must be ok or fatal, got %q", e.Outcome)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" && a.Ref == "" && a.Outcome == "" && a.Code == "" {
			return fmt.Errorf("trace_contains requires at least one filter")
		}
	case AssertTraceOrder:
		if len(a.Ops) < 2 {
			return fmt.Errorf("trace_order requires at least two ops")
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("trace_count requires op")
		}
	case AssertFinalState:
		if len(a.Where) == 0 || len(a.Expect) == 0 {
			return fmt.Errorf("final_state requires where and expect")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	return nil
}
