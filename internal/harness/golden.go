package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tether/internal/trace"
)

// traceSnapshot converts a run's trace to the canonical map shape used
// for golden comparison. Empty fields are omitted so goldens stay
// compact.
func traceSnapshot(name string, events []trace.Event) map[string]any {
	traceList := make([]any, len(events))
	for i, ev := range events {
		eventMap := map[string]any{
			"seq":     ev.Seq,
			"op":      ev.Op,
			"outcome": ev.Outcome,
		}
		if ev.RefID != "" {
			eventMap["ref_id"] = ev.RefID
		}
		if ev.ObjectID != "" {
			eventMap["object_id"] = ev.ObjectID
		}
		if ev.TokenID != "" {
			eventMap["token_id"] = ev.TokenID
		}
		if ev.Code != "" {
			eventMap["code"] = ev.Code
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": name,
		"trace":         traceList,
	}
}

// RunWithGolden executes a scenario, fails the test on any expectation
// or assertion error, and compares the canonical trace against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("scenario %s: %v", scenario.Name, e)
	}

	data, err := marshalCanonical(traceSnapshot(scenario.Name, result.Trace))
	if err != nil {
		t.Fatalf("scenario %s: marshal trace: %v", scenario.Name, err)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, scenario.Name, data)
}
