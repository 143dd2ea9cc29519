package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestConformanceScenarios runs the canonical scenarios shipped in
// testdata/scenarios and compares their traces against golden files.
// These scenarios are the acceptance criteria for the safe-reference
// contract: liveness round-trip, move invalidation, upcast liveness
// sharing, assignment over a stale ref, and clone independence.
func TestConformanceScenarios(t *testing.T) {
	tests := []struct {
		name         string
		scenarioPath string
	}{
		{
			name:         "liveness_round_trip",
			scenarioPath: "../../testdata/scenarios/liveness_round_trip.yaml",
		},
		{
			name:         "move_invalidates_source",
			scenarioPath: "../../testdata/scenarios/move_invalidates_source.yaml",
		},
		{
			name:         "upcast_shared_liveness",
			scenarioPath: "../../testdata/scenarios/upcast_shared_liveness.yaml",
		},
		{
			name:         "assign_over_stale",
			scenarioPath: "../../testdata/scenarios/assign_over_stale.yaml",
		},
		{
			name:         "copy_independence",
			scenarioPath: "../../testdata/scenarios/copy_independence.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			absPath, err := filepath.Abs(tt.scenarioPath)
			require.NoError(t, err, "failed to get absolute path")

			scenario, err := LoadScenario(absPath)
			require.NoError(t, err, "failed to load scenario")
			require.Equal(t, tt.name, scenario.Name, "scenario name must match file name")

			RunWithGolden(t, scenario)
		})
	}
}

func TestMarshalCanonical(t *testing.T) {
	data, err := marshalCanonical(map[string]any{
		"b":   int64(2),
		"a":   "x",
		"arr": []any{true, "y"},
	})
	require.NoError(t, err)
	require.Equal(t, `{"a":"x","arr":[true,"y"],"b":2}`, string(data))
}

func TestMarshalCanonical_RejectsNullAndFloats(t *testing.T) {
	_, err := marshalCanonical(nil)
	require.Error(t, err)

	_, err = marshalCanonical(map[string]any{"f": 1.5})
	require.Error(t, err)
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := marshalCanonical("<&>")
	require.NoError(t, err)
	require.Equal(t, `"<&>"`, string(data))
}
