package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios_Golden runs every scenario under testdata/scenarios and
// compares its trace against testdata/golden/{name}.golden.
//
// Regenerate with:
//
//	go test ./internal/harness -run TestScenarios_Golden -update
func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name must match its file name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_Canonical(t *testing.T) {
	result := NewResult()
	result.AddTrace(TraceEvent{Op: "suggest", Target: "web", Outcome: OutcomeOK, Result: "pending", Seq: 1})
	result.AddTrace(TraceEvent{Op: "by_tag", Outcome: OutcomeOK, Result: []string{}, Seq: 1})
	result.AddTrace(TraceEvent{Op: "reject", Target: "web", Outcome: "NOT_PENDING", Seq: 2})

	got, err := Snapshot("snap", result)
	require.NoError(t, err)

	want := `{"scenario_name":"snap","trace":[` +
		`{"op":"suggest","outcome":"ok","result":"pending","seq":1,"target":"web"},` +
		`{"op":"by_tag","outcome":"ok","result":[],"seq":1},` +
		`{"op":"reject","outcome":"NOT_PENDING","seq":2,"target":"web"}]}`
	assert.Equal(t, want, string(got))
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "shared_tag_delete.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSnapshot_EmptyTrace(t *testing.T) {
	got, err := Snapshot("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","trace":[]}`, string(got))
}
