package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scenarioDir = "../harness/testdata/scenarios"
	goldenDir   = "../harness/testdata/golden"
)

func TestScenario_AllPass(t *testing.T) {
	out, err := execute(t, "scenario", scenarioDir, "--golden-dir", goldenDir, "--format", "json")
	require.NoError(t, err)

	resp := decode[SuiteResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 5, resp.Data.Total)
	assert.Equal(t, 5, resp.Data.Passed)
	assert.Zero(t, resp.Data.Failed)
}

func TestScenario_Text(t *testing.T) {
	out, err := execute(t, "scenario", scenarioDir, "--golden-dir", goldenDir, "--filter", "customer_*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ customer_form_rejected\n")
	assert.Contains(t, out, "Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestScenario_SingleFile(t *testing.T) {
	file := filepath.Join(scenarioDir, "order_form_store.yaml")

	out, err := execute(t, "scenario", file, "--golden-dir", goldenDir, "--format", "json")
	require.NoError(t, err)

	resp := decode[SuiteResult](t, out)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, ScenarioResult{Name: "order_form_store", Pass: true}, resp.Data.Scenarios[0])
}

func TestScenario_UpdateWritesGoldens(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "scenario", scenarioDir, "--golden-dir", dir, "--update")
	require.NoError(t, err)

	for _, name := range []string{"apparel_sort_select", "apparel_store_paging", "order_form_store"} {
		got, err := os.ReadFile(filepath.Join(dir, name+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join(goldenDir, name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
	}

	_, err = execute(t, "scenario", scenarioDir, "--golden-dir", dir)
	require.NoError(t, err)
}

func TestScenario_GoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apparel_sort_select.golden"), []byte("{}\n"), 0o644))

	out, err := execute(t, "scenario", scenarioDir, "--golden-dir", dir, "--filter", "apparel_sort_*")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ apparel_sort_select")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestScenario_FailingAssertion(t *testing.T) {
	dir := t.TempDir()
	fixture, err := filepath.Abs("../store/testdata/fixture.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_order.yaml"), []byte(`name: wrong_order
description: Expects the wrong first row after sorting by price
kind: table
entity: apparel
fixture: `+fixture+`
steps:
  - action: click_header
    key: price
assertions:
  - type: order
    ids: [1, 2, 3, 4, 5]
`), 0o644))

	out, err := execute(t, "scenario", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode[SuiteResult](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenario, resp.Error.Code)
}

func TestScenario_LoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))

	out, err := execute(t, "scenario", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestScenario_NoScenarios(t *testing.T) {
	out, err := execute(t, "scenario", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestScenario_MissingPath(t *testing.T) {
	_, err := execute(t, "scenario", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles_Filter(t *testing.T) {
	files, err := findScenarioFiles(scenarioDir, "apparel_*")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	_, err = findScenarioFiles(scenarioDir, "[")
	assert.Error(t, err)
}
