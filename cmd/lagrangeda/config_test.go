package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenarioDefaults(t *testing.T) {
	path := writeScenario(t, "small.yaml", `
k: 4
r_cut: 1
style: square
steps: 30
ou:
  tracers: 3
  sigma_xy: 0.2
output:
  csv: false
`)
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, 4, sc.K)
	assert.Equal(t, "square", sc.Style)
	assert.Equal(t, 30, sc.Steps)
	assert.Equal(t, 3, sc.OU.Tracers)
	assert.Equal(t, 0.2, sc.OU.SigmaXY)
	assert.False(t, sc.Output.CSV)

	// Untouched fields keep their defaults.
	def := DefaultScenario()
	assert.Equal(t, def.Chunk, sc.Chunk)
	assert.Equal(t, def.Dt, sc.Dt)
	assert.Equal(t, def.OU.Gamma, sc.OU.Gamma)
	assert.Equal(t, def.QG, sc.QG)

	set, err := sc.SpectralSet()
	require.NoError(t, err)
	assert.Equal(t, 9, set.Len())
	assert.Equal(t, 30, sc.RunConfig().Steps)
}

func TestLoadScenarioErrors(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "scenario.json", "{}"))
	assert.ErrorContains(t, err, "extension")

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadScenario(writeScenario(t, "bad.yaml", "k: [1, 2"))
	assert.ErrorContains(t, err, "parse")

	_, err = LoadScenario(writeScenario(t, "invalid.yml", "k: 0\nstyle: hexagon\nruns: 0\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "k must be positive")
	assert.ErrorContains(t, err, "hexagon")
	assert.ErrorContains(t, err, "runs must be positive")
}

func TestDefaultScenarioIsValid(t *testing.T) {
	require.NoError(t, DefaultScenario().Validate())
	sc := DefaultScenario()
	sc.OU.SigmaXY = 0
	require.Error(t, sc.Validate())
}
