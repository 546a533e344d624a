package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), buf.String())
	return buf.String()
}

func TestModesCommand(t *testing.T) {
	out := execute(t, "modes", "--k", "4", "--r-cut", "1")
	require.Contains(t, out, "K=4 r=1 circle: 5 modes")
}

func TestOUCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	path := writeScenario(t, "ou.yaml", `
k: 4
r_cut: 1
steps: 40
chunk: 7
dt: 0.01
prefetch: true
runs: 2
ou:
  tracers: 4
output:
  csv: true
  plot: true
  plot_modes: 1
`)
	out := execute(t, "ou", path, "--out", dir, "--db", db)
	require.Contains(t, out, "ou: 5 modes, 4 tracers, 2 runs")
	require.Contains(t, out, "χ² test")
	require.FileExists(t, filepath.Join(dir, "ou.csv"))
	require.FileExists(t, filepath.Join(dir, "component_000.png"))

	list := execute(t, "runs", db)
	require.Equal(t, 1, strings.Count(list, "ou "))
	id := strings.Fields(list)[0]

	t.Chdir(dir)
	execute(t, "runs", db, "--export", id)
	require.FileExists(t, filepath.Join(dir, id+".csv"))
}

func TestQGCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, "qg.yaml", `
k: 4
r_cut: 1.5
steps: 20
chunk: 6
dt: 0.01
output:
  csv: false
`)
	out := execute(t, "qg", path, "--out", dir)
	require.Contains(t, out, "qg: 9 modes")
	require.Contains(t, out, "mode ( 0, 0)  |μ| spread 0.0000")
	require.NotContains(t, out, "NaN")
}

func TestQGCommandSeveralRuns(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, "qg.yaml", `
k: 4
r_cut: 1
steps: 10
chunk: 4
dt: 0.01
runs: 3
output:
  csv: false
`)
	out := execute(t, "qg", path, "--out", dir)
	require.Contains(t, out, "qg: 5 modes, ")
	require.Contains(t, out, "3 runs")
	require.Equal(t, 5, strings.Count(out, "|μ| spread"))
	require.NotContains(t, out, "NaN")
}

func TestQGCommandDefaultScenario(t *testing.T) {
	dir := t.TempDir()
	out := execute(t, "qg", "--out", dir)
	require.Contains(t, out, "1 runs")
	require.NotContains(t, out, "NaN")
	require.FileExists(t, filepath.Join(dir, "qg.csv"))
}
