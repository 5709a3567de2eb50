package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeFile writes content under dir and returns the full path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const diamondCUE = `
package specs

net: diamond: {
	nodes: [
		{id: "start", type: "goal"},
		{id: "p", type: "goal"},
		{id: "q", type: "goal"},
		{id: "end", type: "goal"},
	]
	edges: [
		{source: "start", target: "p", transform: "left"},
		{source: "start", target: "q", transform: "right"},
		{source: "p", target: "end", transform: "left-done"},
		{source: "q", target: "end", transform: "right-done"},
	]
}
`

const sharedSumYAML = `name: shared-sum
description: duplicate a literal and sum the occurrences
term:
  dup:
    name: x
    label: L
    value: {num: 5}
    body:
      op2:
        op: "+"
        left: {dupvar: {name: x, index: 0}}
        right: {dupvar: {name: x, index: 1}}
expect:
  normal_form: "10"
`

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "validate", "--specs", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))

	wrapped := WrapExitError(ExitFailure, "outer", assert.AnError)
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Contains(t, wrapped.Error(), "outer")
}

func TestReduceCommandText(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "shared-sum.yaml", sharedSumYAML)

	out, err := execute(t, "reduce", "--scenario", scenario)
	require.NoError(t, err)
	assert.Contains(t, out, "10")
	assert.Contains(t, out, "steps: 2")
}

func TestReduceCommandJSONWithTraceAndDB(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "shared-sum.yaml", sharedSumYAML)
	dbPath := filepath.Join(dir, "icnet.db")

	out, err := execute(t, "--format", "json", "reduce",
		"--scenario", scenario, "--trace", "--db", dbPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "10", data["normal_form"])
	assert.Equal(t, float64(2), data["steps"])

	// The persisted trace reads back through the trace command.
	traceOut, err := execute(t, "trace", "--db", dbPath, "--run", "test-run-default")
	require.NoError(t, err)
	assert.Contains(t, traceOut, "DUP-NUM")
	assert.Contains(t, traceOut, "result: 10")
}

func TestReduceCommandTimeoutExitsWithFailure(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "omega.yaml", `name: omega
description: diverges
step_bound: 20
term:
  app:
    fn: {lam: {param: x, body: {app: {fn: {var: x}, arg: {var: x}}}}}
    arg: {lam: {param: x, body: {app: {fn: {var: x}, arg: {var: x}}}}}
expect:
  error: TIMEOUT
`)

	out, err := execute(t, "reduce", "--scenario", scenario)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "TIMEOUT")
}

func TestReduceCommandMissingScenario(t *testing.T) {
	_, err := execute(t, "reduce", "--scenario", "/nonexistent.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPathsCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "diamond.cue", diamondCUE)

	out, err := execute(t, "paths", "--specs", dir, "--net", "diamond",
		"--from", "start", "--to", "end")
	require.NoError(t, err)
	assert.Contains(t, out, "start → p → end")
	assert.Contains(t, out, "start → q → end")
	assert.Contains(t, out, "2 path(s)")
}

func TestPathsCommandJSONWithDB(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "diamond.cue", diamondCUE)
	dbPath := filepath.Join(dir, "icnet.db")

	out, err := execute(t, "--format", "json", "paths", "--specs", dir,
		"--net", "diamond", "--from", "start", "--to", "end", "--db", dbPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["path_count"])
	assert.Equal(t, float64(1), data["query_id"])
}

func TestPathsCommandRequireFailsOnNoPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "diamond.cue", diamondCUE)

	_, err := execute(t, "paths", "--specs", dir, "--net", "diamond",
		"--from", "end", "--to", "start", "--require")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestPathsCommandUnknownNet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "diamond.cue", diamondCUE)

	_, err := execute(t, "paths", "--specs", dir, "--net", "ghost",
		"--from", "a", "--to", "b")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommandReportsNetsAndCycles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nets.cue", diamondCUE+`
net: loop: {
	nodes: [{id: "a", type: "t"}, {id: "b", type: "t"}]
	edges: [
		{source: "a", target: "b", transform: "fwd"},
		{source: "b", target: "a", transform: "back"},
	]
}
`)

	out, err := execute(t, "validate", "--specs", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2 net(s)")
	assert.Contains(t, out, "diamond: 4 node(s)")
	assert.Contains(t, out, "warning: net loop: cycle")
}

func TestValidateCommandFailsOnBrokenSpec(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.cue", `
package specs

net: broken: {
	nodes: [{id: "a", type: "t"}]
	edges: [{source: "a", target: "ghost", transform: "t"}]
}
`)

	out, err := execute(t, "validate", "--specs", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "ghost")
}

func TestValidateCommandEmptyDir(t *testing.T) {
	_, err := execute(t, "validate", "--specs", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceCommandRunNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "icnet.db")
	// Create the database first so only the run is missing.
	dir := t.TempDir()
	scenario := writeFile(t, dir, "s.yaml", sharedSumYAML)
	_, err := execute(t, "reduce", "--scenario", scenario, "--db", dbPath)
	require.NoError(t, err)

	_, err = execute(t, "trace", "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")
}

func TestLoadSpecsErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, errs := LoadSpecs("/definitely/not/here", LoadModeFailFast)
		require.Len(t, errs, 1)
		var loadErr *LoadError
		require.ErrorAs(t, errs[0], &loadErr)
		assert.Equal(t, ErrCodeNotFound, loadErr.Code)
	})

	t.Run("no cue files", func(t *testing.T) {
		_, errs := LoadSpecs(t.TempDir(), LoadModeFailFast)
		require.Len(t, errs, 1)
		var loadErr *LoadError
		require.ErrorAs(t, errs[0], &loadErr)
		assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
	})

	t.Run("compile error carries position", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "bad.cue", "package specs\n\nnet: bad: {edges: []}")
		_, errs := LoadSpecs(dir, LoadModeCollectAll)
		require.NotEmpty(t, errs)
		var loadErr *LoadError
		require.ErrorAs(t, errs[0], &loadErr)
		assert.Equal(t, ErrCodeNetInvalid, loadErr.Code)
	})
}
