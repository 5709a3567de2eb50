package netspec

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miwamasa/icnet/internal/net"
)

func compileNet(t *testing.T, src, path string) (*net.Spec, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileNet(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileNetDiamond(t *testing.T) {
	src := `
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
	spec, err := compileNet(t, src, "net.diamond")
	require.NoError(t, err)
	assert.Equal(t, "diamond", spec.Name)
	require.Len(t, spec.Nodes, 4)
	require.Len(t, spec.Edges, 4)

	// Edge order in the spec matches declaration order in the file.
	assert.Equal(t, "left", spec.Edges[0].Transform)
	assert.Equal(t, "right-done", spec.Edges[3].Transform)

	// The compiled spec builds cleanly.
	_, err = net.Build(*spec)
	require.NoError(t, err)
}

func TestCompileNetWithCellsAndValues(t *testing.T) {
	src := `
net: shared: {
	nodes: [
		{id: "in", type: "number", value: 5},
		{id: "out0", type: "number"},
		{id: "out1", type: "number"},
	]
	cells: [
		{kind: "duplicator", label: "L", inputs: ["in"], outputs: ["out0", "out1"]},
	]
}
`
	spec, err := compileNet(t, src, "net.shared")
	require.NoError(t, err)

	require.NotNil(t, spec.Nodes[0].Value)
	assert.Equal(t, int64(5), *spec.Nodes[0].Value)

	require.Len(t, spec.Cells, 1)
	assert.Equal(t, net.Duplicator, spec.Cells[0].Kind)
	assert.Equal(t, []string{"out0", "out1"}, spec.Cells[0].Outputs)
}

func TestCompileNetMetadata(t *testing.T) {
	src := `
net: annotated: {
	nodes: [{id: "a", type: "t", metadata: {source: "demo"}}]
	edges: []
}
`
	spec, err := compileNet(t, src, "net.annotated")
	require.NoError(t, err)
	assert.Equal(t, "demo", spec.Nodes[0].Metadata["source"])
}

func TestCompileNetMissingNodes(t *testing.T) {
	src := `
net: empty: {
	edges: []
}
`
	_, err := compileNet(t, src, "net.empty")
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "nodes", compileErr.Field)
}

func TestCompileNetMissingEdgeFields(t *testing.T) {
	src := `
net: broken: {
	nodes: [{id: "a", type: "t"}]
	edges: [{source: "a", target: "a"}]
}
`
	_, err := compileNet(t, src, "net.broken")
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "transform", compileErr.Field)
}

func TestCompileNetRejectsFloatValues(t *testing.T) {
	src := `
net: floaty: {
	nodes: [{id: "a", type: "number", value: 1.5}]
}
`
	_, err := compileNet(t, src, "net.floaty")
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Contains(t, compileErr.Message, "integers")
}
