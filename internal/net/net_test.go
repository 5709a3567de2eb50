package net

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildValidatesEdgeEndpoints(t *testing.T) {
	spec := NewSpecBuilder("broken").
		Node("a", "type").
		Edge("a", "ghost", "t").
		Spec()

	_, err := Build(spec)
	require.Error(t, err)

	var unknown *UnknownNodeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.ID)
	assert.Contains(t, unknown.Error(), "edge[0] target")
}

func TestBuildValidatesCellPorts(t *testing.T) {
	spec := NewSpecBuilder("broken").
		Node("in", "type").
		Node("out0", "type").
		Duplicator("L", "in", "out0", "missing").
		Spec()

	_, err := Build(spec)
	var unknown *UnknownNodeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.ID)
}

func TestBuildValidatesCellArity(t *testing.T) {
	spec := Spec{
		Name:  "broken",
		Nodes: []Node{{ID: "a", Type: "t"}, {ID: "b", Type: "t"}},
		Cells: []Cell{{
			Kind:   Duplicator,
			Label:  "L",
			Inputs: []string{"a", "b"}, // duplicators take one input
		}},
	}

	_, err := Build(spec)
	var invalid *InvalidCellError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, Duplicator, invalid.Kind)
}

func TestBuildRejectsDuplicateNodeIDs(t *testing.T) {
	spec := NewSpecBuilder("dup").Node("a", "t").Node("a", "t").Spec()
	_, err := Build(spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node id")
}

func TestBuildAllowsCycles(t *testing.T) {
	// Cycles are legal at build time; only path enumeration excludes them.
	n, err := NewSpecBuilder("cyclic").
		Node("a", "t").Node("b", "t").
		Edge("a", "b", "fwd").
		Edge("b", "a", "back").
		Build()
	require.NoError(t, err)
	assert.Equal(t, 2, n.NodeCount())
}

func TestBuildAcceptsFullCellSet(t *testing.T) {
	n, err := NewSpecBuilder("agents").
		Node("in", "t").Node("o0", "t").Node("o1", "t").
		Node("l", "t").Node("r", "t").Node("out", "t").
		NumberNode("lit", 42).
		Duplicator("L", "in", "o0", "o1").
		Superposition("L", "l", "r", "out").
		Lambda("f", "in", "out").
		Eraser("e", "lit").
		Build()
	require.NoError(t, err)

	export := n.Export()
	assert.Len(t, export.Cells, 4)

	lit, ok := n.Node("lit")
	require.True(t, ok)
	require.NotNil(t, lit.Value)
	assert.Equal(t, int64(42), *lit.Value)
}

func TestExportIsPlainAndStable(t *testing.T) {
	build := func() Export {
		n, err := NewSpecBuilder("export").
			Node("start", "goal").
			Node("end", "goal").
			Edge("start", "end", "solve").
			Build()
		require.NoError(t, err)
		return n.Export()
	}

	first, err := json.Marshal(build())
	require.NoError(t, err)
	second, err := json.Marshal(build())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Node order in the export follows declaration order.
	e := build()
	assert.Equal(t, "start", e.Nodes[0].ID)
	assert.Equal(t, "end", e.Nodes[1].ID)
}

func TestExportIsACopy(t *testing.T) {
	n, err := NewSpecBuilder("copy").
		Node("a", "t").Node("b", "t").
		Edge("a", "b", "t").
		Build()
	require.NoError(t, err)

	export := n.Export()
	export.Edges[0].Transform = "mutated"
	assert.Equal(t, "t", n.Edges()[0].Transform)
}
