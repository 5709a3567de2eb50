// Package netspec compiles declarative CUE net specifications into
// net.Spec values and provides static diagnostics over them.
//
// A spec file declares nets under a top-level "net" struct:
//
//	net: diamond: {
//		nodes: [{id: "start", type: "goal"}, ...]
//		edges: [{source: "start", target: "p", transform: "left"}, ...]
//		cells: [{kind: "duplicator", label: "L", inputs: [...], outputs: [...]}]
//	}
package netspec

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/miwamasa/icnet/internal/net"
)

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileNet parses a CUE value into a net.Spec. The value should be one
// net struct; its name is taken from the struct label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`net: diamond: { ... }`)
//	spec, err := CompileNet(v.LookupPath(cue.ParsePath("net.diamond")))
//
// Structural validation (declared ids, cell arity) belongs to net.Build;
// this layer only checks that the CUE shape decodes.
func CompileNet(v cue.Value) (*net.Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &net.Spec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	nodesVal := v.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "nodes are required",
			Pos:     v.Pos(),
		}
	}
	nodes, err := parseNodes(nodesVal)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "at least one node is required",
			Pos:     nodesVal.Pos(),
		}
	}
	spec.Nodes = nodes

	edgesVal := v.LookupPath(cue.ParsePath("edges"))
	if edgesVal.Exists() {
		spec.Edges, err = parseEdges(edgesVal)
		if err != nil {
			return nil, err
		}
	}

	cellsVal := v.LookupPath(cue.ParsePath("cells"))
	if cellsVal.Exists() {
		spec.Cells, err = parseCells(cellsVal)
		if err != nil {
			return nil, err
		}
	}

	return spec, nil
}

func parseNodes(v cue.Value) ([]net.Node, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var nodes []net.Node
	for iter.Next() {
		nodeVal := iter.Value()
		node := net.Node{}

		node.ID, err = requiredString(nodeVal, "id")
		if err != nil {
			return nil, err
		}
		node.Type, err = requiredString(nodeVal, "type")
		if err != nil {
			return nil, err
		}

		// Literal values are int64 only. Floats break deterministic
		// hashing downstream and are rejected here, at the boundary.
		valueVal := nodeVal.LookupPath(cue.ParsePath("value"))
		if valueVal.Exists() {
			if valueVal.IncompleteKind() != cue.IntKind {
				return nil, &CompileError{
					Field:   fmt.Sprintf("nodes.%s.value", node.ID),
					Message: "node values must be integers (floats are forbidden)",
					Pos:     valueVal.Pos(),
				}
			}
			n, err := valueVal.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			node.Value = &n
		}

		node.Metadata, err = parseMetadata(nodeVal)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func parseEdges(v cue.Value) ([]net.Edge, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var edges []net.Edge
	for iter.Next() {
		edgeVal := iter.Value()
		edge := net.Edge{}

		edge.Source, err = requiredString(edgeVal, "source")
		if err != nil {
			return nil, err
		}
		edge.Target, err = requiredString(edgeVal, "target")
		if err != nil {
			return nil, err
		}
		edge.Transform, err = requiredString(edgeVal, "transform")
		if err != nil {
			return nil, err
		}

		edge.Metadata, err = parseMetadata(edgeVal)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

func parseCells(v cue.Value) ([]net.Cell, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cells []net.Cell
	for iter.Next() {
		cellVal := iter.Value()
		cell := net.Cell{}

		kind, err := requiredString(cellVal, "kind")
		if err != nil {
			return nil, err
		}
		cell.Kind = net.CellKind(kind)

		cell.Label, err = requiredString(cellVal, "label")
		if err != nil {
			return nil, err
		}

		cell.Inputs, err = stringList(cellVal, "inputs")
		if err != nil {
			return nil, err
		}
		cell.Outputs, err = stringList(cellVal, "outputs")
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return nil, nil
	}
	iter, err := fieldVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func parseMetadata(v cue.Value) (map[string]string, error) {
	metaVal := v.LookupPath(cue.ParsePath("metadata"))
	if !metaVal.Exists() {
		return nil, nil
	}
	iter, err := metaVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	meta := make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		meta[iter.Label()] = s
	}
	return meta, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
