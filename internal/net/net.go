// Package net models interaction nets as plain directed graphs: nodes
// carry type tags and optional literal values, edges carry transformation
// names, and cells record the interaction agents (duplicators,
// superpositions, erasers, constructors) wired over the nodes.
//
// A Net is built once from a Spec and is immutable afterwards. Cycles are
// structurally legal; acyclicity is enforced per path at enumeration time,
// not at build time.
package net

import "fmt"

// CellKind classifies an interaction agent.
type CellKind string

const (
	Constructor   CellKind = "constructor"
	Duplicator    CellKind = "duplicator"
	Superposition CellKind = "superposition"
	Eraser        CellKind = "eraser"
)

// Node is a typed vertex. Value is set only for literal-carrying nodes.
type Node struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Value    *int64            `json:"value,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Edge is a named transformation between two declared nodes. Declaration
// order is significant: it fixes the order in which path enumeration
// visits children.
type Edge struct {
	Source    string            `json:"source"`
	Target    string            `json:"target"`
	Transform string            `json:"transform"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Cell wires an interaction agent over declared nodes. Arity is fixed per
// kind: a duplicator has one input and two outputs, a superposition two
// inputs and one output, an eraser one input and no outputs.
type Cell struct {
	Kind    CellKind `json:"kind"`
	Label   string   `json:"label"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Spec is the explicit description a Net is built from.
type Spec struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Cells []Cell `json:"cells,omitempty"`
}

// UnknownNodeError reports a reference to a node id that was never
// declared.
type UnknownNodeError struct {
	// ID is the undeclared node id.
	ID string

	// Ref describes the referencing site (edge endpoint or cell port).
	Ref string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q referenced by %s", e.ID, e.Ref)
}

// InvalidCellError reports a cell whose port count does not match its
// kind's arity.
type InvalidCellError struct {
	Kind   CellKind
	Label  string
	Reason string
}

func (e *InvalidCellError) Error() string {
	return fmt.Sprintf("invalid %s cell %q: %s", e.Kind, e.Label, e.Reason)
}

// Net is an immutable built graph. Adjacency is precomputed in edge
// declaration order so enumeration never needs to sort.
type Net struct {
	name  string
	nodes map[string]Node
	order []string
	edges []Edge
	cells []Cell
	// adjacency maps a source node id to indices into edges, in
	// declaration order.
	adjacency map[string][]int
}

// Build validates a spec and constructs the net. Every edge endpoint and
// cell port must reference a declared node id; violations surface as
// UnknownNodeError. Duplicate node ids are rejected.
func Build(spec Spec) (*Net, error) {
	n := &Net{
		name:      spec.Name,
		nodes:     make(map[string]Node, len(spec.Nodes)),
		order:     make([]string, 0, len(spec.Nodes)),
		edges:     make([]Edge, len(spec.Edges)),
		cells:     make([]Cell, len(spec.Cells)),
		adjacency: make(map[string][]int),
	}
	copy(n.edges, spec.Edges)
	copy(n.cells, spec.Cells)

	for _, node := range spec.Nodes {
		if node.ID == "" {
			return nil, fmt.Errorf("node with empty id in net %q", spec.Name)
		}
		if _, dup := n.nodes[node.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q in net %q", node.ID, spec.Name)
		}
		n.nodes[node.ID] = node
		n.order = append(n.order, node.ID)
	}

	for i, edge := range n.edges {
		if _, ok := n.nodes[edge.Source]; !ok {
			return nil, &UnknownNodeError{ID: edge.Source, Ref: fmt.Sprintf("edge[%d] source", i)}
		}
		if _, ok := n.nodes[edge.Target]; !ok {
			return nil, &UnknownNodeError{ID: edge.Target, Ref: fmt.Sprintf("edge[%d] target", i)}
		}
		n.adjacency[edge.Source] = append(n.adjacency[edge.Source], i)
	}

	for i, cell := range n.cells {
		if err := validateCell(i, cell, n.nodes); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func validateCell(idx int, cell Cell, nodes map[string]Node) error {
	var wantIn, wantOut int
	switch cell.Kind {
	case Duplicator:
		wantIn, wantOut = 1, 2
	case Superposition:
		wantIn, wantOut = 2, 1
	case Eraser:
		wantIn, wantOut = 1, 0
	case Constructor:
		wantIn, wantOut = -1, -1
	default:
		return &InvalidCellError{Kind: cell.Kind, Label: cell.Label, Reason: "unknown cell kind"}
	}
	if wantIn >= 0 && (len(cell.Inputs) != wantIn || len(cell.Outputs) != wantOut) {
		return &InvalidCellError{
			Kind:  cell.Kind,
			Label: cell.Label,
			Reason: fmt.Sprintf("want %d input(s) and %d output(s), got %d and %d",
				wantIn, wantOut, len(cell.Inputs), len(cell.Outputs)),
		}
	}
	for _, id := range cell.Inputs {
		if _, ok := nodes[id]; !ok {
			return &UnknownNodeError{ID: id, Ref: fmt.Sprintf("cell[%d] %s input", idx, cell.Kind)}
		}
	}
	for _, id := range cell.Outputs {
		if _, ok := nodes[id]; !ok {
			return &UnknownNodeError{ID: id, Ref: fmt.Sprintf("cell[%d] %s output", idx, cell.Kind)}
		}
	}
	return nil
}

// Name returns the net's declared name.
func (n *Net) Name() string { return n.name }

// Node looks up a node by id.
func (n *Net) Node(id string) (Node, bool) {
	node, ok := n.nodes[id]
	return node, ok
}

// NodeCount returns the number of declared nodes.
func (n *Net) NodeCount() int { return len(n.nodes) }

// Edges returns the edge list in declaration order. The caller must not
// mutate it.
func (n *Net) Edges() []Edge { return n.edges }

// Export is the plain serializable view handed to external renderers.
type Export struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Cells []Cell `json:"cells,omitempty"`
}

// Export snapshots the net as plain data. Nodes appear in declaration
// order, edges and cells exactly as declared, so the output is
// byte-stable for a given spec.
func (n *Net) Export() Export {
	nodes := make([]Node, 0, len(n.order))
	for _, id := range n.order {
		nodes = append(nodes, n.nodes[id])
	}
	edges := make([]Edge, len(n.edges))
	copy(edges, n.edges)
	cells := make([]Cell, len(n.cells))
	copy(cells, n.cells)
	return Export{Name: n.name, Nodes: nodes, Edges: edges, Cells: cells}
}
