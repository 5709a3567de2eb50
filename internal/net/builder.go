package net

// SpecBuilder assembles a Spec incrementally. It performs no validation;
// Build does. All methods return the builder for chaining.
type SpecBuilder struct {
	spec Spec
}

// NewSpecBuilder starts a spec for the named net.
func NewSpecBuilder(name string) *SpecBuilder {
	return &SpecBuilder{spec: Spec{Name: name}}
}

// Node declares a typed node.
func (b *SpecBuilder) Node(id, typeTag string) *SpecBuilder {
	b.spec.Nodes = append(b.spec.Nodes, Node{ID: id, Type: typeTag})
	return b
}

// NumberNode declares a node carrying a literal value.
func (b *SpecBuilder) NumberNode(id string, value int64) *SpecBuilder {
	v := value
	b.spec.Nodes = append(b.spec.Nodes, Node{ID: id, Type: "number", Value: &v})
	return b
}

// Edge declares a transformation edge. Declaration order is preserved
// into the built net.
func (b *SpecBuilder) Edge(source, target, transform string) *SpecBuilder {
	b.spec.Edges = append(b.spec.Edges, Edge{Source: source, Target: target, Transform: transform})
	return b
}

// Duplicator wires a duplicator cell: one input fanning out to two
// indexed outputs.
func (b *SpecBuilder) Duplicator(label, input, out0, out1 string) *SpecBuilder {
	b.spec.Cells = append(b.spec.Cells, Cell{
		Kind:    Duplicator,
		Label:   label,
		Inputs:  []string{input},
		Outputs: []string{out0, out1},
	})
	return b
}

// Superposition wires a superposition cell: two branches joining into one
// output.
func (b *SpecBuilder) Superposition(label, left, right, output string) *SpecBuilder {
	b.spec.Cells = append(b.spec.Cells, Cell{
		Kind:    Superposition,
		Label:   label,
		Inputs:  []string{left, right},
		Outputs: []string{output},
	})
	return b
}

// Lambda wires a constructor cell representing an abstraction: the
// parameter node in, the body node out.
func (b *SpecBuilder) Lambda(label, param, body string) *SpecBuilder {
	b.spec.Cells = append(b.spec.Cells, Cell{
		Kind:    Constructor,
		Label:   label,
		Inputs:  []string{param},
		Outputs: []string{body},
	})
	return b
}

// Eraser wires an eraser cell absorbing one input.
func (b *SpecBuilder) Eraser(label, input string) *SpecBuilder {
	b.spec.Cells = append(b.spec.Cells, Cell{
		Kind:   Eraser,
		Label:  label,
		Inputs: []string{input},
	})
	return b
}

// Spec returns the accumulated spec.
func (b *SpecBuilder) Spec() Spec { return b.spec }

// Build validates and constructs the net.
func (b *SpecBuilder) Build() (*Net, error) { return Build(b.spec) }
