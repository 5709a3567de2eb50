package harness

import (
	"fmt"

	"github.com/miwamasa/icnet/internal/term"
)

// TermNode is the structural YAML encoding of a term. Exactly one field
// must be set. This is config decoding, not surface-syntax parsing; the
// calculus has no textual grammar here.
//
//	dup:
//	  name: x
//	  label: L
//	  value: {num: 5}
//	  body:
//	    op2: {op: "+", left: {dupvar: {name: x, index: 0}}, right: {dupvar: {name: x, index: 1}}}
type TermNode struct {
	Num    *int64      `yaml:"num,omitempty"`
	Var    *string     `yaml:"var,omitempty"`
	DupVar *DupVarNode `yaml:"dupvar,omitempty"`
	Lam    *LamNode    `yaml:"lam,omitempty"`
	App    *AppNode    `yaml:"app,omitempty"`
	Dup    *DupNode    `yaml:"dup,omitempty"`
	Sup    *SupNode    `yaml:"sup,omitempty"`
	Era    bool        `yaml:"era,omitempty"`
	Op2    *Op2Node    `yaml:"op2,omitempty"`
	Pair   *PairNode   `yaml:"pair,omitempty"`
}

type DupVarNode struct {
	Name  string `yaml:"name"`
	Index int    `yaml:"index"`
}

type LamNode struct {
	Param string    `yaml:"param"`
	Body  *TermNode `yaml:"body"`
}

type AppNode struct {
	Fn  *TermNode `yaml:"fn"`
	Arg *TermNode `yaml:"arg"`
}

type DupNode struct {
	Name  string    `yaml:"name"`
	Label string    `yaml:"label"`
	Value *TermNode `yaml:"value"`
	Body  *TermNode `yaml:"body"`
}

type SupNode struct {
	Label string    `yaml:"label"`
	Left  *TermNode `yaml:"left"`
	Right *TermNode `yaml:"right"`
}

type Op2Node struct {
	Op    string    `yaml:"op"`
	Left  *TermNode `yaml:"left"`
	Right *TermNode `yaml:"right"`
}

type PairNode struct {
	Left  *TermNode `yaml:"left"`
	Right *TermNode `yaml:"right"`
}

// Build converts the YAML encoding into a term, rejecting nodes with
// zero or multiple variants set.
func (n *TermNode) Build() (term.Term, error) {
	if n == nil {
		return nil, fmt.Errorf("term node is missing")
	}
	if err := n.checkExclusive(); err != nil {
		return nil, err
	}

	switch {
	case n.Num != nil:
		return term.Num{Value: *n.Num}, nil

	case n.Var != nil:
		if *n.Var == "" {
			return nil, fmt.Errorf("var: name must be non-empty")
		}
		return term.Var{Name: *n.Var}, nil

	case n.DupVar != nil:
		if n.DupVar.Index != 0 && n.DupVar.Index != 1 {
			return nil, fmt.Errorf("dupvar %s: index must be 0 or 1, got %d", n.DupVar.Name, n.DupVar.Index)
		}
		return term.DupVar{Name: n.DupVar.Name, Index: n.DupVar.Index}, nil

	case n.Lam != nil:
		body, err := n.Lam.Body.Build()
		if err != nil {
			return nil, fmt.Errorf("lam %s: %w", n.Lam.Param, err)
		}
		return term.Lam{Param: n.Lam.Param, Body: body}, nil

	case n.App != nil:
		fn, err := n.App.Fn.Build()
		if err != nil {
			return nil, fmt.Errorf("app fn: %w", err)
		}
		arg, err := n.App.Arg.Build()
		if err != nil {
			return nil, fmt.Errorf("app arg: %w", err)
		}
		return term.App{Fn: fn, Arg: arg}, nil

	case n.Dup != nil:
		value, err := n.Dup.Value.Build()
		if err != nil {
			return nil, fmt.Errorf("dup %s value: %w", n.Dup.Name, err)
		}
		body, err := n.Dup.Body.Build()
		if err != nil {
			return nil, fmt.Errorf("dup %s body: %w", n.Dup.Name, err)
		}
		return term.Dup{Name: n.Dup.Name, Label: n.Dup.Label, Value: value, Body: body}, nil

	case n.Sup != nil:
		left, err := n.Sup.Left.Build()
		if err != nil {
			return nil, fmt.Errorf("sup %s left: %w", n.Sup.Label, err)
		}
		right, err := n.Sup.Right.Build()
		if err != nil {
			return nil, fmt.Errorf("sup %s right: %w", n.Sup.Label, err)
		}
		return term.Sup{Label: n.Sup.Label, Left: left, Right: right}, nil

	case n.Era:
		return term.Era{}, nil

	case n.Op2 != nil:
		if !term.ValidOps[n.Op2.Op] {
			return nil, fmt.Errorf("op2: unknown operator %q", n.Op2.Op)
		}
		left, err := n.Op2.Left.Build()
		if err != nil {
			return nil, fmt.Errorf("op2 left: %w", err)
		}
		right, err := n.Op2.Right.Build()
		if err != nil {
			return nil, fmt.Errorf("op2 right: %w", err)
		}
		return term.Op2{Op: n.Op2.Op, Left: left, Right: right}, nil

	case n.Pair != nil:
		left, err := n.Pair.Left.Build()
		if err != nil {
			return nil, fmt.Errorf("pair left: %w", err)
		}
		right, err := n.Pair.Right.Build()
		if err != nil {
			return nil, fmt.Errorf("pair right: %w", err)
		}
		return term.Pair{Left: left, Right: right}, nil
	}

	return nil, fmt.Errorf("term node has no variant set")
}

func (n *TermNode) checkExclusive() error {
	count := 0
	for _, set := range []bool{
		n.Num != nil, n.Var != nil, n.DupVar != nil, n.Lam != nil,
		n.App != nil, n.Dup != nil, n.Sup != nil, n.Era,
		n.Op2 != nil, n.Pair != nil,
	} {
		if set {
			count++
		}
	}
	if count > 1 {
		return fmt.Errorf("term node sets %d variants, want exactly one", count)
	}
	return nil
}
