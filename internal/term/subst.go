package term

import "fmt"

// CaptureError reports that a substitution would move a free variable of
// the replacement under a binder that captures it. With engine-generated
// "$"-prefixed fresh names this cannot happen; seeing it means an internal
// invariant was violated, so callers treat it as fatal rather than
// recoverable.
type CaptureError struct {
	Binder string // the binder that would capture
	Name   string // the substituted name
	Free   string // the free variable that would be captured
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("substitution of %q would capture free variable %q under binder %q",
		e.Name, e.Free, e.Binder)
}

// Substitute returns a new term with free occurrences of name replaced by
// repl. Lexical scoping is respected: the walk stops at a Lam that rebinds
// the same name. Indexed occurrences (DupVar) are never touched; they
// belong to their introducing Dup and are rewritten only by SubstituteDup.
func Substitute(t Term, name string, repl Term) (Term, error) {
	free := FreeVars(repl)
	return substitute(t, name, repl, free)
}

func substitute(t Term, name string, repl Term, replFree map[string]bool) (Term, error) {
	switch v := t.(type) {
	case Var:
		if v.Name == name {
			return repl, nil
		}
		return v, nil
	case Num, DupVar, Era:
		return t, nil
	case Lam:
		if v.Param == name {
			return v, nil // shadowed
		}
		if replFree[v.Param] && occursFree(v.Body, name) {
			return nil, &CaptureError{Binder: v.Param, Name: name, Free: v.Param}
		}
		body, err := substitute(v.Body, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		return Lam{Param: v.Param, Body: body}, nil
	case App:
		fn, err := substitute(v.Fn, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		arg, err := substitute(v.Arg, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		return App{Fn: fn, Arg: arg}, nil
	case Sup:
		left, err := substitute(v.Left, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		right, err := substitute(v.Right, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		return Sup{Label: v.Label, Left: left, Right: right}, nil
	case Dup:
		value, err := substitute(v.Value, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		body, err := substitute(v.Body, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		return Dup{Name: v.Name, Label: v.Label, Value: value, Body: body}, nil
	case Op2:
		left, err := substitute(v.Left, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		right, err := substitute(v.Right, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		return Op2{Op: v.Op, Left: left, Right: right}, nil
	case Pair:
		left, err := substitute(v.Left, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		right, err := substitute(v.Right, name, repl, replFree)
		if err != nil {
			return nil, err
		}
		return Pair{Left: left, Right: right}, nil
	default:
		return t, nil
	}
}

// SubstituteDup returns a new term with name₀ replaced by val0 and name₁
// replaced by val1. The walk stops at a nested Dup that rebinds the same
// name: its indexed occurrences belong to the inner binder.
func SubstituteDup(t Term, name string, val0, val1 Term) Term {
	switch v := t.(type) {
	case DupVar:
		if v.Name != name {
			return v
		}
		if v.Index == 0 {
			return val0
		}
		return val1
	case Num, Var, Era:
		return t
	case Lam:
		return Lam{Param: v.Param, Body: SubstituteDup(v.Body, name, val0, val1)}
	case App:
		return App{
			Fn:  SubstituteDup(v.Fn, name, val0, val1),
			Arg: SubstituteDup(v.Arg, name, val0, val1),
		}
	case Sup:
		return Sup{
			Label: v.Label,
			Left:  SubstituteDup(v.Left, name, val0, val1),
			Right: SubstituteDup(v.Right, name, val0, val1),
		}
	case Dup:
		value := SubstituteDup(v.Value, name, val0, val1)
		if v.Name == name {
			// Inner binder rebinds the indexed occurrences.
			return Dup{Name: v.Name, Label: v.Label, Value: value, Body: v.Body}
		}
		return Dup{
			Name:  v.Name,
			Label: v.Label,
			Value: value,
			Body:  SubstituteDup(v.Body, name, val0, val1),
		}
	case Op2:
		return Op2{
			Op:    v.Op,
			Left:  SubstituteDup(v.Left, name, val0, val1),
			Right: SubstituteDup(v.Right, name, val0, val1),
		}
	case Pair:
		return Pair{
			Left:  SubstituteDup(v.Left, name, val0, val1),
			Right: SubstituteDup(v.Right, name, val0, val1),
		}
	default:
		return t
	}
}

// ContainsDupVar reports whether t contains an occurrence of name with the
// given index outside any inner Dup that rebinds name. Uses an explicit
// worklist so deeply nested terms cannot exhaust the goroutine stack.
func ContainsDupVar(t Term, name string, index int) bool {
	stack := []Term{t}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := cur.(type) {
		case DupVar:
			if v.Name == name && v.Index == index {
				return true
			}
		case Lam:
			stack = append(stack, v.Body)
		case App:
			stack = append(stack, v.Arg, v.Fn)
		case Sup:
			stack = append(stack, v.Right, v.Left)
		case Dup:
			stack = append(stack, v.Value)
			if v.Name != name {
				stack = append(stack, v.Body)
			}
		case Op2:
			stack = append(stack, v.Right, v.Left)
		case Pair:
			stack = append(stack, v.Right, v.Left)
		}
	}
	return false
}

// FreeVars collects the free plain-variable names of t. Lambda parameters
// bind; Dup names bind only indexed occurrences, which are not plain
// variables, so Dup contributes no plain binding. Uses an explicit
// worklist with scoped bound-sets.
func FreeVars(t Term) map[string]bool {
	free := make(map[string]bool)

	type frame struct {
		t     Term
		bound map[string]bool
	}
	stack := []frame{{t: t, bound: nil}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := f.t.(type) {
		case Var:
			if !f.bound[v.Name] {
				free[v.Name] = true
			}
		case Lam:
			inner := withBound(f.bound, v.Param)
			stack = append(stack, frame{t: v.Body, bound: inner})
		case App:
			stack = append(stack, frame{t: v.Arg, bound: f.bound}, frame{t: v.Fn, bound: f.bound})
		case Sup:
			stack = append(stack, frame{t: v.Right, bound: f.bound}, frame{t: v.Left, bound: f.bound})
		case Dup:
			stack = append(stack, frame{t: v.Body, bound: f.bound}, frame{t: v.Value, bound: f.bound})
		case Op2:
			stack = append(stack, frame{t: v.Right, bound: f.bound}, frame{t: v.Left, bound: f.bound})
		case Pair:
			stack = append(stack, frame{t: v.Right, bound: f.bound}, frame{t: v.Left, bound: f.bound})
		}
	}
	return free
}

// Size counts the nodes of t with an explicit worklist.
func Size(t Term) int {
	n := 0
	stack := []Term{t}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++

		switch v := cur.(type) {
		case Lam:
			stack = append(stack, v.Body)
		case App:
			stack = append(stack, v.Arg, v.Fn)
		case Sup:
			stack = append(stack, v.Right, v.Left)
		case Dup:
			stack = append(stack, v.Body, v.Value)
		case Op2:
			stack = append(stack, v.Right, v.Left)
		case Pair:
			stack = append(stack, v.Right, v.Left)
		}
	}
	return n
}

// occursFree reports whether name occurs free in t, skipping subtrees
// under a Lam that rebinds it.
func occursFree(t Term, name string) bool {
	stack := []Term{t}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := cur.(type) {
		case Var:
			if v.Name == name {
				return true
			}
		case Lam:
			if v.Param != name {
				stack = append(stack, v.Body)
			}
		case App:
			stack = append(stack, v.Arg, v.Fn)
		case Sup:
			stack = append(stack, v.Right, v.Left)
		case Dup:
			stack = append(stack, v.Body, v.Value)
		case Op2:
			stack = append(stack, v.Right, v.Left)
		case Pair:
			stack = append(stack, v.Right, v.Left)
		}
	}
	return false
}

func withBound(bound map[string]bool, name string) map[string]bool {
	inner := make(map[string]bool, len(bound)+1)
	for k := range bound {
		inner[k] = true
	}
	inner[name] = true
	return inner
}
