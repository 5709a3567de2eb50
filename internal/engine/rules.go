package engine

import (
	"fmt"

	"github.com/miwamasa/icnet/internal/term"
)

// Rule identifies a rewrite rule from the table. Rule names appear in
// traces, stored runs, and golden files, so they are part of the stable
// surface.
type Rule string

const (
	RuleAppLam     Rule = "APP-LAM"
	RuleAppSup     Rule = "APP-SUP"
	RuleAppEra     Rule = "APP-ERA"
	RuleDupUnused  Rule = "DUP-UNUSED"
	RuleDupNum     Rule = "DUP-NUM"
	RuleDupEra     Rule = "DUP-ERA"
	RuleDupSupSame Rule = "DUP-SUP-SAME"
	RuleDupSupDiff Rule = "DUP-SUP-DIFF"
	RuleDupLam     Rule = "DUP-LAM"
	RuleDupPair    Rule = "DUP-PAIR"
	RuleOpNum      Rule = "OP-NUM"
	RuleOpSupL     Rule = "OP-SUP-L"
	RuleOpSupR     Rule = "OP-SUP-R"
	RuleOpEra      Rule = "OP-ERA"
)

// stepTerm applies one rule at the leftmost-outermost redex of t.
// Returns the rewritten term, the rule applied, and fired=false when t
// contains no redex.
//
// The traversal order IS the evaluation strategy: at every composite node
// the interacting-shape checks run before any descent, and descent always
// visits the function/value/left position before the argument/body/right
// position. Changing this order changes which traces the engine produces.
func (e *Engine) stepTerm(t term.Term) (term.Term, Rule, bool, error) {
	switch v := t.(type) {
	case term.Num, term.Var, term.DupVar, term.Era:
		return t, "", false, nil

	case term.App:
		return e.stepApp(v)

	case term.Dup:
		return e.stepDup(v)

	case term.Op2:
		return e.stepOp2(v)

	case term.Lam:
		body, rule, fired, err := e.stepTerm(v.Body)
		if err != nil || !fired {
			return t, "", false, err
		}
		return term.Lam{Param: v.Param, Body: body}, rule, true, nil

	case term.Sup:
		left, rule, fired, err := e.stepTerm(v.Left)
		if err != nil {
			return nil, "", false, err
		}
		if fired {
			return term.Sup{Label: v.Label, Left: left, Right: v.Right}, rule, true, nil
		}
		right, rule, fired, err := e.stepTerm(v.Right)
		if err != nil || !fired {
			return t, "", false, err
		}
		return term.Sup{Label: v.Label, Left: v.Left, Right: right}, rule, true, nil

	case term.Pair:
		left, rule, fired, err := e.stepTerm(v.Left)
		if err != nil {
			return nil, "", false, err
		}
		if fired {
			return term.Pair{Left: left, Right: v.Right}, rule, true, nil
		}
		right, rule, fired, err := e.stepTerm(v.Right)
		if err != nil || !fired {
			return t, "", false, err
		}
		return term.Pair{Left: v.Left, Right: right}, rule, true, nil

	default:
		return nil, "", false, NewNoApplicableRuleError(fmt.Sprintf("unknown term variant: %T", t))
	}
}

// stepApp handles Application redexes.
func (e *Engine) stepApp(app term.App) (term.Term, Rule, bool, error) {
	switch fn := app.Fn.(type) {
	case term.Lam:
		// APP-LAM: (λx.body arg) → body[x ← arg]. The argument is
		// substituted unevaluated; sharing is recovered by duplication,
		// never by eager evaluation.
		result, err := term.Substitute(fn.Body, fn.Param, app.Arg)
		if err != nil {
			return nil, "", false, NewCaptureError(err)
		}
		return result, RuleAppLam, true, nil

	case term.Sup:
		// APP-SUP: (&L{f,g} a) → ! x &L= a; &L{(f x₀), (g x₁)}.
		// The argument is shared across both branches via a duplication
		// carrying the superposition's own label, never copied.
		x := e.FreshName("x")
		result := term.Dup{
			Name:  x,
			Label: fn.Label,
			Value: app.Arg,
			Body: term.Sup{
				Label: fn.Label,
				Left:  term.App{Fn: fn.Left, Arg: term.DupVar{Name: x, Index: 0}},
				Right: term.App{Fn: fn.Right, Arg: term.DupVar{Name: x, Index: 1}},
			},
		}
		return result, RuleAppSup, true, nil

	case term.Era:
		// APP-ERA: (&{} a) → &{}. The argument is discarded without being
		// forced; a divergent discarded subterm must not hang the engine.
		return term.Era{}, RuleAppEra, true, nil
	}

	fn, rule, fired, err := e.stepTerm(app.Fn)
	if err != nil {
		return nil, "", false, err
	}
	if fired {
		return term.App{Fn: fn, Arg: app.Arg}, rule, true, nil
	}
	arg, rule, fired, err := e.stepTerm(app.Arg)
	if err != nil || !fired {
		return app, "", false, err
	}
	return term.App{Fn: app.Fn, Arg: arg}, rule, true, nil
}

// stepDup handles Duplication redexes.
func (e *Engine) stepDup(dup term.Dup) (term.Term, Rule, bool, error) {
	// DUP-UNUSED: neither x₀ nor x₁ occurs in the body, so the value is
	// discarded unevaluated. Checked before any value interaction for the
	// same reason erasure never forces its operand.
	if !term.ContainsDupVar(dup.Body, dup.Name, 0) && !term.ContainsDupVar(dup.Body, dup.Name, 1) {
		return dup.Body, RuleDupUnused, true, nil
	}

	switch value := dup.Value.(type) {
	case term.Num:
		// DUP-NUM: numbers are irreducible; duplicating them is free.
		return term.SubstituteDup(dup.Body, dup.Name, value, value), RuleDupNum, true, nil

	case term.Era:
		// DUP-ERA: both occurrences become erasures.
		return term.SubstituteDup(dup.Body, dup.Name, term.Era{}, term.Era{}), RuleDupEra, true, nil

	case term.Sup:
		if value.Label == dup.Label {
			// DUP-SUP-SAME: matching labels annihilate. x₀ takes the left
			// branch and x₁ the right; no structural copy of either branch
			// occurs. This free case is the heart of optimal sharing.
			return term.SubstituteDup(dup.Body, dup.Name, value.Left, value.Right),
				RuleDupSupSame, true, nil
		}
		// DUP-SUP-DIFF: mismatched labels commute. Each branch of the
		// foreign superposition gets its own fresh duplication site, both
		// still carrying THIS duplication's label; the superposition's
		// label survives on the recombined occurrences. Both branches are
		// always present in the result.
		a := e.FreshName("a")
		b := e.FreshName("b")
		inner := term.SubstituteDup(dup.Body, dup.Name,
			term.Sup{
				Label: value.Label,
				Left:  term.DupVar{Name: a, Index: 0},
				Right: term.DupVar{Name: b, Index: 0},
			},
			term.Sup{
				Label: value.Label,
				Left:  term.DupVar{Name: a, Index: 1},
				Right: term.DupVar{Name: b, Index: 1},
			})
		result := term.Dup{
			Name: a, Label: dup.Label, Value: value.Left,
			Body: term.Dup{
				Name: b, Label: dup.Label, Value: value.Right,
				Body: inner,
			},
		}
		return result, RuleDupSupDiff, true, nil

	case term.Lam:
		// DUP-LAM: the body is NOT copied. The parameter is replaced by a
		// superposition of two fresh parameters, and the rewritten body is
		// pushed under a fresh duplication; the shared computation happens
		// once, deferred until forced.
		x0 := e.FreshName("x")
		x1 := e.FreshName("x")
		bn := e.FreshName("b")

		newBody, err := term.Substitute(value.Body, value.Param, term.Sup{
			Label: dup.Label,
			Left:  term.Var{Name: x0},
			Right: term.Var{Name: x1},
		})
		if err != nil {
			return nil, "", false, NewCaptureError(err)
		}
		result := term.Dup{
			Name:  bn,
			Label: dup.Label,
			Value: newBody,
			Body: term.SubstituteDup(dup.Body, dup.Name,
				term.Lam{Param: x0, Body: term.DupVar{Name: bn, Index: 0}},
				term.Lam{Param: x1, Body: term.DupVar{Name: bn, Index: 1}}),
		}
		return result, RuleDupLam, true, nil

	case term.Pair:
		// DUP-PAIR: duplicate componentwise through two fresh sites.
		a := e.FreshName("a")
		b := e.FreshName("b")
		inner := term.SubstituteDup(dup.Body, dup.Name,
			term.Pair{
				Left:  term.DupVar{Name: a, Index: 0},
				Right: term.DupVar{Name: b, Index: 0},
			},
			term.Pair{
				Left:  term.DupVar{Name: a, Index: 1},
				Right: term.DupVar{Name: b, Index: 1},
			})
		result := term.Dup{
			Name: a, Label: dup.Label, Value: value.Left,
			Body: term.Dup{
				Name: b, Label: dup.Label, Value: value.Right,
				Body: inner,
			},
		}
		return result, RuleDupPair, true, nil
	}

	value, rule, fired, err := e.stepTerm(dup.Value)
	if err != nil {
		return nil, "", false, err
	}
	if fired {
		return term.Dup{Name: dup.Name, Label: dup.Label, Value: value, Body: dup.Body}, rule, true, nil
	}
	body, rule, fired, err := e.stepTerm(dup.Body)
	if err != nil || !fired {
		return dup, "", false, err
	}
	return term.Dup{Name: dup.Name, Label: dup.Label, Value: dup.Value, Body: body}, rule, true, nil
}

// stepOp2 handles BinaryOp redexes.
func (e *Engine) stepOp2(op term.Op2) (term.Term, Rule, bool, error) {
	// OP-ERA: erasure absorbs the operation without evaluating, or even
	// inspecting, the other operand.
	if isEra(op.Left) || isEra(op.Right) {
		return term.Era{}, RuleOpEra, true, nil
	}

	// OP-SUP-L: (&L{a,b} ⊕ y) → ! Y &L= y; &L{(a ⊕ Y₀), (b ⊕ Y₁)}.
	// The right operand is shared across both branches via duplication.
	if sup, ok := op.Left.(term.Sup); ok {
		y := e.FreshName("y")
		result := term.Dup{
			Name:  y,
			Label: sup.Label,
			Value: op.Right,
			Body: term.Sup{
				Label: sup.Label,
				Left:  term.Op2{Op: op.Op, Left: sup.Left, Right: term.DupVar{Name: y, Index: 0}},
				Right: term.Op2{Op: op.Op, Left: sup.Right, Right: term.DupVar{Name: y, Index: 1}},
			},
		}
		return result, RuleOpSupL, true, nil
	}

	// OP-NUM: both operands are literals.
	if left, ok := op.Left.(term.Num); ok {
		if right, ok := op.Right.(term.Num); ok {
			n, err := applyOp(op.Op, left.Value, right.Value)
			if err != nil {
				return nil, "", false, err
			}
			return term.Num{Value: n}, RuleOpNum, true, nil
		}
	}

	// Leftmost-outermost: exhaust the left operand before considering the
	// right-superposition commute, so an unevaluated left subterm is never
	// copied into both branches.
	left, rule, fired, err := e.stepTerm(op.Left)
	if err != nil {
		return nil, "", false, err
	}
	if fired {
		return term.Op2{Op: op.Op, Left: left, Right: op.Right}, rule, true, nil
	}

	// OP-SUP-R: (v ⊕ &L{a,b}) → &L{(v ⊕ a), (v ⊕ b)}, v redex-free.
	if sup, ok := op.Right.(term.Sup); ok {
		result := term.Sup{
			Label: sup.Label,
			Left:  term.Op2{Op: op.Op, Left: op.Left, Right: sup.Left},
			Right: term.Op2{Op: op.Op, Left: op.Left, Right: sup.Right},
		}
		return result, RuleOpSupR, true, nil
	}

	right, rule, fired, err := e.stepTerm(op.Right)
	if err != nil || !fired {
		return op, "", false, err
	}
	return term.Op2{Op: op.Op, Left: op.Left, Right: right}, rule, true, nil
}

// applyOp evaluates a binary operation on two literals. Division is
// truncating int64 division; division by zero is an arithmetic error, not
// a silent zero.
func applyOp(op string, a, b int64) (int64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, NewArithmeticError(op, a, b)
		}
		return a / b, nil
	default:
		return 0, NewNoApplicableRuleError(fmt.Sprintf("unknown binary operator %q", op))
	}
}

func isEra(t term.Term) bool {
	_, ok := t.(term.Era)
	return ok
}
