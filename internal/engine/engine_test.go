package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miwamasa/icnet/internal/term"
)

// omega is the classic divergent term (λx.(x x) λx.(x x)).
func omega() term.Term {
	self := term.Lam{Param: "x", Body: term.App{
		Fn:  term.Var{Name: "x"},
		Arg: term.Var{Name: "x"},
	}}
	return term.App{Fn: self, Arg: self}
}

func add(l, r term.Term) term.Term {
	return term.Op2{Op: "+", Left: l, Right: r}
}

func TestReduceIdentityApplication(t *testing.T) {
	e := NewEngine()
	input := term.App{
		Fn:  term.Lam{Param: "x", Body: term.Var{Name: "x"}},
		Arg: term.Num{Value: 42},
	}

	result, res, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, term.Num{Value: 42}, result)
	assert.Equal(t, 1, res.Steps)
}

func TestReduceDupNum(t *testing.T) {
	// ! x &L= 5; (x0 + x1) duplicates the literal and sums to 10.
	e := NewEngine()
	input := term.Dup{
		Name: "x", Label: "L", Value: term.Num{Value: 5},
		Body: add(term.DupVar{Name: "x", Index: 0}, term.DupVar{Name: "x", Index: 1}),
	}

	result, res, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, term.Num{Value: 10}, result)
	assert.Equal(t, 2, res.Steps)
}

func TestReduceDupSupSameLabelAnnihilates(t *testing.T) {
	// ! x &L= &L{1, 2}; (x0 + x1): matching labels route the branches
	// directly, so the result is 1 + 2 = 3 and never a superposition.
	e := NewEngine()
	input := term.Dup{
		Name: "x", Label: "L",
		Value: term.Sup{Label: "L", Left: term.Num{Value: 1}, Right: term.Num{Value: 2}},
		Body:  add(term.DupVar{Name: "x", Index: 0}, term.DupVar{Name: "x", Index: 1}),
	}

	result, res, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, term.Num{Value: 3}, result)
	assert.Equal(t, 2, res.Steps)
}

func TestReduceDupSupDiffLabelCommutes(t *testing.T) {
	// ! x &L= &M{1, 2}; (x0 + x1): mismatched labels commute, and the
	// foreign superposition survives with both branches doubled.
	e := NewEngine()
	input := term.Dup{
		Name: "x", Label: "L",
		Value: term.Sup{Label: "M", Left: term.Num{Value: 1}, Right: term.Num{Value: 2}},
		Body:  add(term.DupVar{Name: "x", Index: 0}, term.DupVar{Name: "x", Index: 1}),
	}

	result, _, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, term.Sup{
		Label: "M",
		Left:  term.Num{Value: 2},
		Right: term.Num{Value: 4},
	}, result)
}

func TestReduceDupLamSharesBody(t *testing.T) {
	// ! f &L= λx.(x + 1); ((f0 2), (f1 3)): the lambda body is rewritten
	// through one shared duplication site, then each copy applies.
	e := NewEngine()
	inc := term.Lam{Param: "x", Body: add(term.Var{Name: "x"}, term.Num{Value: 1})}
	input := term.Dup{
		Name: "f", Label: "L", Value: inc,
		Body: term.Pair{
			Left:  term.App{Fn: term.DupVar{Name: "f", Index: 0}, Arg: term.Num{Value: 2}},
			Right: term.App{Fn: term.DupVar{Name: "f", Index: 1}, Arg: term.Num{Value: 3}},
		},
	}

	result, _, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, term.Pair{
		Left:  term.Num{Value: 3},
		Right: term.Num{Value: 4},
	}, result)
}

func TestReduceDupPairComponentwise(t *testing.T) {
	// ! x &L= (1, 2); (x0, x1): the pair duplicates componentwise through
	// two fresh sites, yielding two structurally equal pairs.
	e := NewEngine()
	input := term.Dup{
		Name: "x", Label: "L",
		Value: term.Pair{Left: term.Num{Value: 1}, Right: term.Num{Value: 2}},
		Body: term.Pair{
			Left:  term.DupVar{Name: "x", Index: 0},
			Right: term.DupVar{Name: "x", Index: 1},
		},
	}

	result, res, err := e.Reduce(input)
	require.NoError(t, err)
	pair := term.Pair{Left: term.Num{Value: 1}, Right: term.Num{Value: 2}}
	assert.Equal(t, term.Pair{Left: pair, Right: pair}, result)
	assert.Equal(t, 3, res.Steps)
}

func TestReduceDupEra(t *testing.T) {
	e := NewEngine()
	input := term.Dup{
		Name: "x", Label: "L",
		Value: term.Era{},
		Body: term.Pair{
			Left:  term.DupVar{Name: "x", Index: 0},
			Right: term.DupVar{Name: "x", Index: 1},
		},
	}

	result, res, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, term.Pair{Left: term.Era{}, Right: term.Era{}}, result)
	assert.Equal(t, 1, res.Steps)
}

func TestReduceAppSupSharesArgument(t *testing.T) {
	// (&L{λx.x, λy.5} 7) applies both branches to the shared argument.
	e := NewEngine()
	input := term.App{
		Fn: term.Sup{
			Label: "L",
			Left:  term.Lam{Param: "x", Body: term.Var{Name: "x"}},
			Right: term.Lam{Param: "y", Body: term.Num{Value: 5}},
		},
		Arg: term.Num{Value: 7},
	}

	result, _, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, term.Sup{
		Label: "L",
		Left:  term.Num{Value: 7},
		Right: term.Num{Value: 5},
	}, result)
}

func TestReduceDupUnusedDiscardsWithoutEvaluating(t *testing.T) {
	// The discarded value is divergent; DUP-UNUSED must drop it before
	// any interaction touches it.
	e := NewEngine(WithStepBound(50))
	input := term.Dup{
		Name: "x", Label: "L",
		Value: omega(),
		Body:  term.Num{Value: 42},
	}

	result, res, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, term.Num{Value: 42}, result)
	assert.Equal(t, 1, res.Steps)
}

func TestReduceErasure(t *testing.T) {
	t.Run("app era discards argument", func(t *testing.T) {
		e := NewEngine(WithStepBound(50))
		input := term.App{Fn: term.Era{}, Arg: omega()}
		result, res, err := e.Reduce(input)
		require.NoError(t, err)
		assert.Equal(t, term.Era{}, result)
		assert.Equal(t, 1, res.Steps)
	})

	t.Run("op era left absorbs without forcing right", func(t *testing.T) {
		e := NewEngine(WithStepBound(50))
		input := term.Op2{Op: "+", Left: term.Era{}, Right: omega()}
		result, _, err := e.Reduce(input)
		require.NoError(t, err)
		assert.Equal(t, term.Era{}, result)
	})

	t.Run("op era right absorbs without forcing left", func(t *testing.T) {
		e := NewEngine(WithStepBound(50))
		input := term.Op2{Op: "+", Left: omega(), Right: term.Era{}}
		result, _, err := e.Reduce(input)
		require.NoError(t, err)
		assert.Equal(t, term.Era{}, result)
	})
}

func TestReduceOpSupRight(t *testing.T) {
	// (5 + &L{1, 2}): the left operand is redex-free, so the operation
	// distributes over the right superposition without a duplication.
	e := NewEngine()
	input := term.Op2{
		Op:   "+",
		Left: term.Num{Value: 5},
		Right: term.Sup{
			Label: "L",
			Left:  term.Num{Value: 1},
			Right: term.Num{Value: 2},
		},
	}

	result, _, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, term.Sup{
		Label: "L",
		Left:  term.Num{Value: 6},
		Right: term.Num{Value: 7},
	}, result)
}

func TestReduceArithmetic(t *testing.T) {
	cases := []struct {
		name  string
		input term.Term
		want  int64
	}{
		{"addition", add(term.Num{Value: 2}, term.Num{Value: 3}), 5},
		{"subtraction", term.Op2{Op: "-", Left: term.Num{Value: 2}, Right: term.Num{Value: 5}}, -3},
		{"multiplication", term.Op2{Op: "*", Left: term.Num{Value: 6}, Right: term.Num{Value: 7}}, 42},
		{"truncating division", term.Op2{Op: "/", Left: term.Num{Value: 7}, Right: term.Num{Value: 2}}, 3},
		{"negative truncating division", term.Op2{Op: "/", Left: term.Num{Value: -7}, Right: term.Num{Value: 2}}, -3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine()
			result, _, err := e.Reduce(tc.input)
			require.NoError(t, err)
			assert.Equal(t, term.Num{Value: tc.want}, result)
		})
	}
}

func TestReduceDivisionByZero(t *testing.T) {
	e := NewEngine()
	input := term.Op2{Op: "/", Left: term.Num{Value: 10}, Right: term.Num{Value: 0}}

	_, _, err := e.Reduce(input)
	require.Error(t, err)
	assert.True(t, IsArithmeticError(err))
	assert.False(t, IsTimeoutError(err))

	var re *ReduceError
	require.ErrorAs(t, err, &re)
	assert.NotEmpty(t, re.RunToken)
}

func TestReduceUnknownOperator(t *testing.T) {
	e := NewEngine()
	input := term.Op2{Op: "%", Left: term.Num{Value: 10}, Right: term.Num{Value: 3}}

	_, _, err := e.Reduce(input)
	require.Error(t, err)
	assert.True(t, IsNoApplicableRuleError(err))
}

func TestReduceTimeout(t *testing.T) {
	e := NewEngine(WithStepBound(100))

	_, _, err := e.Reduce(omega())
	require.Error(t, err)
	assert.True(t, IsTimeoutError(err))

	var re *ReduceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 101, re.Steps)
	assert.NotEmpty(t, re.RunToken)
}

func TestReduceNormalFormIsIdempotent(t *testing.T) {
	e := NewEngine()
	input := term.Dup{
		Name: "x", Label: "L", Value: term.Num{Value: 5},
		Body: add(term.DupVar{Name: "x", Index: 0}, term.DupVar{Name: "x", Index: 1}),
	}

	first, res1, err := e.Reduce(input)
	require.NoError(t, err)

	second, res2, err := e.Reduce(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, res2.Steps)
	assert.Equal(t, res1.ResultHash, res2.InputHash)
	assert.Equal(t, res1.ResultHash, res2.ResultHash)
}

func TestReduceDeterministic(t *testing.T) {
	// Two engines with fresh clocks walk the same trace and land on
	// structurally identical results.
	input := term.Dup{
		Name: "x", Label: "L",
		Value: term.Sup{Label: "M", Left: term.Num{Value: 1}, Right: term.Num{Value: 2}},
		Body:  add(term.DupVar{Name: "x", Index: 0}, term.DupVar{Name: "x", Index: 1}),
	}

	r1, res1, err := NewEngine(WithTrace()).Reduce(input)
	require.NoError(t, err)
	r2, res2, err := NewEngine(WithTrace()).Reduce(input)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, res1.Steps, res2.Steps)
	assert.Equal(t, res1.ResultHash, res2.ResultHash)
	assert.Equal(t, res1.TraceHash, res2.TraceHash)
}

func TestStepNormalForm(t *testing.T) {
	e := NewEngine()
	for _, nf := range []term.Term{
		term.Num{Value: 7},
		term.Era{},
		term.Lam{Param: "x", Body: term.Var{Name: "x"}},
		term.Sup{Label: "L", Left: term.Num{Value: 1}, Right: term.Num{Value: 2}},
	} {
		_, _, err := e.Step(nf)
		assert.ErrorIs(t, err, ErrNoRedex, "term %s", term.String(nf))
	}
}

func TestStepSingleInteraction(t *testing.T) {
	e := NewEngine()
	input := term.App{
		Fn:  term.Lam{Param: "x", Body: add(term.Var{Name: "x"}, term.Num{Value: 1})},
		Arg: term.Num{Value: 2},
	}

	next, rule, err := e.Step(input)
	require.NoError(t, err)
	assert.Equal(t, RuleAppLam, rule)
	assert.Equal(t, add(term.Num{Value: 2}, term.Num{Value: 1}), next)
}

func TestReduceTrace(t *testing.T) {
	e := NewEngine(
		WithTrace(),
		WithRunTokenGenerator(NewFixedGenerator("run-0001")),
	)
	input := term.Dup{
		Name: "x", Label: "L",
		Value: term.Sup{Label: "L", Left: term.Num{Value: 1}, Right: term.Num{Value: 2}},
		Body:  add(term.DupVar{Name: "x", Index: 0}, term.DupVar{Name: "x", Index: 1}),
	}

	_, res, err := e.Reduce(input)
	require.NoError(t, err)
	assert.Equal(t, "run-0001", res.RunToken)
	require.Len(t, res.Trace, res.Steps)

	assert.Equal(t, RuleDupSupSame, res.Trace[0].Rule)
	assert.Equal(t, RuleOpNum, res.Trace[1].Rule)
	assert.Equal(t, 1, res.Trace[0].Step)
	assert.Equal(t, "(1 + 2)", res.Trace[0].AfterText)
	assert.Equal(t, "3", res.Trace[1].AfterText)
	assert.Len(t, res.TraceHash, 64)
}

func TestFreshIdentifiers(t *testing.T) {
	e := NewEngine()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := e.FreshName("x")
		assert.False(t, seen[n], "name %s minted twice", n)
		seen[n] = true
	}
	l := e.FreshLabel()
	assert.False(t, seen[l])
	assert.Equal(t, byte('$'), l[0])
}

func TestErrorPredicates(t *testing.T) {
	capture := NewCaptureError(&term.CaptureError{Binder: "y", Name: "x", Free: "y"})
	assert.True(t, IsCaptureError(capture))
	assert.False(t, IsCaptureError(NewTimeoutError("r", 5, 5)))
	assert.True(t, IsTimeoutError(NewTimeoutError("r", 5, 5)))
	assert.False(t, IsTimeoutError(nil))
}
