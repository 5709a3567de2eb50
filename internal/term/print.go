package term

import (
	"fmt"
	"strings"
)

// String renders a term in the calculus' surface notation:
//
//	λx.body        lambda
//	(f x)          application
//	&L{a, b}       superposition
//	! x &L= v; t   duplication
//	&{}            erasure
//	(a + b)        binary operation
//	(a, b)         pair
//	x₀ / x₁        indexed duplication occurrences
//
// The rendering is deterministic and is what traces, golden files, and
// the CLI print. It is NOT the canonical form used for hashing; see
// MarshalCanonical.
func String(t Term) string {
	var b strings.Builder
	writeTerm(&b, t)
	return b.String()
}

func writeTerm(b *strings.Builder, t Term) {
	switch v := t.(type) {
	case Num:
		fmt.Fprintf(b, "%d", v.Value)
	case Var:
		b.WriteString(v.Name)
	case DupVar:
		b.WriteString(v.Name)
		if v.Index == 0 {
			b.WriteString("₀")
		} else {
			b.WriteString("₁")
		}
	case Lam:
		b.WriteString("λ")
		b.WriteString(v.Param)
		b.WriteString(".")
		writeTerm(b, v.Body)
	case App:
		b.WriteString("(")
		writeTerm(b, v.Fn)
		b.WriteString(" ")
		writeTerm(b, v.Arg)
		b.WriteString(")")
	case Sup:
		b.WriteString("&")
		b.WriteString(v.Label)
		b.WriteString("{")
		writeTerm(b, v.Left)
		b.WriteString(", ")
		writeTerm(b, v.Right)
		b.WriteString("}")
	case Dup:
		b.WriteString("! ")
		b.WriteString(v.Name)
		b.WriteString(" &")
		b.WriteString(v.Label)
		b.WriteString("= ")
		writeTerm(b, v.Value)
		b.WriteString("; ")
		writeTerm(b, v.Body)
	case Era:
		b.WriteString("&{}")
	case Op2:
		b.WriteString("(")
		writeTerm(b, v.Left)
		b.WriteString(" ")
		b.WriteString(v.Op)
		b.WriteString(" ")
		writeTerm(b, v.Right)
		b.WriteString(")")
	case Pair:
		b.WriteString("(")
		writeTerm(b, v.Left)
		b.WriteString(", ")
		writeTerm(b, v.Right)
		b.WriteString(")")
	default:
		fmt.Fprintf(b, "<unknown %T>", t)
	}
}
