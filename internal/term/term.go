package term

// Term is a sealed interface representing the closed set of term shapes.
// Only Num, Var, DupVar, Lam, App, Sup, Dup, Era, Op2, and Pair implement
// it. Keeping the variant closed makes rule matching exhaustive: a type
// switch over Term that handles these ten shapes handles everything.
type Term interface {
	term() // Sealed - only these types implement it
}

// Num is an integer literal. Always int64, never float.
type Num struct {
	Value int64
}

func (Num) term() {}

// Var is a plain (lambda-bound or free) variable occurrence.
type Var struct {
	Name string
}

func (Var) term() {}

// DupVar is an indexed occurrence of a duplication-bound variable:
// x₀ (Index 0) or x₁ (Index 1). The two indices are distinct identifiers
// owned solely by the Dup that introduces the name; plain substitution
// never touches them.
type DupVar struct {
	Name  string
	Index int // 0 or 1
}

func (DupVar) term() {}

// Lam is a lambda abstraction λParam.Body.
type Lam struct {
	Param string
	Body  Term
}

func (Lam) term() {}

// App is an application (Fn Arg).
type App struct {
	Fn  Term
	Arg Term
}

func (App) term() {}

// Sup is a superposition &Label{Left, Right}: two alternative values held
// simultaneously, resolved by a duplication carrying the same label.
type Sup struct {
	Label string
	Left  Term
	Right Term
}

func (Sup) term() {}

// Dup is a duplication binder: ! Name &Label= Value; Body.
// Body may reference Name₀ and Name₁, two usable handles on one shared
// Value. The label pairs this duplication with the superpositions it is
// entitled to annihilate.
type Dup struct {
	Name  string
	Label string
	Value Term
	Body  Term
}

func (Dup) term() {}

// Era is the erasure value &{}. It absorbs whatever it interacts with
// without forcing the discarded operand.
type Era struct{}

func (Era) term() {}

// Op2 is a binary arithmetic operation (Left Op Right).
type Op2 struct {
	Op    string // "+", "-", "*", "/"
	Left  Term
	Right Term
}

func (Op2) term() {}

// Pair is a two-component structure (Left, Right).
type Pair struct {
	Left  Term
	Right Term
}

func (Pair) term() {}

// Valid binary operators.
var ValidOps = map[string]bool{
	"+": true,
	"-": true,
	"*": true,
	"/": true,
}

// Atomic reports whether t is a leaf that can never contain a redex.
func Atomic(t Term) bool {
	switch t.(type) {
	case Num, Var, DupVar, Era:
		return true
	default:
		return false
	}
}
