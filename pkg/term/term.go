// Package term implements the tree-shaped input representation for a
// first-order fact/rule language: variables, constants, and structures, a
// descriptor table that interns their names and arities, and the lazy
// traversals used to drive register allocation and compilation.
package term

// Term is the input representation compiled by pkg/compiler. It is a closed
// sum of Variable, Constant, and Structure, matching the tagged-union style
// (an unexported marker method on an interface) used throughout this
// module's Term-shaped types.
type Term interface {
	isTerm()
}

// Variable is a named logic variable. Two Variable values with the same Name
// denote occurrences of the same variable within a clause or query; distinct
// *Variable pointers with the same Name are intentionally treated as the
// same variable by the register allocator, while distinct pointers are never
// merged by identity alone.
type Variable struct {
	Name string
}

func (*Variable) isTerm() {}

// Constant is an opaque interned name, treated as a zero-arity functor for
// interning and unification purposes (see pkg/term.Descriptor).
type Constant struct {
	Name string
}

func (*Constant) isTerm() {}

// Structure is a functor applied to an ordered list of children. Arity is
// len(Children).
type Structure struct {
	Name     string
	Children []Term
}

func (*Structure) isTerm() {}

// Arity returns the functor arity of t: len(Children) for a Structure, 0 for
// a Constant or Variable.
func Arity(t Term) int {
	if s, ok := t.(*Structure); ok {
		return len(s.Children)
	}
	return 0
}

// FunctorName returns the interning name of t: the structure or constant
// name, or the variable's name.
func FunctorName(t Term) string {
	switch v := t.(type) {
	case *Variable:
		return v.Name
	case *Constant:
		return v.Name
	case *Structure:
		return v.Name
	}
	return ""
}

// Children returns t's direct children, or nil if t is not a Structure.
func Children(t Term) []Term {
	if s, ok := t.(*Structure); ok {
		return s.Children
	}
	return nil
}

// Clause is a fact (len(Goals) == 0) or a rule (head :- g1, g2, ..., gk).
// Head is always a Structure or Constant (never a bare Variable); goals are
// Structure or Constant terms representing calls to other functors.
type Clause struct {
	Head  Term
	Goals []Term
}

// IsFact reports whether c has no body goals.
func (c Clause) IsFact() bool {
	return len(c.Goals) == 0
}
