// Package regalloc assigns WAM registers to the nodes of a single term and
// classifies a clause's variables as permanent (carried in an environment
// frame across goals) or temporary (local to one term's compilation).
//
// Variables are keyed by name, so repeated occurrences of the same name
// share a register. Non-variable subterms are keyed by their own node
// identity (term.Item.StableID, a Go pointer) rather than by functor:
// two sibling subterms with the same functor name are distinct tree
// positions and must never collide on one register.
package regalloc

import "github.com/gitrdm/gowam/pkg/term"

// Kind distinguishes the three WAM register classes.
type Kind int

const (
	// KindArgument registers hold a root-level argument of the term being
	// compiled (the args of a query, clause head, or goal call).
	KindArgument Kind = iota
	// KindTemporary registers are local to a single term's compilation.
	KindTemporary
	// KindPermanent registers live in the current environment frame and
	// survive across every goal of a rule body.
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "A"
	case KindTemporary:
		return "X"
	case KindPermanent:
		return "Y"
	default:
		return "?"
	}
}

// RegisterID names one WAM register: its class plus an index within that
// class. Argument and Temporary registers share the machine's flat register
// file; Permanent registers are addressed into the current environment
// frame instead.
type RegisterID struct {
	Kind  Kind
	Index int
}

func Argument(i int) RegisterID  { return RegisterID{Kind: KindArgument, Index: i} }
func Temporary(i int) RegisterID { return RegisterID{Kind: KindTemporary, Index: i} }
func Permanent(i int) RegisterID { return RegisterID{Kind: KindPermanent, Index: i} }

func (r RegisterID) String() string {
	return r.Kind.String() + itoa(r.Index)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// HomeFunc reports, for a variable name, whether it is permanent (and if
// so, which environment slot it occupies). Allocate assigns a fresh
// Temporary to any variable HomeFunc reports as not permanent.
type HomeFunc func(name string) (slot int, permanent bool)

// NoPermanents is the HomeFunc used for queries and facts, where every
// variable is local to the term being compiled.
func NoPermanents(string) (int, bool) { return 0, false }

// Allocation is the result of allocating registers for a single term: a
// clause head, one rule-body goal, or a query.
type Allocation struct {
	// NodeRegister holds the Temporary register assigned to each
	// non-variable node that appears below the root (depth > 1). Depth-1
	// nodes use Argument(ArgIndex) directly and are not present here.
	NodeRegister map[term.Term]RegisterID
	// VariableRegister holds the home register (Temporary or Permanent)
	// for every variable name appearing in the term.
	VariableRegister map[string]RegisterID
	// RegisterCount is the number of registers this term's compilation
	// needs: the root arity plus however many Temporary registers were
	// assigned.
	RegisterCount int
}

// Allocate assigns registers to every node of root. Root-level children
// (depth 1) are addressed as Argument(i) directly; deeper non-variable
// nodes get a fresh Temporary, keyed by node identity so that two sibling
// subterms sharing a functor never collide. Variables get a Temporary
// unless home reports them permanent, in which case they get the reported
// Permanent slot.
func Allocate(root term.Term, home HomeFunc) *Allocation {
	return AllocateChunk([]term.Term{root}, home)
}

// AllocateChunk assigns registers across several terms compiled as one
// chunk — a clause head together with its first body goal, where no Call
// intervenes between the head's Get code and the goal's Put code. A
// temporary variable shared between the two terms must land in the same
// register in both, so the assignment runs over the whole chunk at once,
// with Temporary indices starting above every chunk member's arity.
func AllocateChunk(terms []term.Term, home HomeFunc) *Allocation {
	if home == nil {
		home = NoPermanents
	}
	next := 0
	for _, t := range terms {
		next = max(next, term.Arity(t))
	}
	nodeReg := make(map[term.Term]RegisterID)
	varReg := make(map[string]RegisterID)

	for _, root := range terms {
		items := term.BreadthFirst(root)
		for _, item := range items[1:] { // skip the root itself
			switch v := item.Term.(type) {
			case *term.Variable:
				if _, ok := varReg[v.Name]; ok {
					continue
				}
				if slot, ok := home(v.Name); ok {
					varReg[v.Name] = Permanent(slot)
				} else {
					varReg[v.Name] = Temporary(next)
					next++
				}
			case *term.Constant:
				if item.Depth != 1 {
					if _, ok := nodeReg[item.Term]; !ok {
						nodeReg[item.Term] = Temporary(next)
						next++
					}
				}
			case *term.Structure:
				if item.Depth != 1 {
					if _, ok := nodeReg[item.Term]; !ok {
						nodeReg[item.Term] = Temporary(next)
						next++
					}
				}
			}
		}
	}

	return &Allocation{NodeRegister: nodeReg, VariableRegister: varReg, RegisterCount: next}
}

// RegisterFor returns the register compiled instructions should use for
// item: the variable's home register, the Argument register if item sits
// directly under the root, or the node's assigned Temporary otherwise.
func (a *Allocation) RegisterFor(item term.Item) RegisterID {
	if v, ok := item.Term.(*term.Variable); ok {
		return a.VariableRegister[v.Name]
	}
	if item.Depth == 1 {
		return Argument(item.ArgIndex)
	}
	return a.NodeRegister[item.Term]
}
