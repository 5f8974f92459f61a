// Package compiler turns clauses and queries into a flat WAM instruction
// stream. It compiles each clause head in program mode (Get/Unify,
// breadth-first over the head) and each query or rule-body goal in query
// mode (Put/Set, post-order over the goal), links multiple clauses sharing
// a functor with the classic try/retry/trust choice-point chain, and
// resolves every Call to a compile-time instruction address, erroring on
// calls to undefined functors rather than emitting a dangling address.
package compiler

import (
	"github.com/gitrdm/gowam/pkg/regalloc"
	"github.com/gitrdm/gowam/pkg/term"
)

// Instruction is the closed sum of WAM instructions this compiler emits.
type Instruction interface {
	isInstruction()
}

// PutStructure writes a Str/Functor pair at the top of the heap and stores
// the Str cell in Register.
type PutStructure struct {
	Descriptor term.DescriptorID
	Register   regalloc.RegisterID
}

// SetVariable appends a fresh, self-referencing Ref cell to the heap and
// stores it in Register.
type SetVariable struct {
	Register regalloc.RegisterID
}

// SetValue appends Register's current contents to the heap.
type SetValue struct {
	Register regalloc.RegisterID
}

// PutValue copies Variable's contents into Argument.
type PutValue struct {
	Variable regalloc.RegisterID
	Argument regalloc.RegisterID
}

// PutVariable writes a fresh Ref cell into both Argument and Variable.
type PutVariable struct {
	Argument regalloc.RegisterID
	Variable regalloc.RegisterID
}

// GetStructure matches or builds a Str/Functor pair at Register, entering
// Write mode if Register held an unbound variable or Read mode if it
// already held a matching structure; a mismatch triggers backtracking.
type GetStructure struct {
	Descriptor term.DescriptorID
	Register   regalloc.RegisterID
}

// GetVariable copies Argument's contents into Variable.
type GetVariable struct {
	Argument regalloc.RegisterID
	Variable regalloc.RegisterID
}

// GetValue unifies Variable against Argument.
type GetValue struct {
	Variable regalloc.RegisterID
	Argument regalloc.RegisterID
}

// UnifyVariable reads the next heap subterm into Register (Read mode) or
// allocates a fresh Ref cell and stores it in both the heap and Register
// (Write mode), then advances the subterm cursor.
type UnifyVariable struct {
	Register regalloc.RegisterID
}

// UnifyValue unifies Register against the next heap subterm (Read mode) or
// appends Register's contents to the heap (Write mode), then advances the
// subterm cursor.
type UnifyValue struct {
	Register regalloc.RegisterID
}

// Proceed returns control to the instruction after the most recent Call.
type Proceed struct{}

// Call transfers control to Address, the first instruction compiled for
// Functor, remembering where to Proceed back to.
type Call struct {
	Functor term.DescriptorID
	Address int
}

// Allocate pushes a new environment frame with NumPermanents slots.
type Allocate struct {
	NumPermanents int
}

// Deallocate pops the current environment frame and returns control to its
// continuation.
type Deallocate struct{}

// TryMeElse pushes a choice point recording ElseAddress as where to resume
// on backtrack, then falls through to the first clause's body.
type TryMeElse struct {
	ElseAddress int
}

// RetryMeElse restores the top choice point's saved state, updates its
// retry address to ElseAddress, and falls through to this clause's body.
type RetryMeElse struct {
	ElseAddress int
}

// TrustMe restores the top choice point's saved state and pops it, then
// falls through to the last clause's body.
type TrustMe struct{}

// DebugComment is a no-op carrying a human-readable label. The compiler
// does not emit any; the machine still dispatches it so hand-assembled
// instruction tapes can annotate themselves.
type DebugComment struct {
	Message string
}

func (PutStructure) isInstruction()  {}
func (SetVariable) isInstruction()   {}
func (SetValue) isInstruction()      {}
func (PutValue) isInstruction()      {}
func (PutVariable) isInstruction()   {}
func (GetStructure) isInstruction()  {}
func (GetVariable) isInstruction()   {}
func (GetValue) isInstruction()      {}
func (UnifyVariable) isInstruction() {}
func (UnifyValue) isInstruction()    {}
func (Proceed) isInstruction()       {}
func (Call) isInstruction()          {}
func (Allocate) isInstruction()      {}
func (Deallocate) isInstruction()    {}
func (TryMeElse) isInstruction()     {}
func (RetryMeElse) isInstruction()   {}
func (TrustMe) isInstruction()       {}
func (DebugComment) isInstruction()  {}

// WatchEntry names one query variable the inspector should report a
// binding for: its source name, its descriptor, and the register its
// value lives in at the point of the query's first Call.
type WatchEntry struct {
	Name       string
	Descriptor term.DescriptorID
	Register   regalloc.RegisterID
}

// Artifact is a fully linked, ready-to-run instruction stream: the program
// (all compiled clauses) followed by the compiled query, with every Call
// address resolved.
type Artifact struct {
	Instructions  []Instruction
	StartAddress  int
	RegisterCount int
	WatchList     []WatchEntry
}
