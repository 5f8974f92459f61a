package compiler

import (
	"errors"
	"fmt"

	"github.com/gitrdm/gowam/pkg/regalloc"
	"github.com/gitrdm/gowam/pkg/term"
)

// ErrUndefinedFunctor is returned by CompileQuery when a clause body or the
// query itself calls a functor no clause was ever added for.
var ErrUndefinedFunctor = errors.New("compiler: undefined functor")

type compiledClause struct {
	instructions  []Instruction
	registerCount int
}

// Compiler accumulates clauses and compiles them, together with a query,
// into a single linked Artifact. AddClause may be called any number of
// times in any order; CompileQuery lays out the final instruction tape,
// resolving every Call address from the clauses seen so far.
type Compiler struct {
	Descriptors *term.DescriptorTable

	functorOrder []term.DescriptorID
	clauses      map[term.DescriptorID][]compiledClause
}

// New returns an empty Compiler.
func New() *Compiler {
	return &Compiler{
		Descriptors: term.NewDescriptorTable(),
		clauses:     make(map[term.DescriptorID][]compiledClause),
	}
}

// AddClause compiles clause immediately and appends it to the clause group
// for its head's functor, to be linked into the final tape by the next
// CompileQuery call.
func (c *Compiler) AddClause(clause term.Clause) error {
	if clause.Head == nil {
		return errors.New("compiler: clause head cannot be nil")
	}
	switch clause.Head.(type) {
	case *term.Structure, *term.Constant:
	default:
		return errors.New("compiler: clause head must be a structure or constant, not a bare variable")
	}
	for _, g := range clause.Goals {
		switch g.(type) {
		case *term.Structure, *term.Constant:
		default:
			return errors.New("compiler: rule-body goals must be structures or constants, not bare variables")
		}
	}

	headID := c.Descriptors.Intern(clause.Head)
	if _, ok := c.clauses[headID]; !ok {
		c.functorOrder = append(c.functorOrder, headID)
	}

	cc, err := c.compileClause(clause)
	if err != nil {
		return err
	}
	c.clauses[headID] = append(c.clauses[headID], cc)
	return nil
}

func (c *Compiler) compileClause(clause term.Clause) (compiledClause, error) {
	if clause.IsFact() {
		alloc := regalloc.Allocate(clause.Head, regalloc.NoPermanents)
		instrs := compileHead(c.Descriptors, clause.Head, alloc, map[string]bool{})
		instrs = append(instrs, Proceed{})
		return compiledClause{instructions: instrs, registerCount: alloc.RegisterCount}, nil
	}

	perm := regalloc.AnalyzePermanents(clause)
	home := perm.Home()

	// The head and the first goal form one chunk: no Call separates the
	// head's Get code from the goal's Put code, so a temporary shared
	// between them stays in a register and the two must agree on which.
	chunkAlloc := regalloc.AllocateChunk([]term.Term{clause.Head, clause.Goals[0]}, home)
	maxRegisters := chunkAlloc.RegisterCount

	processed := map[string]bool{}
	instrs := []Instruction{Allocate{NumPermanents: perm.Count}}
	instrs = append(instrs, compileHead(c.Descriptors, clause.Head, chunkAlloc, processed)...)

	for i, goal := range clause.Goals {
		goalAlloc := chunkAlloc
		if i > 0 {
			goalAlloc = regalloc.Allocate(goal, home)
			maxRegisters = max(maxRegisters, goalAlloc.RegisterCount)
		}
		instrs = append(instrs, compileGoal(c.Descriptors, goal, goalAlloc, processed)...)
		instrs = append(instrs, Call{Functor: c.Descriptors.Intern(goal)})
	}
	instrs = append(instrs, Deallocate{})

	return compiledClause{instructions: instrs, registerCount: maxRegisters}, nil
}

// CompileQuery lays out the final instruction tape: every clause added so
// far, grouped by functor in first-seen order and linked with
// TryMeElse/RetryMeElse/TrustMe when a functor has more than one clause,
// followed by query's own compiled instructions and a trailing Call. Every
// Call's address is resolved against the functors defined by AddClause;
// a call to a functor with no clauses is a compile error.
func (c *Compiler) CompileQuery(query term.Term) (*Artifact, error) {
	switch query.(type) {
	case *term.Structure, *term.Constant:
	default:
		return nil, errors.New("compiler: query must be a structure or constant, not a bare variable")
	}

	var tape []Instruction
	callTable := make(map[term.DescriptorID]int)
	maxRegisters := 0

	for _, functorID := range c.functorOrder {
		group := c.clauses[functorID]
		m := len(group)
		if m == 1 {
			callTable[functorID] = len(tape)
			tape = append(tape, group[0].instructions...)
			maxRegisters = max(maxRegisters, group[0].registerCount)
			continue
		}

		addrs := make([]int, m)
		pos := len(tape)
		for i := 0; i < m; i++ {
			addrs[i] = pos
			pos += 1 + len(group[i].instructions)
			maxRegisters = max(maxRegisters, group[i].registerCount)
		}
		callTable[functorID] = addrs[0]

		for i := 0; i < m; i++ {
			var ctrl Instruction
			switch {
			case i == 0:
				ctrl = TryMeElse{ElseAddress: addrs[1]}
			case i == m-1:
				ctrl = TrustMe{}
			default:
				ctrl = RetryMeElse{ElseAddress: addrs[i+1]}
			}
			tape = append(tape, ctrl)
			tape = append(tape, group[i].instructions...)
		}
	}

	queryAlloc := regalloc.Allocate(query, regalloc.NoPermanents)
	maxRegisters = max(maxRegisters, queryAlloc.RegisterCount)

	startAddress := len(tape)
	queryInstrs := compileGoal(c.Descriptors, query, queryAlloc, map[string]bool{})
	queryFunctor := c.Descriptors.Intern(query)
	queryInstrs = append(queryInstrs, Call{Functor: queryFunctor})
	tape = append(tape, queryInstrs...)

	for i, instr := range tape {
		call, ok := instr.(Call)
		if !ok {
			continue
		}
		addr, ok := callTable[call.Functor]
		if !ok {
			return nil, fmt.Errorf("compiler: %w: %s", ErrUndefinedFunctor, c.Descriptors.Lookup(call.Functor).PrettyName())
		}
		call.Address = addr
		tape[i] = call
	}

	watch := buildWatchList(c.Descriptors, query, queryAlloc)

	return &Artifact{
		Instructions:  tape,
		StartAddress:  startAddress,
		RegisterCount: maxRegisters,
		WatchList:     watch,
	}, nil
}

func buildWatchList(d *term.DescriptorTable, query term.Term, alloc *regalloc.Allocation) []WatchEntry {
	names := firstOccurrenceVars(query)
	watch := make([]WatchEntry, len(names))
	for i, name := range names {
		watch[i] = WatchEntry{
			Name:       name,
			Descriptor: d.InternName(name),
			Register:   alloc.VariableRegister[name],
		}
	}
	return watch
}
