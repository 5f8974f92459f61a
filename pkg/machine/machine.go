// Package machine implements the cell-memory abstract machine: heap,
// registers, trail, environment and choice-point stacks, dereference and
// unification, and the instruction-dispatch interpreter that executes a
// compiler.Artifact to success, failure, or a runtime fault.
package machine

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/gitrdm/gowam/pkg/compiler"
	"github.com/gitrdm/gowam/pkg/inspector"
	"github.com/gitrdm/gowam/pkg/regalloc"
	"github.com/gitrdm/gowam/pkg/term"
)

// ErrFault is returned by Step when the machine observes a condition the
// compiler should never produce: a dereference past the end of the heap,
// or a Str cell whose target is not a Functor cell. Unlike a unification
// mismatch (ordinary backtracking), a fault halts the machine.
var ErrFault = errors.New("machine: fault")

// mode selects how GetStructure's matching continues: Read consumes
// existing heap cells written by an earlier structure, Write builds fresh
// ones for an unbound variable.
type mode int

const (
	modeRead mode = iota
	modeWrite
)

// ExecState is the machine's top-level run state.
type ExecState int

const (
	// StateNormal means the machine can still make forward progress or
	// backtrack into a remaining choice point.
	StateNormal ExecState = iota
	// StateFailure means the query has no (more) solutions: the choice
	// stack was empty at the point backtracking was attempted.
	StateFailure
)

type watchedVariable struct {
	entry    compiler.WatchEntry
	heapAddr int
	snapshot bool
}

// Machine is one instance of the abstract machine: it holds no state
// shared with any other Machine and may run concurrently with other
// instances without coordination.
type Machine struct {
	Logger hclog.Logger

	descriptors *term.DescriptorTable

	instructions []compiler.Instruction
	ip           int
	continuation int

	mode           mode
	nextSubterm    int
	currentFunctor term.DescriptorID
	execState      ExecState

	heap      []Cell
	registers []Cell
	trail     []int

	env    environmentStack
	choice choicePointStack

	watch         []watchedVariable
	watchSnapshot bool
}

// New builds a Machine ready to run artifact's instruction stream starting
// at artifact.StartAddress, sharing descriptors with the compiler that
// produced it.
func New(artifact *compiler.Artifact, descriptors *term.DescriptorTable) *Machine {
	m := &Machine{
		Logger:       hclog.NewNullLogger(),
		descriptors:  descriptors,
		instructions: artifact.Instructions,
		ip:           artifact.StartAddress,
		continuation: artifact.StartAddress,
		mode:         modeWrite,
		registers:    make([]Cell, artifact.RegisterCount),
		env:          newEnvironmentStack(),
	}
	m.watch = make([]watchedVariable, len(artifact.WatchList))
	for i, w := range artifact.WatchList {
		m.watch[i] = watchedVariable{entry: w}
	}
	return m
}

// ExecState reports the machine's current run state.
func (m *Machine) ExecState() ExecState { return m.execState }

func (m *Machine) fault(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFault, fmt.Sprintf(format, args...))
}

// --- register and heap access -------------------------------------------

func (m *Machine) readRegister(r regalloc.RegisterID) (Cell, error) {
	switch r.Kind {
	case regalloc.KindPermanent:
		if !m.env.hasFrame() {
			return Cell{}, m.fault("permanent register read with no active environment")
		}
		f := m.env.current()
		if r.Index < 0 || r.Index >= len(f.Permanents) {
			return Cell{}, m.fault("permanent register %d out of range", r.Index)
		}
		return f.Permanents[r.Index], nil
	default:
		if r.Index < 0 || r.Index >= len(m.registers) {
			return Cell{}, m.fault("register %d out of range", r.Index)
		}
		return m.registers[r.Index], nil
	}
}

func (m *Machine) writeRegister(r regalloc.RegisterID, c Cell) error {
	switch r.Kind {
	case regalloc.KindPermanent:
		if !m.env.hasFrame() {
			return m.fault("permanent register write with no active environment")
		}
		f := m.env.current()
		if r.Index < 0 || r.Index >= len(f.Permanents) {
			return m.fault("permanent register %d out of range", r.Index)
		}
		f.Permanents[r.Index] = c
	default:
		if r.Index < 0 || r.Index >= len(m.registers) {
			return m.fault("register %d out of range", r.Index)
		}
		m.registers[r.Index] = c
	}
	return nil
}

func (m *Machine) read(addr cellAddress) (Cell, error) {
	if addr.isHeap {
		if addr.heap < 0 || addr.heap >= len(m.heap) {
			return Cell{}, m.fault("heap address %d out of range", addr.heap)
		}
		return m.heap[addr.heap], nil
	}
	return m.readRegister(addr.reg)
}

func (m *Machine) write(addr cellAddress, c Cell) error {
	if addr.isHeap {
		if addr.heap < 0 || addr.heap >= len(m.heap) {
			return m.fault("heap address %d out of range", addr.heap)
		}
		m.heap[addr.heap] = c
		return nil
	}
	return m.writeRegister(addr.reg, c)
}

func (m *Machine) push(c Cell) int {
	m.heap = append(m.heap, c)
	return len(m.heap) - 1
}

// --- dereference, binding, unification -----------------------------------

// deref follows a chain of Ref cells to its terminal address. A register
// address always indirects at least once through its heap target, even
// when that target happens to share a numeric index with the register:
// only a heap address whose own Ref cell points at itself is terminal.
func (m *Machine) deref(addr cellAddress) (cellAddress, error) {
	c, err := m.read(addr)
	if err != nil {
		return cellAddress{}, err
	}
	if c.Kind == KindRef && (!addr.isHeap || c.Addr != addr.heap) {
		return m.deref(heapAddr(c.Addr))
	}
	return addr, nil
}

// bind orients the assignment so the cell at the higher heap address
// points to the one at the lower address: the older of two unbound
// variables must survive a backtrack truncation of the heap.
func (m *Machine) bind(a, b cellAddress) error {
	av, err := m.read(a)
	if err != nil {
		return err
	}
	bv, err := m.read(b)
	if err != nil {
		return err
	}

	var target cellAddress
	var value Cell

	switch {
	case a.IsRegister():
		target, value = b, av
	case b.IsRegister():
		target, value = a, bv
	case av.Kind == KindRef && bv.Kind == KindRef:
		if a.heap > b.heap {
			target, value = a, refCell(b.heap)
		} else {
			target, value = b, refCell(a.heap)
		}
	case av.Kind == KindRef:
		target, value = a, refCell(b.heap)
	case bv.Kind == KindRef:
		target, value = b, refCell(a.heap)
	default:
		return nil
	}

	m.trailIfConditional(target)
	return m.write(target, value)
}

func (m *Machine) trailIfConditional(addr cellAddress) {
	if addr.isHeap && !m.choice.isEmpty() && addr.heap < m.choice.top().HeapWatermark {
		m.trail = append(m.trail, addr.heap)
	}
}

func (m *Machine) unifyAddrs(a, b cellAddress) (bool, error) {
	work := []cellAddress{a, b}
	for len(work) > 0 {
		y := work[len(work)-1]
		x := work[len(work)-2]
		work = work[:len(work)-2]

		dx, err := m.deref(x)
		if err != nil {
			return false, err
		}
		dy, err := m.deref(y)
		if err != nil {
			return false, err
		}
		if dx.equal(dy) {
			continue
		}

		cx, err := m.read(dx)
		if err != nil {
			return false, err
		}
		cy, err := m.read(dy)
		if err != nil {
			return false, err
		}

		switch {
		case cx.Kind == KindRef || cy.Kind == KindRef:
			if err := m.bind(dx, dy); err != nil {
				return false, err
			}
		case cx.Kind == KindStr && cy.Kind == KindStr:
			fx, err := m.read(heapAddr(cx.Addr))
			if err != nil {
				return false, err
			}
			fy, err := m.read(heapAddr(cy.Addr))
			if err != nil {
				return false, err
			}
			if fx.Kind != KindFunctor || fy.Kind != KindFunctor {
				return false, m.fault("Str cell did not point at a Functor cell")
			}
			if fx.Descriptor != fy.Descriptor {
				return false, nil
			}
			arity := m.descriptors.Lookup(fx.Descriptor).Arity
			for i := 1; i <= arity; i++ {
				work = append(work, heapAddr(cx.Addr+i), heapAddr(cy.Addr+i))
			}
		default:
			return false, nil
		}
	}
	return true, nil
}

func (m *Machine) unwindTrail(from int) error {
	for i := from; i < len(m.trail); i++ {
		addr := m.trail[i]
		if addr < 0 || addr >= len(m.heap) {
			return m.fault("trail address %d out of range", addr)
		}
		m.heap[addr] = refCell(addr)
	}
	m.trail = m.trail[:from]
	return nil
}

// --- backtracking ---------------------------------------------------------

func (m *Machine) backtrack() {
	if m.choice.isEmpty() {
		m.execState = StateFailure
		return
	}
	m.Logger.Trace("backtrack", "target", m.choice.top().NextClause)
	m.ip = m.choice.top().NextClause
}

// TryBacktrack requests the next solution: if a choice point remains and
// the machine has not already failed, it jumps to the topmost choice
// point's retry clause and returns true; otherwise it returns false without
// changing state.
func (m *Machine) TryBacktrack() bool {
	if m.choice.isEmpty() || m.execState == StateFailure {
		return false
	}
	m.backtrack()
	return true
}

// --- instruction dispatch --------------------------------------------------

// Step executes the single instruction at the current instruction pointer
// and advances it. It returns false when the machine has reached
// StateFailure or run past the end of the instruction stream; a non-nil
// error means a runtime fault halted the machine, distinguishable from
// ordinary "no solution" via errors.Is(err, ErrFault).
func (m *Machine) Step() (bool, error) {
	if m.execState == StateFailure {
		return false, nil
	}
	if m.ip < 0 || m.ip >= len(m.instructions) {
		return false, nil
	}
	instr := m.instructions[m.ip]
	m.ip++

	var err error
	switch ins := instr.(type) {
	case compiler.PutStructure:
		err = m.execPutStructure(ins)
	case compiler.SetVariable:
		err = m.execSetVariable(ins)
	case compiler.SetValue:
		err = m.execSetValue(ins)
	case compiler.PutValue:
		err = m.execPutValue(ins)
	case compiler.PutVariable:
		err = m.execPutVariable(ins)
	case compiler.GetStructure:
		err = m.execGetStructure(ins)
	case compiler.GetVariable:
		err = m.execGetVariable(ins)
	case compiler.GetValue:
		err = m.execGetValue(ins)
	case compiler.UnifyVariable:
		err = m.execUnifyVariable(ins)
	case compiler.UnifyValue:
		err = m.execUnifyValue(ins)
	case compiler.Proceed:
		m.ip = m.continuation
	case compiler.Call:
		err = m.execCall(ins)
	case compiler.Allocate:
		m.env.push(ins.NumPermanents, m.continuation)
	case compiler.Deallocate:
		if !m.env.hasFrame() {
			err = m.fault("Deallocate with no active environment")
			break
		}
		m.ip = m.env.current().Continuation
		m.env.pop(m.choice.isEmpty())
	case compiler.TryMeElse:
		err = m.execTryMeElse(ins)
	case compiler.RetryMeElse:
		err = m.execRetryMeElse(ins)
	case compiler.TrustMe:
		err = m.execTrustMe()
	case compiler.DebugComment:
		// no-op
	default:
		err = m.fault("unknown instruction %T", instr)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *Machine) execPutStructure(ins compiler.PutStructure) error {
	n := len(m.heap)
	m.push(strCell(n + 1))
	m.push(functorCell(ins.Descriptor))
	return m.writeRegister(ins.Register, strCell(n+1))
}

func (m *Machine) execSetVariable(ins compiler.SetVariable) error {
	n := len(m.heap)
	m.push(refCell(n))
	return m.writeRegister(ins.Register, refCell(n))
}

func (m *Machine) execSetValue(ins compiler.SetValue) error {
	c, err := m.readRegister(ins.Register)
	if err != nil {
		return err
	}
	m.push(c)
	return nil
}

func (m *Machine) execPutValue(ins compiler.PutValue) error {
	c, err := m.readRegister(ins.Variable)
	if err != nil {
		return err
	}
	return m.writeRegister(ins.Argument, c)
}

func (m *Machine) execPutVariable(ins compiler.PutVariable) error {
	n := len(m.heap)
	fresh := refCell(n)
	m.push(fresh)
	if err := m.writeRegister(ins.Argument, fresh); err != nil {
		return err
	}
	return m.writeRegister(ins.Variable, fresh)
}

func (m *Machine) execGetStructure(ins compiler.GetStructure) error {
	addr, err := m.deref(regAddr(ins.Register))
	if err != nil {
		return err
	}
	c, err := m.read(addr)
	if err != nil {
		return err
	}
	switch c.Kind {
	case KindRef:
		n := len(m.heap)
		m.push(strCell(n + 1))
		m.push(functorCell(ins.Descriptor))
		if err := m.bind(addr, heapAddr(n)); err != nil {
			return err
		}
		m.mode = modeWrite
	case KindStr:
		target, err := m.read(heapAddr(c.Addr))
		if err != nil {
			return err
		}
		if target.Kind != KindFunctor {
			return m.fault("Str cell did not point at a Functor cell")
		}
		if target.Descriptor == ins.Descriptor {
			m.nextSubterm = c.Addr + 1
			m.mode = modeRead
		} else {
			m.backtrack()
		}
	default:
		m.backtrack()
	}
	return nil
}

func (m *Machine) execGetVariable(ins compiler.GetVariable) error {
	c, err := m.readRegister(ins.Argument)
	if err != nil {
		return err
	}
	return m.writeRegister(ins.Variable, c)
}

func (m *Machine) execGetValue(ins compiler.GetValue) error {
	ok, err := m.unifyAddrs(regAddr(ins.Variable), regAddr(ins.Argument))
	if err != nil {
		return err
	}
	if !ok {
		m.backtrack()
	}
	return nil
}

func (m *Machine) execUnifyVariable(ins compiler.UnifyVariable) error {
	switch m.mode {
	case modeRead:
		c, err := m.read(heapAddr(m.nextSubterm))
		if err != nil {
			return err
		}
		if err := m.writeRegister(ins.Register, c); err != nil {
			return err
		}
	case modeWrite:
		n := len(m.heap)
		m.push(refCell(n))
		if err := m.writeRegister(ins.Register, refCell(n)); err != nil {
			return err
		}
	}
	m.nextSubterm++
	return nil
}

func (m *Machine) execUnifyValue(ins compiler.UnifyValue) error {
	switch m.mode {
	case modeRead:
		ok, err := m.unifyAddrs(regAddr(ins.Register), heapAddr(m.nextSubterm))
		if err != nil {
			return err
		}
		if !ok {
			m.backtrack()
		}
	case modeWrite:
		c, err := m.readRegister(ins.Register)
		if err != nil {
			return err
		}
		m.push(c)
	}
	m.nextSubterm++
	return nil
}

func (m *Machine) execCall(ins compiler.Call) error {
	m.Logger.Trace("call", "functor", m.descriptors.Lookup(ins.Functor).PrettyName(), "address", ins.Address)
	m.continuation = m.ip
	m.ip = ins.Address
	m.currentFunctor = ins.Functor

	if !m.watchSnapshot {
		for i := range m.watch {
			c, err := m.readRegister(m.watch[i].entry.Register)
			if err != nil {
				return err
			}
			switch c.Kind {
			case KindRef, KindStr:
				m.watch[i].heapAddr = c.Addr
				m.watch[i].snapshot = true
			default:
				return m.fault("watched register %s held an unresolved cell", m.watch[i].entry.Name)
			}
		}
		m.watchSnapshot = true
	}
	return nil
}

func (m *Machine) execTryMeElse(ins compiler.TryMeElse) error {
	arity := m.descriptors.Lookup(m.currentFunctor).Arity
	if arity > len(m.registers) {
		return m.fault("functor arity %d exceeds register file", arity)
	}
	envActive, envSize := m.env.mark()
	m.choice.push(m.registers[:arity], m.continuation, envActive, envSize, ins.ElseAddress, len(m.trail), len(m.heap))
	m.Logger.Trace("try_me_else", "else", ins.ElseAddress)
	return nil
}

func (m *Machine) restoreFromChoicePoint() error {
	cp := m.choice.top()
	copy(m.registers[:len(cp.Args)], cp.Args)
	m.env.restore(cp.EnvActive, cp.EnvSize)
	m.continuation = cp.Continuation
	if err := m.unwindTrail(cp.TrailWatermark); err != nil {
		return err
	}
	if cp.HeapWatermark > len(m.heap) {
		return m.fault("heap watermark %d beyond current heap", cp.HeapWatermark)
	}
	m.heap = m.heap[:cp.HeapWatermark]
	return nil
}

func (m *Machine) execRetryMeElse(ins compiler.RetryMeElse) error {
	if err := m.restoreFromChoicePoint(); err != nil {
		return err
	}
	m.choice.top().NextClause = ins.ElseAddress
	m.Logger.Trace("retry_me_else", "else", ins.ElseAddress)
	return nil
}

func (m *Machine) execTrustMe() error {
	if err := m.restoreFromChoicePoint(); err != nil {
		return err
	}
	m.choice.pop()
	m.Logger.Trace("trust_me")
	return nil
}

// --- inspection -------------------------------------------------------------

// Inspect non-destructively reconstructs the bound term tree of every
// watched query variable. It performs no heap mutation and is safe to call
// at any point, including mid-execution.
func (m *Machine) Inspect() []inspector.Binding {
	out := make([]inspector.Binding, len(m.watch))
	for i, w := range m.watch {
		addr := heapAddr(0)
		view := inspector.View{Kind: inspector.ViewUndefined}
		if w.snapshot {
			addr = heapAddr(w.heapAddr)
			view = m.inspectView(addr)
		}
		out[i] = inspector.Binding{Name: w.entry.Name, Descriptor: w.entry.Descriptor, View: view}
	}
	return out
}

func (m *Machine) inspectView(addr cellAddress) inspector.View {
	da, err := m.deref(addr)
	if err != nil {
		return inspector.View{Kind: inspector.ViewUndefined}
	}
	c, err := m.read(da)
	if err != nil {
		return inspector.View{Kind: inspector.ViewUndefined}
	}
	switch c.Kind {
	case KindRef:
		return inspector.View{Kind: inspector.ViewUnbound, HeapIndex: da.heap}
	case KindStr:
		f, err := m.read(heapAddr(c.Addr))
		if err != nil || f.Kind != KindFunctor {
			return inspector.View{Kind: inspector.ViewUndefined}
		}
		arity := m.descriptors.Lookup(f.Descriptor).Arity
		args := make([]inspector.View, arity)
		for i := 0; i < arity; i++ {
			args[i] = m.inspectView(heapAddr(c.Addr + 1 + i))
		}
		return inspector.View{Kind: inspector.ViewStructure, Descriptor: f.Descriptor, Args: args}
	default:
		return inspector.View{Kind: inspector.ViewUndefined}
	}
}
