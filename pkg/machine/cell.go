package machine

import "github.com/gitrdm/gowam/pkg/term"

// CellKind tags the shape of a Cell.
type CellKind int

const (
	// KindUndefined marks a register slot that has never been written.
	// It must never appear at a reachable heap address.
	KindUndefined CellKind = iota
	// KindRef is a reference to another cell address; a self-reference
	// (a heap cell whose Addr equals its own index) denotes an unbound
	// variable.
	KindRef
	// KindStr is a structure pointer: the cell at Addr is guaranteed to
	// be KindFunctor.
	KindStr
	// KindFunctor is a structure header; its Descriptor's arity children
	// occupy the next arity consecutive heap cells after it.
	KindFunctor
)

// Cell is the uniform unit of storage in the heap and in registers.
type Cell struct {
	Kind       CellKind
	Addr       int // valid for KindRef and KindStr
	Descriptor term.DescriptorID
}

func undefinedCell() Cell              { return Cell{Kind: KindUndefined} }
func refCell(addr int) Cell            { return Cell{Kind: KindRef, Addr: addr} }
func strCell(addr int) Cell            { return Cell{Kind: KindStr, Addr: addr} }
func functorCell(d term.DescriptorID) Cell { return Cell{Kind: KindFunctor, Descriptor: d} }
