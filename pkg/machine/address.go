package machine

import "github.com/gitrdm/gowam/pkg/regalloc"

// cellAddress names either a heap slot or a register (which may itself be
// an environment-frame slot, for Permanent registers). Registers and the
// heap share the dereferencing protocol of deref.
type cellAddress struct {
	isHeap bool
	heap   int
	reg    regalloc.RegisterID
}

func heapAddr(i int) cellAddress { return cellAddress{isHeap: true, heap: i} }
func regAddr(r regalloc.RegisterID) cellAddress {
	return cellAddress{isHeap: false, reg: r}
}

func (a cellAddress) IsRegister() bool { return !a.isHeap }

func (a cellAddress) equal(b cellAddress) bool {
	if a.isHeap != b.isHeap {
		return false
	}
	if a.isHeap {
		return a.heap == b.heap
	}
	return a.reg == b.reg
}
