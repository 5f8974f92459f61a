package term

// Item is one node visited by a traversal. Depth counts edges from the
// traversal's root (the root itself is depth 0). ArgIndex is this node's
// position among its immediate parent's children (-1 for the root, which
// has no parent). StableID identifies this exact syntactic occurrence —
// the node's own pointer — so that two sibling subterms sharing a functor
// name never collide the way a name/arity-only key would.
type Item struct {
	Term     Term
	Depth    int
	ArgIndex int
	StableID Term
}

// Iterator yields Items one at a time. Next returns (zero, false) once
// exhausted; it is not safe to call Next again afterward.
type Iterator interface {
	Next() (Item, bool)
}

// Collect drains it into a slice.
func Collect(it Iterator) []Item {
	var out []Item
	for {
		item, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

// breadthFirstIterator walks a term root-inclusive, layer by layer.
type breadthFirstIterator struct {
	queue []Item
}

// NewBreadthFirstIterator walks root and every descendant, breadth-first,
// including the root itself at depth 0.
func NewBreadthFirstIterator(root Term) Iterator {
	return &breadthFirstIterator{queue: []Item{{Term: root, Depth: 0, ArgIndex: -1, StableID: root}}}
}

func (it *breadthFirstIterator) Next() (Item, bool) {
	if len(it.queue) == 0 {
		return Item{}, false
	}
	item := it.queue[0]
	it.queue = it.queue[1:]
	if s, ok := item.Term.(*Structure); ok {
		for i, c := range s.Children {
			it.queue = append(it.queue, Item{Term: c, Depth: item.Depth + 1, ArgIndex: i, StableID: c})
		}
	}
	return item, true
}

// BreadthFirst collects NewBreadthFirstIterator(root).
func BreadthFirst(root Term) []Item {
	return Collect(NewBreadthFirstIterator(root))
}

// factIterator is breadth-first excluding the root: the order program-mode
// (Get/Unify) compilation walks a clause head.
type factIterator struct {
	inner   Iterator
	started bool
}

// NewFactIterator walks every descendant of root, breadth-first, excluding
// root itself.
func NewFactIterator(root Term) Iterator {
	return &factIterator{inner: NewBreadthFirstIterator(root)}
}

func (it *factIterator) Next() (Item, bool) {
	if !it.started {
		it.started = true
		if _, ok := it.inner.Next(); !ok {
			return Item{}, false
		}
	}
	return it.inner.Next()
}

// FactOrder collects NewFactIterator(root).
func FactOrder(root Term) []Item {
	return Collect(NewFactIterator(root))
}

// queryIterator is post-order excluding the root: the order query-mode
// (Put/Set) compilation walks a query or rule-body goal, so that every
// subterm is fully built before anything that references it. The walk is
// lazy: each Next pops one node, expanding a structure's children onto
// the stack the first time it is seen and yielding it once they have all
// been yielded.
type queryIterator struct {
	stack []queryFrame
}

type queryFrame struct {
	item     Item
	expanded bool
}

// NewQueryIterator walks every descendant of root, post-order (children
// before their parent), excluding root itself.
func NewQueryIterator(root Term) Iterator {
	it := &queryIterator{}
	if s, ok := root.(*Structure); ok {
		it.pushChildren(s, 1)
	}
	return it
}

// pushChildren pushes s's children in reverse so the leftmost is popped
// first.
func (it *queryIterator) pushChildren(s *Structure, depth int) {
	for i := len(s.Children) - 1; i >= 0; i-- {
		c := s.Children[i]
		it.stack = append(it.stack, queryFrame{
			item: Item{Term: c, Depth: depth, ArgIndex: i, StableID: c},
		})
	}
}

func (it *queryIterator) Next() (Item, bool) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		s, isStructure := top.item.Term.(*Structure)
		if top.expanded || !isStructure {
			item := top.item
			it.stack = it.stack[:len(it.stack)-1]
			return item, true
		}
		top.expanded = true
		depth := top.item.Depth
		it.pushChildren(s, depth+1)
	}
	return Item{}, false
}

// QueryOrder collects NewQueryIterator(root).
func QueryOrder(root Term) []Item {
	return Collect(NewQueryIterator(root))
}
