package term

import "testing"

// p(f(X), h(Y, f(a)), Y) — the classic nested-structure example, also the
// clause head of pkg/machine's nested-structure unification test.
func sampleTerm() *Structure {
	x := &Variable{Name: "X"}
	y1 := &Variable{Name: "Y"}
	y2 := &Variable{Name: "Y"}
	return &Structure{
		Name: "p",
		Children: []Term{
			&Structure{Name: "f", Children: []Term{x}},
			&Structure{Name: "h", Children: []Term{y1, &Structure{Name: "f", Children: []Term{&Constant{Name: "a"}}}}},
			y2,
		},
	}
}

// TestTraversals tests the three traversal orders.
func TestTraversals(t *testing.T) {
	t.Run("breadth-first includes the root", func(t *testing.T) {
		root := sampleTerm()
		items := BreadthFirst(root)
		if items[0].Term != Term(root) {
			t.Fatal("first item must be the root itself")
		}
		if items[0].Depth != 0 || items[0].ArgIndex != -1 {
			t.Fatalf("root item should be depth 0, argindex -1, got %+v", items[0])
		}
	})

	t.Run("fact order excludes the root and is breadth-first", func(t *testing.T) {
		root := sampleTerm()
		items := FactOrder(root)
		if len(items) == 0 {
			t.Fatal("expected items")
		}
		for _, it := range items {
			if it.Term == Term(root) {
				t.Fatal("FactOrder must exclude the root")
			}
		}
		// depth-1 items (root's direct children) must all precede any deeper item.
		sawDeeper := false
		for _, it := range items {
			if it.Depth > 1 {
				sawDeeper = true
			} else if sawDeeper {
				t.Fatal("breadth-first order violated: depth-1 item after a deeper one")
			}
		}
	})

	t.Run("query order is post-order excluding the root", func(t *testing.T) {
		root := sampleTerm()
		items := QueryOrder(root)
		for _, it := range items {
			if it.Term == Term(root) {
				t.Fatal("QueryOrder must exclude the root")
			}
		}
		// a Constant's children (none) trivially precede it; a Structure must
		// appear strictly after all of its own children.
		position := map[Term]int{}
		for i, it := range items {
			position[it.Term] = i
		}
		for _, it := range items {
			if s, ok := it.Term.(*Structure); ok {
				for _, c := range s.Children {
					if position[c] >= position[s] {
						t.Fatalf("child %v must be emitted before parent %v in post-order", c, s)
					}
				}
			}
		}
	})

	t.Run("query order yields depth-1 items left to right", func(t *testing.T) {
		root := sampleTerm()
		var argOrder []int
		for _, it := range QueryOrder(root) {
			if it.Depth == 1 {
				argOrder = append(argOrder, it.ArgIndex)
			}
		}
		want := []int{0, 1, 2}
		if len(argOrder) != len(want) {
			t.Fatalf("expected %d depth-1 items, got %v", len(want), argOrder)
		}
		for i := range want {
			if argOrder[i] != want[i] {
				t.Fatalf("depth-1 items out of order: got %v, want %v", argOrder, want)
			}
		}
	})
}
