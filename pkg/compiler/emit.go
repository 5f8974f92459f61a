package compiler

import (
	"github.com/gitrdm/gowam/pkg/regalloc"
	"github.com/gitrdm/gowam/pkg/term"
)

// compileHead emits the program-mode (Get/Unify) instructions for root,
// breadth-first excluding the root (term.FactOrder), matching a clause's
// head or a goal's call pattern against the arguments already placed in
// its Argument registers.
//
// processed is the clause-wide set of variable names whose home register
// already holds a value; it spans the head and every body goal, since a
// variable first loaded by the head must compile to PutValue, never a
// fresh PutVariable, when a goal mentions it later.
//
// Nested non-variable children (constants, structures) always emit
// UnifyVariable rather than UnifyValue: breadth-first order visits a
// structure before its own children, so a child's register has not been
// populated yet when its parent's Unify* instructions run — it must be
// established here, not read.
func compileHead(d *term.DescriptorTable, root term.Term, alloc *regalloc.Allocation, processed map[string]bool) []Instruction {
	var out []Instruction

	for _, item := range term.FactOrder(root) {
		switch v := item.Term.(type) {
		case *term.Variable:
			if item.Depth != 1 {
				continue // handled by the parent structure's children loop below
			}
			reg := alloc.RegisterFor(item)
			arg := regalloc.Argument(item.ArgIndex)
			if processed[v.Name] {
				out = append(out, GetValue{Variable: reg, Argument: arg})
			} else {
				out = append(out, GetVariable{Argument: arg, Variable: reg})
				processed[v.Name] = true
			}
		case *term.Constant:
			id := d.Intern(item.Term)
			out = append(out, GetStructure{Descriptor: id, Register: alloc.RegisterFor(item)})
		case *term.Structure:
			id := d.Intern(item.Term)
			out = append(out, GetStructure{Descriptor: id, Register: alloc.RegisterFor(item)})
			for i, c := range v.Children {
				childItem := term.Item{Term: c, Depth: item.Depth + 1, ArgIndex: i}
				childReg := alloc.RegisterFor(childItem)
				if cv, ok := c.(*term.Variable); ok {
					if processed[cv.Name] {
						out = append(out, UnifyValue{Register: childReg})
					} else {
						out = append(out, UnifyVariable{Register: childReg})
						processed[cv.Name] = true
					}
				} else {
					out = append(out, UnifyVariable{Register: childReg})
				}
			}
		}
	}
	return out
}

// compileGoal emits the query-mode (Put/Set) instructions for root,
// post-order excluding the root (term.QueryOrder), building a call's
// argument structure bottom-up onto the heap. processed carries the same
// clause-wide variable set as compileHead.
//
// Nested non-variable children always emit SetValue: post-order visits a
// structure's children before the structure itself, so by the time a
// parent's Set* instructions run, each non-variable child already has a
// valid register (populated when that child was visited in its own right
// earlier in the traversal).
func compileGoal(d *term.DescriptorTable, root term.Term, alloc *regalloc.Allocation, processed map[string]bool) []Instruction {
	var out []Instruction

	for _, item := range term.QueryOrder(root) {
		switch v := item.Term.(type) {
		case *term.Variable:
			if item.Depth != 1 {
				continue
			}
			reg := alloc.RegisterFor(item)
			arg := regalloc.Argument(item.ArgIndex)
			if processed[v.Name] {
				out = append(out, PutValue{Variable: reg, Argument: arg})
			} else {
				out = append(out, PutVariable{Argument: arg, Variable: reg})
				processed[v.Name] = true
			}
		case *term.Constant:
			id := d.Intern(item.Term)
			out = append(out, PutStructure{Descriptor: id, Register: alloc.RegisterFor(item)})
		case *term.Structure:
			id := d.Intern(item.Term)
			out = append(out, PutStructure{Descriptor: id, Register: alloc.RegisterFor(item)})
			for i, c := range v.Children {
				childItem := term.Item{Term: c, Depth: item.Depth + 1, ArgIndex: i}
				childReg := alloc.RegisterFor(childItem)
				if cv, ok := c.(*term.Variable); ok {
					if processed[cv.Name] {
						out = append(out, SetValue{Register: childReg})
					} else {
						out = append(out, SetVariable{Register: childReg})
						processed[cv.Name] = true
					}
				} else {
					out = append(out, SetValue{Register: childReg})
				}
			}
		}
	}
	return out
}

// firstOccurrenceVars returns root's variable names in left-to-right
// reading order (pre-order, depth-first), each appearing once, the order
// solutions are printed in.
func firstOccurrenceVars(root term.Term) []string {
	var out []string
	seen := map[string]bool{}
	var visit func(t term.Term)
	visit = func(t term.Term) {
		switch v := t.(type) {
		case *term.Variable:
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case *term.Structure:
			for _, c := range v.Children {
				visit(c)
			}
		}
	}
	visit(root)
	return out
}
