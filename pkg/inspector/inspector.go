// Package inspector defines the vocabulary for non-destructively
// reconstructing a query's bound term trees after a successful run: the
// View shapes a dereferenced heap cell can take, and the Binding that
// pairs a query variable's name with the View computed for it.
//
// The reconstruction walk itself lives on (*machine.Machine).Inspect,
// since it needs direct access to the machine's heap, registers, and
// environment frames; this package only owns the result types and the
// formatting built on them, so that pkg/machine can depend on pkg/inspector
// without pkg/inspector needing to depend back on pkg/machine.
package inspector

import (
	"fmt"
	"strings"

	"github.com/gitrdm/gowam/pkg/term"
)

// ViewKind distinguishes the shapes a dereferenced query variable's value
// can take.
type ViewKind int

const (
	// ViewUnbound means the variable still points at its own self-
	// referencing heap cell: it was never bound to anything.
	ViewUnbound ViewKind = iota
	// ViewStructure means the variable is bound to a functor applied to
	// Args (Args is empty for a bound constant).
	ViewStructure
	// ViewUndefined means the cell the variable's register pointed at was
	// never written — reachable only via a machine or compiler defect.
	ViewUndefined
)

// View is one node of a reconstructed solution term.
type View struct {
	Kind       ViewKind
	HeapIndex  int // valid when Kind == ViewUnbound
	Descriptor term.DescriptorID
	Args       []View
}

// Binding pairs a query variable with the View reconstructed for it.
type Binding struct {
	Name       string
	Descriptor term.DescriptorID
	View       View
}

// Format renders view in the solution print format: an unbound variable as
// "_<heap-index>", a nullary functor as its bare name, and an applied
// functor as "name(arg, ...)".
func Format(d *term.DescriptorTable, view View) string {
	switch view.Kind {
	case ViewUnbound:
		return fmt.Sprintf("_%d", view.HeapIndex)
	case ViewStructure:
		desc := d.Lookup(view.Descriptor)
		if len(view.Args) == 0 {
			return desc.Name
		}
		args := make([]string, len(view.Args))
		for i, a := range view.Args {
			args[i] = Format(d, a)
		}
		return fmt.Sprintf("%s(%s)", desc.Name, strings.Join(args, ", "))
	default:
		return "undefined"
	}
}

// FormatBinding renders "Name = value".
func FormatBinding(d *term.DescriptorTable, b Binding) string {
	return fmt.Sprintf("%s = %s", b.Name, Format(d, b.View))
}

// FormatSolution renders a full solution as "Name1 = V1, Name2 = V2, ...".
func FormatSolution(d *term.DescriptorTable, bindings []Binding) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = FormatBinding(d, b)
	}
	return strings.Join(parts, ", ")
}
