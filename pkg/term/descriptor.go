package term

import "fmt"

// DescriptorKind distinguishes a functor descriptor (a Structure or Constant,
// identified by name and arity) from a variable descriptor (identified by
// name alone).
type DescriptorKind int

const (
	DescriptorKindFunctor DescriptorKind = iota
	DescriptorKindVariable
)

// Descriptor is the interned identity of a name: either "name/arity" for a
// functor or a bare variable name. A Constant is a zero-arity functor, so
// it unifies naturally as a nullary structure.
type Descriptor struct {
	Name  string
	Kind  DescriptorKind
	Arity int
}

// PrettyName renders the descriptor the way clause and instruction traces
// print it: "name/arity" for a functor, the bare name for a variable.
func (d Descriptor) PrettyName() string {
	if d.Kind == DescriptorKindVariable {
		return d.Name
	}
	return fmt.Sprintf("%s/%d", d.Name, d.Arity)
}

// DescriptorID is a small dense integer assigned the first time a given
// name (or name/arity pair) is interned. IDs never get rekeyed; the table
// only grows.
type DescriptorID int

type descriptorKey struct {
	name     string
	arity    int
	variable bool
}

func keyFor(t Term) descriptorKey {
	switch v := t.(type) {
	case *Variable:
		return descriptorKey{name: v.Name, variable: true}
	case *Constant:
		return descriptorKey{name: v.Name}
	case *Structure:
		return descriptorKey{name: v.Name, arity: len(v.Children)}
	default:
		return descriptorKey{}
	}
}

// DescriptorTable interns terms by (name, arity) for functors and by name
// for variables, yielding stable DescriptorIDs shared across every
// occurrence of the same name within the table's lifetime.
type DescriptorTable struct {
	index       map[descriptorKey]DescriptorID
	descriptors []Descriptor
}

// NewDescriptorTable returns an empty table.
func NewDescriptorTable() *DescriptorTable {
	return &DescriptorTable{index: make(map[descriptorKey]DescriptorID)}
}

// Intern returns t's DescriptorID, assigning a new one on first occurrence
// of its (name, arity) or variable name.
func (t *DescriptorTable) Intern(node Term) DescriptorID {
	key := keyFor(node)
	if id, ok := t.index[key]; ok {
		return id
	}
	id := DescriptorID(len(t.descriptors))
	var d Descriptor
	switch v := node.(type) {
	case *Variable:
		d = Descriptor{Name: v.Name, Kind: DescriptorKindVariable}
	case *Constant:
		d = Descriptor{Name: v.Name, Kind: DescriptorKindFunctor, Arity: 0}
	case *Structure:
		d = Descriptor{Name: v.Name, Kind: DescriptorKindFunctor, Arity: len(v.Children)}
	}
	t.index[key] = id
	t.descriptors = append(t.descriptors, d)
	return id
}

// InternName interns a variable by name alone, without requiring a live
// *Variable node (used to label a query's watch list by name).
func (t *DescriptorTable) InternName(name string) DescriptorID {
	return t.Intern(&Variable{Name: name})
}

// Lookup returns the descriptor for id. It panics if id was never interned
// by this table, since that indicates a compiler or machine defect rather
// than a condition callers should recover from.
func (t *DescriptorTable) Lookup(id DescriptorID) Descriptor {
	return t.descriptors[int(id)]
}

// Len reports how many distinct descriptors have been interned.
func (t *DescriptorTable) Len() int {
	return len(t.descriptors)
}
