package regalloc

import "github.com/gitrdm/gowam/pkg/term"

// PermanentAllocation maps a clause's permanent variable names to their
// environment-frame slot indices.
type PermanentAllocation struct {
	Slots map[string]int
	Count int
}

// Home returns a HomeFunc that routes p's permanent variables to their
// assigned slots and leaves every other name to Allocate's own Temporary
// assignment.
func (p *PermanentAllocation) Home() HomeFunc {
	return func(name string) (int, bool) {
		slot, ok := p.Slots[name]
		return slot, ok
	}
}

// AnalyzePermanents partitions a clause's variables into chunks — chunk 0
// is the head together with the first goal, chunk i (i >= 1) is goal i+1 —
// and classifies any variable appearing in two or more chunks as permanent.
// Permanent slots are assigned in reverse order of the variable's first
// appearance in the clause (head, then goals left to right), which keeps
// slot numbering deterministic for a given clause.
func AnalyzePermanents(clause term.Clause) *PermanentAllocation {
	chunks := chunksOf(clause)

	var firstAppearance []string
	seen := map[string]bool{}
	scan := func(t term.Term) {
		for _, item := range term.BreadthFirst(t) {
			if v, ok := item.Term.(*term.Variable); ok && !seen[v.Name] {
				seen[v.Name] = true
				firstAppearance = append(firstAppearance, v.Name)
			}
		}
	}
	scan(clause.Head)
	for _, g := range clause.Goals {
		scan(g)
	}

	chunkMembership := map[string]map[int]bool{}
	for ci, chunk := range chunks {
		for name := range chunk {
			if chunkMembership[name] == nil {
				chunkMembership[name] = map[int]bool{}
			}
			chunkMembership[name][ci] = true
		}
	}

	isPermanent := map[string]bool{}
	for name, set := range chunkMembership {
		if len(set) >= 2 {
			isPermanent[name] = true
		}
	}

	slots := map[string]int{}
	slot := 0
	for i := len(firstAppearance) - 1; i >= 0; i-- {
		name := firstAppearance[i]
		if isPermanent[name] {
			slots[name] = slot
			slot++
		}
	}

	return &PermanentAllocation{Slots: slots, Count: slot}
}

func chunksOf(clause term.Clause) []map[string]bool {
	if len(clause.Goals) == 0 {
		return []map[string]bool{varNames(clause.Head)}
	}
	chunks := []map[string]bool{unionVarNames(clause.Head, clause.Goals[0])}
	for i := 1; i < len(clause.Goals); i++ {
		chunks = append(chunks, varNames(clause.Goals[i]))
	}
	return chunks
}

func varNames(t term.Term) map[string]bool {
	out := map[string]bool{}
	for _, item := range term.BreadthFirst(t) {
		if v, ok := item.Term.(*term.Variable); ok {
			out[v.Name] = true
		}
	}
	return out
}

func unionVarNames(a, b term.Term) map[string]bool {
	out := varNames(a)
	for k := range varNames(b) {
		out[k] = true
	}
	return out
}
