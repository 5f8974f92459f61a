package machine

import (
	"testing"

	"github.com/gitrdm/gowam/pkg/compiler"
	"github.com/gitrdm/gowam/pkg/inspector"
	"github.com/gitrdm/gowam/pkg/term"
)

func mustCompile(t *testing.T, clauses []term.Clause, query term.Term) (*compiler.Artifact, *term.DescriptorTable) {
	t.Helper()
	c := compiler.New()
	for _, cl := range clauses {
		if err := c.AddClause(cl); err != nil {
			t.Fatalf("AddClause: %v", err)
		}
	}
	artifact, err := c.CompileQuery(query)
	if err != nil {
		t.Fatalf("CompileQuery: %v", err)
	}
	return artifact, c.Descriptors
}

// runToHalt steps m until it reports no further progress, failing the test
// on any runtime fault.
func runToHalt(t *testing.T, m *Machine) {
	t.Helper()
	for {
		more, err := m.Step()
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if !more {
			return
		}
	}
}

// TestStep runs compiled programs through the dispatch loop.
func TestStep(t *testing.T) {
	t.Run("unification failure exhausts the machine", func(t *testing.T) {
		// p(Z, Z). | p(z, w). -- no solution.
		clauses := []term.Clause{
			{Head: &term.Structure{Name: "p", Children: []term.Term{&term.Variable{Name: "Z"}, &term.Variable{Name: "Z"}}}},
		}
		query := &term.Structure{Name: "p", Children: []term.Term{&term.Constant{Name: "z"}, &term.Constant{Name: "w"}}}
		artifact, descriptors := mustCompile(t, clauses, query)
		m := New(artifact, descriptors)
		runToHalt(t, m)
		if m.ExecState() != StateFailure {
			t.Fatalf("expected StateFailure, got %v", m.ExecState())
		}
	})

	t.Run("matching constants unify", func(t *testing.T) {
		// p(Z, Z). | p(z, z). -- succeeds with no new bindings.
		clauses := []term.Clause{
			{Head: &term.Structure{Name: "p", Children: []term.Term{&term.Variable{Name: "Z"}, &term.Variable{Name: "Z"}}}},
		}
		query := &term.Structure{Name: "p", Children: []term.Term{&term.Constant{Name: "z"}, &term.Constant{Name: "z"}}}
		artifact, descriptors := mustCompile(t, clauses, query)
		m := New(artifact, descriptors)
		runToHalt(t, m)
		if m.ExecState() != StateNormal {
			t.Fatalf("expected StateNormal, got %v", m.ExecState())
		}
	})

	t.Run("nested structures unify through shared variables", func(t *testing.T) {
		// p(f(X), h(Y, f(a)), Y). | p(Z, h(Z, W), f(W)).
		x := &term.Variable{Name: "X"}
		y := &term.Variable{Name: "Y"}
		clauses := []term.Clause{
			{Head: &term.Structure{Name: "p", Children: []term.Term{
				&term.Structure{Name: "f", Children: []term.Term{x}},
				&term.Structure{Name: "h", Children: []term.Term{y, &term.Structure{Name: "f", Children: []term.Term{&term.Constant{Name: "a"}}}}},
				y,
			}}},
		}
		z := &term.Variable{Name: "Z"}
		w := &term.Variable{Name: "W"}
		query := &term.Structure{Name: "p", Children: []term.Term{
			z,
			&term.Structure{Name: "h", Children: []term.Term{z, w}},
			&term.Structure{Name: "f", Children: []term.Term{w}},
		}}
		artifact, descriptors := mustCompile(t, clauses, query)
		m := New(artifact, descriptors)
		runToHalt(t, m)
		if m.ExecState() != StateNormal {
			t.Fatalf("expected StateNormal, got %v", m.ExecState())
		}

		bindings := m.Inspect()
		if len(bindings) != 2 {
			t.Fatalf("expected 2 watched bindings, got %d", len(bindings))
		}
		got := map[string]string{}
		for _, b := range bindings {
			got[b.Name] = inspector.Format(descriptors, b.View)
		}
		if got["Z"] != "f(f(a))" {
			t.Fatalf("Z = %s, want f(f(a))", got["Z"])
		}
		if got["W"] != "f(a)" {
			t.Fatalf("W = %s, want f(a)", got["W"])
		}
	})

	t.Run("rule body threads bindings through an environment", func(t *testing.T) {
		// q(q, s). r(s, t). p(X, Y) :- q(X, Z), r(Z, Y). | p(X, Y).
		clauses := []term.Clause{
			{Head: &term.Structure{Name: "q", Children: []term.Term{&term.Constant{Name: "q"}, &term.Constant{Name: "s"}}}},
			{Head: &term.Structure{Name: "r", Children: []term.Term{&term.Constant{Name: "s"}, &term.Constant{Name: "t"}}}},
			{
				Head: &term.Structure{Name: "p", Children: []term.Term{&term.Variable{Name: "X"}, &term.Variable{Name: "Y"}}},
				Goals: []term.Term{
					&term.Structure{Name: "q", Children: []term.Term{&term.Variable{Name: "X"}, &term.Variable{Name: "Z"}}},
					&term.Structure{Name: "r", Children: []term.Term{&term.Variable{Name: "Z"}, &term.Variable{Name: "Y"}}},
				},
			},
		}
		query := &term.Structure{Name: "p", Children: []term.Term{&term.Variable{Name: "X"}, &term.Variable{Name: "Y"}}}
		artifact, descriptors := mustCompile(t, clauses, query)
		m := New(artifact, descriptors)
		runToHalt(t, m)
		if m.ExecState() != StateNormal {
			t.Fatalf("expected StateNormal, got %v", m.ExecState())
		}
		got := map[string]string{}
		for _, b := range m.Inspect() {
			got[b.Name] = inspector.Format(descriptors, b.View)
		}
		if got["X"] != "q" || got["Y"] != "t" {
			t.Fatalf("got X=%s Y=%s, want X=q Y=t", got["X"], got["Y"])
		}
	})

	t.Run("backtracking enumerates clauses in textual order", func(t *testing.T) {
		// h(x). h(y). h(z). | h(X). -- three solutions, in order.
		clauses := []term.Clause{
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "x"}}}},
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "y"}}}},
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "z"}}}},
		}
		query := &term.Structure{Name: "h", Children: []term.Term{&term.Variable{Name: "X"}}}
		artifact, descriptors := mustCompile(t, clauses, query)
		m := New(artifact, descriptors)

		var got []string
		for {
			runToHalt(t, m)
			if m.ExecState() != StateNormal {
				break
			}
			bindings := m.Inspect()
			got = append(got, inspector.Format(descriptors, bindings[0].View))
			if !m.TryBacktrack() {
				break
			}
		}
		want := []string{"x", "y", "z"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("heap shrinks back to the choice-point watermark", func(t *testing.T) {
		clauses := []term.Clause{
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "x"}}}},
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "y"}}}},
		}
		query := &term.Structure{Name: "h", Children: []term.Term{&term.Variable{Name: "X"}}}
		artifact, descriptors := mustCompile(t, clauses, query)
		m := New(artifact, descriptors)

		runToHalt(t, m)
		if m.ExecState() != StateNormal {
			t.Fatal("expected first solution")
		}
		firstHeapLen := len(m.heap)
		if !m.TryBacktrack() {
			t.Fatal("expected a remaining choice point")
		}
		runToHalt(t, m)
		if m.ExecState() != StateNormal {
			t.Fatal("expected second solution")
		}
		// Retrying a clause of the same shape must rebuild the heap to the
		// same length, not grow it unboundedly across backtracks.
		if len(m.heap) != firstHeapLen {
			t.Fatalf("heap length after backtrack = %d, want %d", len(m.heap), firstHeapLen)
		}
	})
}
