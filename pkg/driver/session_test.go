package driver

import (
	"errors"
	"testing"

	"github.com/gitrdm/gowam/pkg/term"
)

// TestSession tests compile-run-enumerate round trips through the driver.
func TestSession(t *testing.T) {
	t.Run("no solution", func(t *testing.T) {
		clauses := []term.Clause{
			{Head: &term.Structure{Name: "p", Children: []term.Term{&term.Variable{Name: "Z"}, &term.Variable{Name: "Z"}}}},
		}
		query := &term.Structure{Name: "p", Children: []term.Term{&term.Constant{Name: "z"}, &term.Constant{Name: "w"}}}
		s, err := NewSession(clauses, query, Options{})
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		_, found, err := s.FirstSolution()
		if err != nil {
			t.Fatalf("FirstSolution: %v", err)
		}
		if found {
			t.Fatal("expected no solution")
		}
	})

	t.Run("multiple solutions render in clause order", func(t *testing.T) {
		clauses := []term.Clause{
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "x"}}}},
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "y"}}}},
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "z"}}}},
		}
		query := &term.Structure{Name: "h", Children: []term.Term{&term.Variable{Name: "X"}}}
		s, err := NewSession(clauses, query, Options{})
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		sols, err := s.Solutions(0)
		if err != nil {
			t.Fatalf("Solutions: %v", err)
		}
		want := []string{"X = x", "X = y", "X = z"}
		if len(sols) != len(want) {
			t.Fatalf("got %d solutions, want %d", len(sols), len(want))
		}
		for i, sol := range sols {
			if got := s.Format(sol); got != want[i] {
				t.Fatalf("solution %d = %q, want %q", i, got, want[i])
			}
		}
	})

	t.Run("two-goal rule enumerates six jealous pairs in order", func(t *testing.T) {
		// loves(vincent, mia). loves(marcellus, mia).
		// loves(pumpkin, honeybunny). loves(honeybunny, pumpkin).
		// jealous(X,Y) :- loves(X,Z), loves(Y,Z).
		love := func(a, b string) term.Clause {
			return term.Clause{Head: &term.Structure{Name: "loves", Children: []term.Term{
				&term.Constant{Name: a}, &term.Constant{Name: b},
			}}}
		}
		clauses := []term.Clause{
			love("vincent", "mia"),
			love("marcellus", "mia"),
			love("pumpkin", "honeybunny"),
			love("honeybunny", "pumpkin"),
			{
				Head: &term.Structure{Name: "jealous", Children: []term.Term{&term.Variable{Name: "X"}, &term.Variable{Name: "Y"}}},
				Goals: []term.Term{
					&term.Structure{Name: "loves", Children: []term.Term{&term.Variable{Name: "X"}, &term.Variable{Name: "Z"}}},
					&term.Structure{Name: "loves", Children: []term.Term{&term.Variable{Name: "Y"}, &term.Variable{Name: "Z"}}},
				},
			},
		}
		query := &term.Structure{Name: "jealous", Children: []term.Term{&term.Variable{Name: "X"}, &term.Variable{Name: "Y"}}}
		s, err := NewSession(clauses, query, Options{})
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		sols, err := s.Solutions(0)
		if err != nil {
			t.Fatalf("Solutions: %v", err)
		}
		want := []string{
			"X = vincent, Y = vincent",
			"X = vincent, Y = marcellus",
			"X = marcellus, Y = vincent",
			"X = marcellus, Y = marcellus",
			"X = pumpkin, Y = pumpkin",
			"X = honeybunny, Y = honeybunny",
		}
		if len(sols) != len(want) {
			t.Fatalf("got %d solutions, want %d: %v", len(sols), len(want), sols)
		}
		for i, sol := range sols {
			if got := s.Format(sol); got != want[i] {
				t.Fatalf("solution %d = %q, want %q", i, got, want[i])
			}
		}
	})

	t.Run("step budget exceeded", func(t *testing.T) {
		clauses := []term.Clause{
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "x"}}}},
		}
		query := &term.Structure{Name: "h", Children: []term.Term{&term.Variable{Name: "X"}}}
		s, err := NewSession(clauses, query, Options{MaxSteps: 1})
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		_, _, err = s.FirstSolution()
		if !errors.Is(err, ErrStepBudgetExceeded) {
			t.Fatalf("expected ErrStepBudgetExceeded, got %v", err)
		}
	})

	t.Run("undefined functor is a compile error", func(t *testing.T) {
		query := &term.Structure{Name: "nope", Children: []term.Term{&term.Constant{Name: "a"}}}
		if _, err := NewSession(nil, query, Options{}); err == nil {
			t.Fatal("expected a compile error for a query with no matching clause")
		}
	})
}
