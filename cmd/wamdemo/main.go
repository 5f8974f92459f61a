// Package main demonstrates the WAM driver against the six canonical
// compile/run scenarios: straightforward unification failure and success,
// nested-structure unification, a rule body threading an environment
// across two goals, and multi-clause backtracking over three and six
// solutions respectively.
package main

import (
	"fmt"

	"github.com/gitrdm/gowam/pkg/driver"
	"github.com/gitrdm/gowam/pkg/term"
)

func main() {
	fmt.Println("=== gowam scenarios ===")
	fmt.Println()

	unificationFailure()
	unificationSuccess()
	nestedStructures()
	ruleWithEnvironment()
	multipleFacts()
	jealousRelation()
}

func runAndPrint(label string, clauses []term.Clause, query term.Term) {
	fmt.Printf("%s\n", label)
	s, err := driver.NewSession(clauses, query, driver.Options{})
	if err != nil {
		fmt.Printf("   compile error: %v\n", err)
		fmt.Println()
		return
	}
	sols, err := s.Solutions(0)
	if err != nil {
		fmt.Printf("   runtime error: %v\n", err)
		fmt.Println()
		return
	}
	if len(sols) == 0 {
		fmt.Println("   —")
		fmt.Println()
		return
	}
	for _, sol := range sols {
		fmt.Printf("   %s\n", s.Format(sol))
	}
	fmt.Println()
}

// unificationFailure is scenario 1: p(Z, Z). | p(z, w). — no solution.
func unificationFailure() {
	clauses := []term.Clause{
		{Head: &term.Structure{Name: "p", Children: []term.Term{v("Z"), v("Z")}}},
	}
	query := &term.Structure{Name: "p", Children: []term.Term{c("z"), c("w")}}
	runAndPrint("1. p(Z, Z). | p(z, w).", clauses, query)
}

// unificationSuccess is scenario 2: p(Z, Z). | p(z, z). — succeeds.
func unificationSuccess() {
	clauses := []term.Clause{
		{Head: &term.Structure{Name: "p", Children: []term.Term{v("Z"), v("Z")}}},
	}
	query := &term.Structure{Name: "p", Children: []term.Term{c("z"), c("z")}}
	runAndPrint("2. p(Z, Z). | p(z, z).", clauses, query)
}

// nestedStructures is scenario 3: p(f(X), h(Y, f(a)), Y). | p(Z, h(Z, W), f(W)).
func nestedStructures() {
	clauses := []term.Clause{
		{Head: &term.Structure{Name: "p", Children: []term.Term{
			&term.Structure{Name: "f", Children: []term.Term{v("X")}},
			&term.Structure{Name: "h", Children: []term.Term{v("Y"), &term.Structure{Name: "f", Children: []term.Term{c("a")}}}},
			v("Y"),
		}}},
	}
	query := &term.Structure{Name: "p", Children: []term.Term{
		v("Z"),
		&term.Structure{Name: "h", Children: []term.Term{v("Z"), v("W")}},
		&term.Structure{Name: "f", Children: []term.Term{v("W")}},
	}}
	runAndPrint("3. p(f(X), h(Y, f(a)), Y). | p(Z, h(Z, W), f(W)).", clauses, query)
}

// ruleWithEnvironment is scenario 4: a two-goal rule body threading Z
// between q/2 and r/2 via a permanent variable.
func ruleWithEnvironment() {
	clauses := []term.Clause{
		{Head: &term.Structure{Name: "q", Children: []term.Term{c("q"), c("s")}}},
		{Head: &term.Structure{Name: "r", Children: []term.Term{c("s"), c("t")}}},
		{
			Head: &term.Structure{Name: "p", Children: []term.Term{v("X"), v("Y")}},
			Goals: []term.Term{
				&term.Structure{Name: "q", Children: []term.Term{v("X"), v("Z")}},
				&term.Structure{Name: "r", Children: []term.Term{v("Z"), v("Y")}},
			},
		},
	}
	query := &term.Structure{Name: "p", Children: []term.Term{v("X"), v("Y")}}
	runAndPrint("4. q(q, s). r(s, t). p(X, Y) :- q(X, Z), r(Z, Y). | p(X, Y).", clauses, query)
}

// multipleFacts is scenario 5: h(x). h(y). h(z). | h(X). — three solutions
// enumerated via backtracking, in clause order.
func multipleFacts() {
	clauses := []term.Clause{
		{Head: &term.Structure{Name: "h", Children: []term.Term{c("x")}}},
		{Head: &term.Structure{Name: "h", Children: []term.Term{c("y")}}},
		{Head: &term.Structure{Name: "h", Children: []term.Term{c("z")}}},
	}
	query := &term.Structure{Name: "h", Children: []term.Term{v("X")}}
	runAndPrint("5. h(x). h(y). h(z). | h(X).", clauses, query)
}

// jealousRelation is scenario 6: a rule whose body calls the same functor
// twice, driving choice points on both goals simultaneously.
func jealousRelation() {
	love := func(a, b string) term.Clause {
		return term.Clause{Head: &term.Structure{Name: "loves", Children: []term.Term{c(a), c(b)}}}
	}
	clauses := []term.Clause{
		love("vincent", "mia"),
		love("marcellus", "mia"),
		love("pumpkin", "honeybunny"),
		love("honeybunny", "pumpkin"),
		{
			Head: &term.Structure{Name: "jealous", Children: []term.Term{v("X"), v("Y")}},
			Goals: []term.Term{
				&term.Structure{Name: "loves", Children: []term.Term{v("X"), v("Z")}},
				&term.Structure{Name: "loves", Children: []term.Term{v("Y"), v("Z")}},
			},
		},
	}
	query := &term.Structure{Name: "jealous", Children: []term.Term{v("X"), v("Y")}}
	runAndPrint("6. loves/2 facts. jealous(X,Y) :- loves(X,Z), loves(Y,Z). | jealous(X, Y).", clauses, query)
}

func v(name string) *term.Variable { return &term.Variable{Name: name} }
func c(name string) *term.Constant { return &term.Constant{Name: name} }
