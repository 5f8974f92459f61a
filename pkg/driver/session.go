package driver

import (
	"errors"
	"fmt"

	"github.com/gitrdm/gowam/pkg/compiler"
	"github.com/gitrdm/gowam/pkg/inspector"
	"github.com/gitrdm/gowam/pkg/machine"
	"github.com/gitrdm/gowam/pkg/term"
)

// ErrStepBudgetExceeded is returned when a run exceeds Options.MaxSteps
// without reaching a solution or failure.
var ErrStepBudgetExceeded = errors.New("driver: step budget exceeded")

// Solution is one successful binding of the query's watched variables.
type Solution struct {
	Bindings []inspector.Binding
}

// Session compiles a program and query once, then lets the caller pull
// successive solutions via FirstSolution/Solutions, resuming backtracking
// correctly across calls.
type Session struct {
	opts        Options
	descriptors *term.DescriptorTable
	m           *machine.Machine

	started   bool
	exhausted bool
}

// NewSession compiles clauses and query into an Artifact and loads it into
// a fresh Machine. The first clause or query referencing an undefined
// functor is reported as a compile error, not deferred to run time.
func NewSession(clauses []term.Clause, query term.Term, opts Options) (*Session, error) {
	c := compiler.New()
	for _, clause := range clauses {
		if err := c.AddClause(clause); err != nil {
			return nil, err
		}
	}
	artifact, err := c.CompileQuery(query)
	if err != nil {
		return nil, err
	}
	m := machine.New(artifact, c.Descriptors)
	m.Logger = opts.logger()
	return &Session{opts: opts, descriptors: c.Descriptors, m: m}, nil
}

// runToHalt steps the session's machine until it halts (success, failure,
// or end of stream), respecting Options.MaxSteps.
func (s *Session) runToHalt() error {
	steps := 0
	for {
		if s.opts.MaxSteps > 0 && steps >= s.opts.MaxSteps {
			return fmt.Errorf("%w: %d steps", ErrStepBudgetExceeded, s.opts.MaxSteps)
		}
		more, err := s.m.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		steps++
	}
}

// advance resumes execution — backtracking into the next choice point on
// every call after the first — and reports whether a solution was found.
func (s *Session) advance() (bool, error) {
	if s.exhausted {
		return false, nil
	}
	if s.started {
		if !s.m.TryBacktrack() {
			s.exhausted = true
			return false, nil
		}
	}
	s.started = true
	if err := s.runToHalt(); err != nil {
		return false, err
	}
	if s.m.ExecState() != machine.StateNormal {
		s.exhausted = true
		return false, nil
	}
	return true, nil
}

// FirstSolution runs the session to its first solution, if any.
func (s *Session) FirstSolution() (Solution, bool, error) {
	found, err := s.advance()
	if err != nil || !found {
		return Solution{}, found, err
	}
	return Solution{Bindings: s.m.Inspect()}, true, nil
}

// Solutions collects up to max solutions (all of them, if max <= 0),
// resuming from wherever a prior call left off.
func (s *Session) Solutions(max int) ([]Solution, error) {
	var out []Solution
	for max <= 0 || len(out) < max {
		found, err := s.advance()
		if err != nil {
			return out, err
		}
		if !found {
			break
		}
		out = append(out, Solution{Bindings: s.m.Inspect()})
	}
	return out, nil
}

// Format renders sol in the standard "Name1 = V1, Name2 = V2, ..." print
// format.
func (s *Session) Format(sol Solution) string {
	return inspector.FormatSolution(s.descriptors, sol.Bindings)
}
