package driver

import (
	"testing"

	"github.com/gitrdm/gowam/pkg/term"
)

// TestRunBatch tests fanning independent jobs across the worker pool.
func TestRunBatch(t *testing.T) {
	jobOK := Job{
		Clauses: []term.Clause{
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "x"}}}},
			{Head: &term.Structure{Name: "h", Children: []term.Term{&term.Constant{Name: "y"}}}},
		},
		Query: &term.Structure{Name: "h", Children: []term.Term{&term.Variable{Name: "X"}}},
	}
	jobFail := Job{
		Clauses: []term.Clause{
			{Head: &term.Structure{Name: "p", Children: []term.Term{&term.Variable{Name: "Z"}, &term.Variable{Name: "Z"}}}},
		},
		Query: &term.Structure{Name: "p", Children: []term.Term{&term.Constant{Name: "z"}, &term.Constant{Name: "w"}}},
	}
	jobBadCompile := Job{
		Query: &term.Structure{Name: "undefined", Children: []term.Term{&term.Constant{Name: "a"}}},
	}

	results := RunBatch([]Job{jobOK, jobFail, jobBadCompile}, Options{WorkerPoolSize: 2})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	t.Run("enumerating job returns every solution", func(t *testing.T) {
		if results[0].Err != nil || len(results[0].Solutions) != 2 {
			t.Fatalf("err=%v solutions=%d, want 2 solutions no error", results[0].Err, len(results[0].Solutions))
		}
	})

	t.Run("no-solution job returns empty without error", func(t *testing.T) {
		if results[1].Err != nil || len(results[1].Solutions) != 0 {
			t.Fatalf("err=%v solutions=%d, want 0 solutions no error", results[1].Err, len(results[1].Solutions))
		}
	})

	t.Run("compile-error job surfaces its error", func(t *testing.T) {
		if results[2].Err == nil {
			t.Fatal("expected a compile error for an undefined functor")
		}
	})
}
