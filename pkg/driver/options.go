// Package driver ties pkg/compiler, pkg/machine, and pkg/inspector
// together into a small in-process session: load a program and a query,
// run it to a first solution, format bindings in the standard print
// format, and drive successive backtracking for further solutions. A
// separate RunBatch fans a slice of independent sessions out across a
// worker pool.
package driver

import "github.com/hashicorp/go-hclog"

// Options configures a Session or a RunBatch call.
type Options struct {
	// MaxSteps bounds how many instructions a single run-to-solution may
	// execute before giving up with an error. Zero means unbounded.
	MaxSteps int
	// Logger receives step-level tracing (Call, TryMeElse/RetryMeElse/
	// TrustMe, backtrack) at Trace level. A nil Logger is a no-op.
	Logger hclog.Logger
	// WorkerPoolSize bounds the number of goroutines RunBatch uses. Zero
	// or negative defaults to the number of CPU cores.
	WorkerPoolSize int
}

func (o Options) logger() hclog.Logger {
	if o.Logger == nil {
		return hclog.NewNullLogger()
	}
	return o.Logger
}
