package graph

import (
	"fmt"
	"strings"
)

// TrickleException is raised synchronously by Build when a declared graph
// fails structural validation: an arity mismatch, a missing input, a
// sink-uniqueness violation, a cycle, or an empty declaration set.
type TrickleException struct {
	message string
}

func newTrickleException(format string, args ...any) *TrickleException {
	return &TrickleException{message: fmt.Sprintf(format, args...)}
}

func (e *TrickleException) Error() string { return e.message }

// CallInfo is a diagnostic snapshot of a single completed node invocation:
// its NodeInfo and its resolved argument values (not futures).
type CallInfo struct {
	Node NodeInfo
	Args []any
}

// GraphExecutionException wraps a node-invocation failure with full
// diagnostic context: the failing node, its declared arguments and
// currently-available argument values, and every other already-completed
// call recorded in the run's traversal state.
type GraphExecutionException struct {
	Node    NodeInfo
	Args    []any
	Cause   error
	Calls   []CallInfo
	message string
}

func (e *GraphExecutionException) Error() string { return e.message }

// Unwrap exposes the original failure cause for errors.Is/errors.As.
func (e *GraphExecutionException) Unwrap() error { return e.Cause }

// GetCalls returns a snapshot of every other call in the run's traversal
// state whose argument futures had all resolved successfully by the time
// of the failure. The failing call itself is excluded (it is already
// described by Node/Args); calls with an unresolved argument future at the
// moment of failure are excluded too.
func (e *GraphExecutionException) GetCalls() []CallInfo { return e.Calls }

func buildExceptionMessage(info NodeInfo, args []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "node %q failed", info.Name)
	if len(info.Args) > 0 {
		b.WriteString(" (arguments: ")
		for i, a := range info.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			var val any
			if i < len(args) {
				val = args[i]
			}
			fmt.Fprintf(&b, "%s=%v", a.Name, val)
		}
		b.WriteString(")")
	}
	return b.String()
}
