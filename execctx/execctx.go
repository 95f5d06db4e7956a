// Package execctx provides the execution context abstraction the graph
// engine dispatches node invocations onto: the engine never creates threads
// itself, it posts work to whatever ExecutionContext the caller supplies.
package execctx

import "context"

// ExecutionContext dispatches a node invocation. A synchronous context runs
// task inline (yielding strictly sequential execution); a worker-pool
// context runs independent branches in parallel.
type ExecutionContext interface {
	// Submit dispatches task. Whether Submit returns before task completes
	// depends on the implementation: Inline runs task to completion before
	// returning, while a worker pool returns at once and runs task on
	// another goroutine.
	Submit(ctx context.Context, task func())
}

// inlineContext runs every task synchronously on the calling goroutine.
type inlineContext struct{}

// Inline returns an ExecutionContext that runs every submitted task
// synchronously, inline, on the calling goroutine. Useful for tests that
// need deterministic, single-threaded execution order.
func Inline() ExecutionContext { return inlineContext{} }

func (inlineContext) Submit(_ context.Context, task func()) { task() }
