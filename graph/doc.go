// Package graph implements an asynchronous dataflow graph executor: a DAG
// of nodes, each an asynchronous function producing a future.Future[T],
// wired together with a fluent builder and executed with correct
// dependency ordering, argument forwarding, fallback handling, and rich
// error diagnostics.
package graph
