package graph

import (
	"context"

	"github.com/dshills/dagflow/future"
)

// Node0 is an arity-0 node: a function taking no declared arguments that
// produces a future.Future[R].
type Node0[R any] func(ctx context.Context) future.Future[R]

// Node1 is an arity-1 node.
type Node1[A, R any] func(ctx context.Context, a A) future.Future[R]

// Node2 is an arity-2 node.
type Node2[A, B, R any] func(ctx context.Context, a A, b B) future.Future[R]

// Node3 is an arity-3 node.
type Node3[A, B, C, R any] func(ctx context.Context, a A, b B, c C) future.Future[R]

// DynamicFunc is the untyped escape hatch for nodes whose arity is only
// known at build time (for example, nodes assembled from configuration
// rather than compiled call sites). The engine never inspects a node's
// internals beyond invoking it with exactly as many argument values as its
// declared arity.
type DynamicFunc func(ctx context.Context, args []any) future.Future[any]

// erase0..erase3 adapt a typed node function into the engine's internal,
// arity-erased invocation shape: (ctx, []any) -> future.Future[any].

func erase0[R any](node Node0[R]) func(context.Context, []any) future.Future[any] {
	return func(ctx context.Context, _ []any) future.Future[any] {
		return future.Erase(node(ctx))
	}
}

func erase1[A, R any](node Node1[A, R]) func(context.Context, []any) future.Future[any] {
	return func(ctx context.Context, args []any) future.Future[any] {
		a := args[0].(A)
		return future.Erase(node(ctx, a))
	}
}

func erase2[A, B, R any](node Node2[A, B, R]) func(context.Context, []any) future.Future[any] {
	return func(ctx context.Context, args []any) future.Future[any] {
		a := args[0].(A)
		b := args[1].(B)
		return future.Erase(node(ctx, a, b))
	}
}

func erase3[A, B, C, R any](node Node3[A, B, C, R]) func(context.Context, []any) future.Future[any] {
	return func(ctx context.Context, args []any) future.Future[any] {
		a := args[0].(A)
		b := args[1].(B)
		c := args[2].(C)
		return future.Erase(node(ctx, a, b, c))
	}
}
