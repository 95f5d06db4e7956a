package graph_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dagflow/execctx"
	"github.com/dshills/dagflow/future"
	"github.com/dshills/dagflow/graph"
)

func TestSingleNodeGraph(t *testing.T) {
	b := graph.NewBuilder()
	hello := graph.Call0(b, func(ctx context.Context) future.Future[string] {
		return future.Immediate("hello world!!")
	})

	g, err := graph.Build(b, hello)
	require.NoError(t, err)

	v, err := g.Run(context.Background(), execctx.Inline()).Get()
	require.NoError(t, err)
	assert.Equal(t, "hello world!!", v)
}

func TestNamedInput(t *testing.T) {
	b := graph.NewBuilder()
	theInput := graph.NewName[string]("theInput")
	b.Inputs(theInput)

	greet := graph.Call1(b, func(ctx context.Context, who string) future.Future[string] {
		return future.Immediate("hello " + who + "!")
	}).With(graph.Input(theInput))

	g, err := graph.Build(b, greet)
	require.NoError(t, err)

	bound := graph.Bind(g, theInput, "petter")
	v, err := bound.Run(context.Background(), execctx.Inline()).Get()
	require.NoError(t, err)
	assert.Equal(t, "hello petter!", v)
}

func TestNamedInputUnbound(t *testing.T) {
	b := graph.NewBuilder()
	theInput := graph.NewName[string]("theInput")
	b.Inputs(theInput)

	greet := graph.Call1(b, func(ctx context.Context, who string) future.Future[string] {
		return future.Immediate("hello " + who + "!")
	}).With(graph.Input(theInput))

	g, err := graph.Build(b, greet)
	require.NoError(t, err)

	_, err = g.Run(context.Background(), execctx.Inline()).Get()
	assert.Error(t, err)
}

func TestHappensAfterOrdering(t *testing.T) {
	b := graph.NewBuilder()
	var counter int64
	latch := make(chan struct{})

	incr1 := graph.Call0(b, func(ctx context.Context) future.Future[int64] {
		return future.Immediate(atomic.AddInt64(&counter, 1))
	}).Named("incr1")

	incr2 := graph.Call0(b, func(ctx context.Context) future.Future[int64] {
		<-latch
		return future.Immediate(atomic.AddInt64(&counter, 1))
	}).Named("incr2")

	result := graph.Call0(b, func(ctx context.Context) future.Future[int64] {
		return future.Immediate(atomic.LoadInt64(&counter))
	}).After(incr1, incr2).Named("result")

	g, err := graph.Build(b, result)
	require.NoError(t, err)

	out := g.Run(context.Background(), execctx.NewWorkerPool())

	time.Sleep(50 * time.Millisecond)
	_, done := out.Peek()
	assert.False(t, done, "result must not resolve before incr2's latch releases")
	assert.EqualValues(t, 1, atomic.LoadInt64(&counter))

	close(latch)
	v, err := out.Get()
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

func TestFallbackRecoversOwnFailure(t *testing.T) {
	b := graph.NewBuilder()
	faily := graph.Call0(b, func(ctx context.Context) future.Future[string] {
		return future.ImmediateFailure[string](errors.New("boom"))
	}).Fallback("fallback response").Named("faily")

	g, err := graph.Build(b, faily)
	require.NoError(t, err)

	v, err := g.Run(context.Background(), execctx.Inline()).Get()
	require.NoError(t, err)
	assert.Equal(t, "fallback response", v)
}

func TestFallbackDoesNotRecoverDependencyFailure(t *testing.T) {
	b := graph.NewBuilder()
	upstream := graph.Call0(b, func(ctx context.Context) future.Future[string] {
		return future.ImmediateFailure[string](errors.New("upstream boom"))
	}).Named("upstream")

	downstream := graph.Call1(b, func(ctx context.Context, s string) future.Future[string] {
		return future.Immediate("never reached: " + s)
	}).With(graph.From(upstream)).Fallback("should not be used").Named("downstream")

	g, err := graph.Build(b, downstream)
	require.NoError(t, err)

	_, err = g.RunUnwrapped(context.Background(), execctx.Inline()).Get()
	assert.ErrorContains(t, err, "upstream boom")
}

func TestMultipleSinks(t *testing.T) {
	b := graph.NewBuilder()
	one := graph.Call0(b, func(ctx context.Context) future.Future[string] {
		return future.Immediate("one")
	}).Named("the first sink")
	graph.Call0(b, func(ctx context.Context) future.Future[string] {
		return future.Immediate("two")
	})

	_, err := graph.Build(b, one)
	require.Error(t, err)
	var te *graph.TrickleException
	require.ErrorAs(t, err, &te)
	assert.Contains(t, err.Error(), "Multiple sinks")
	assert.Contains(t, err.Error(), "the first sink")
	assert.Contains(t, err.Error(), "unnamed")
}

func TestCycleDetected(t *testing.T) {
	b := graph.NewBuilder()
	n1 := graph.Call0(b, func(ctx context.Context) future.Future[int] {
		return future.Immediate(1)
	}).Named("n1")
	n2 := graph.Call1(b, func(ctx context.Context, x int) future.Future[int] {
		return future.Immediate(x + 1)
	}).With(graph.From(n1)).Named("n2")
	n1.After(n2)

	_, err := graph.Build(b, n1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected")
	msg := err.Error()
	assert.True(t, contains(msg, "n1 -> n2 -> n1") || contains(msg, "n2 -> n1 -> n2"), msg)
}

func TestArityMismatch(t *testing.T) {
	b := graph.NewBuilder()
	bad := graph.Dynamic(b, 2, func(ctx context.Context, args []any) future.Future[any] {
		return future.Immediate[any](nil)
	}).With().Named("badNode")

	_, err := graph.Build(b, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect argument count")
	assert.Contains(t, err.Error(), "badNode")
}

func TestEmptyGraph(t *testing.T) {
	b := graph.NewBuilder()
	_, err := graph.Build[string](b, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Empty graph")
}

func TestCompletedCallsInError(t *testing.T) {
	b := graph.NewBuilder()
	a := graph.Call0(b, func(ctx context.Context) future.Future[string] {
		return future.Immediate("a")
	}).Named("a")
	c := graph.Call0(b, func(ctx context.Context) future.Future[string] {
		return future.Immediate("c")
	}).Named("c")
	failing := graph.Call2(b, func(ctx context.Context, x, y string) future.Future[string] {
		return future.ImmediateFailure[string](errors.New("boom"))
	}).With(graph.From(a), graph.From(c)).Named("failing")

	g, err := graph.Build(b, failing)
	require.NoError(t, err)

	_, err = g.Run(context.Background(), execctx.Inline()).Get()
	require.Error(t, err)

	var gee *graph.GraphExecutionException
	require.ErrorAs(t, err, &gee)
	assert.ErrorContains(t, gee.Cause, "boom")
	assert.Len(t, gee.GetCalls(), 2)

	names := map[string]bool{}
	for _, call := range gee.GetCalls() {
		names[call.Node.Name] = true
	}
	assert.True(t, names["a"])
	assert.True(t, names["c"])
	assert.Equal(t, "failing", gee.Node.Name)
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
