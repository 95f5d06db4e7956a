package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/dagflow/execctx"
	"github.com/dshills/dagflow/future"
)

// graphCore is the immutable, type-erased structural data shared by every
// Graph[R]: the sink decl, the transitive closure of reachable decls, the
// declared input identities, the precomputed NodeInfo cache, and the
// per-run overlay of bound input values. Graph[R] adds only the sink's
// output type R on top of this.
type graphCore struct {
	sink    *declCore
	decls   []*declCore
	inputs  map[*nameIdentity]string
	infos   map[*declCore]*NodeInfo
	overlay map[*nameIdentity]any
}

func (g *graphCore) clone() *graphCore {
	overlay := make(map[*nameIdentity]any, len(g.overlay)+1)
	for k, v := range g.overlay {
		overlay[k] = v
	}
	return &graphCore{
		sink:    g.sink,
		decls:   g.decls,
		inputs:  g.inputs,
		infos:   g.infos,
		overlay: overlay,
	}
}

// Graph is an immutable, validated, executable dataflow graph producing a
// value of type R, executed via Run. A Graph cannot be bound as another
// node's argument: From takes a *NodeDecl, not a *Graph, so graphs are not
// nested inside other graphs.
type Graph[R any] struct {
	core *graphCore
}

// Build validates the declarations accumulated in b and, if they pass every
// check, freezes them into an immutable Graph[R] rooted at sink.
//
// Validation runs in this order, each failing fast: empty declaration set,
// arity mismatch, missing declared input, sink uniqueness, cycle detection.
func Build[R any](b *Builder, sink *NodeDecl[R]) (*Graph[R], error) {
	b.mu.Lock()
	decls := append([]*declCore(nil), b.decls...)
	inputs := make(map[*nameIdentity]string, len(b.inputs))
	for k, v := range b.inputs {
		inputs[k] = v
	}
	b.mu.Unlock()

	detectedSink, infos, err := validate(decls, inputs)
	if err != nil {
		return nil, err
	}
	if detectedSink != sink.core {
		return nil, newTrickleException(
			"Build was called with sink %q, but the declared graph's only sink is %q",
			sink.core.name, detectedSink.name,
		)
	}

	return &Graph[R]{core: &graphCore{
		sink:    detectedSink,
		decls:   decls,
		inputs:  inputs,
		infos:   infos,
		overlay: map[*nameIdentity]any{},
	}}, nil
}

// Standalone validates and freezes the closure reachable from d (its
// bindings and happens-after edges, transitively) into a self-contained
// Graph[R], without requiring a separate Builder or an explicit Inputs(...)
// declaration: every NamedInput binding reachable from d is accepted as a
// required input of the resulting graph. This turns a single declaration,
// call(node).With(...).Named(...), and its predecessors into an executable
// Graph[R]; like any Graph, the result is run on its own and cannot be
// bound into another graph.
func Standalone[R any](d *NodeDecl[R]) (*Graph[R], error) {
	decls := reachableFrom(d.core)
	inputs := map[*nameIdentity]string{}
	for _, decl := range decls {
		for _, b := range decl.bindings {
			if b.kind == argInput {
				inputs[b.inputID] = b.label
			}
		}
	}

	detectedSink, infos, err := validate(decls, inputs)
	if err != nil {
		return nil, err
	}
	if detectedSink != d.core {
		return nil, newTrickleException(
			"Standalone was called on %q, which is not the sink of its own reachable declarations (found %q)",
			d.core.name, detectedSink.name,
		)
	}

	return &Graph[R]{core: &graphCore{
		sink:    detectedSink,
		decls:   decls,
		inputs:  inputs,
		infos:   infos,
		overlay: map[*nameIdentity]any{},
	}}, nil
}

func reachableFrom(sink *declCore) []*declCore {
	seen := map[*declCore]bool{}
	var order []*declCore

	var visit func(d *declCore)
	visit = func(d *declCore) {
		if seen[d] {
			return
		}
		seen[d] = true
		for _, p := range predecessorsOf(d) {
			visit(p)
		}
		order = append(order, d)
	}
	visit(sink)
	return order
}

// Bind returns a new Graph with name bound to value, layered over g via a
// copy-on-write overlay; g itself is left unmodified and remains usable
// and shareable across runs.
func Bind[R, T any](g *Graph[R], name Name[T], value T) *Graph[R] {
	core := g.core.clone()
	core.overlay[name.identity()] = value
	return &Graph[R]{core: core}
}

// SinkInfo returns the NodeInfo describing the graph's sink node, the root
// of the NodeInfo DAG an external visualizer would walk.
func (g *Graph[R]) SinkInfo() NodeInfo {
	return *g.core.infos[g.core.sink]
}

// RunOption configures a single Run call.
type RunOption func(*runConfig)

type runConfig struct {
	runID    string
	observer Observer
	metrics  MetricsCollector
}

// WithRunID tags the run with an explicit identifier instead of a
// generated one, for correlating with external logs.
func WithRunID(id string) RunOption {
	return func(cfg *runConfig) { cfg.runID = id }
}

// WithObserver attaches an Observer to the run.
func WithObserver(o Observer) RunOption {
	return func(cfg *runConfig) { cfg.observer = o }
}

// WithMetrics attaches a MetricsCollector to the run.
func WithMetrics(m MetricsCollector) RunOption {
	return func(cfg *runConfig) { cfg.metrics = m }
}

// Run executes the graph on ec, returning a future for the sink's value.
// Node invocations are launched as soon as their predecessors resolve;
// siblings with no mutual dependency may run concurrently, depending on ec.
// A node failure without a fallback propagates to the returned future as a
// *GraphExecutionException wrapping the original cause.
func (g *Graph[R]) Run(ctx context.Context, ec execctx.ExecutionContext, opts ...RunOption) future.Future[R] {
	return g.run(ctx, ec, true, opts)
}

// RunUnwrapped behaves like Run but disables exception wrapping: a node
// failure without a fallback propagates as the original cause, unwrapped.
// This is the traverseState "wrap failures" flag's opt-out, intended for
// tests that want to inspect raw causes.
func (g *Graph[R]) RunUnwrapped(ctx context.Context, ec execctx.ExecutionContext, opts ...RunOption) future.Future[R] {
	return g.run(ctx, ec, false, opts)
}

func (g *Graph[R]) run(ctx context.Context, ec execctx.ExecutionContext, wrap bool, opts []RunOption) future.Future[R] {
	cfg := runConfig{runID: uuid.NewString()}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := newTraverseState(g.core, cfg.runID, ec, wrap, cfg.observer, cfg.metrics)
	out := st.resolve(ctx, g.core.sink)

	promise, typed := future.NewPromise[R]()
	out.OnComplete(func(r future.Result[any]) {
		if r.Err != nil {
			promise.Fail(r.Err)
			return
		}
		v, ok := r.Value.(R)
		if !ok {
			promise.Fail(fmt.Errorf("dagflow: sink produced %T, want %T", r.Value, v))
			return
		}
		promise.Succeed(v)
	})
	return typed
}
