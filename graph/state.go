package graph

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/dagflow/execctx"
	"github.com/dshills/dagflow/future"
)

// callLogEntry is one write-once-per-decl record in a traverseState's call
// log: it is appended immediately before the engine begins invoking the
// node (all its argument futures exist), not when the node completes.
type callLogEntry struct {
	decl *declCore
	info NodeInfo
	args []future.Future[any]
}

// traverseState is the per-run mutable state the scheduler drives: bound
// input values, a memoization map from decl to its in-flight or settled
// future, and the ordered call log the Exception Wrapper reads from.
type traverseState struct {
	runID        string
	execCtx      execctx.ExecutionContext
	wrapFailures bool
	observer     Observer
	metrics      MetricsCollector

	bindingValues map[*nameIdentity]any
	infos         map[*declCore]*NodeInfo

	memoMu sync.Mutex
	memo   map[*declCore]future.Future[any]

	logMu sync.Mutex
	log   []callLogEntry
}

func newTraverseState(g *graphCore, runID string, ec execctx.ExecutionContext, wrap bool, obs Observer, mc MetricsCollector) *traverseState {
	if obs == nil {
		obs = noopObserver{}
	}
	return &traverseState{
		runID:         runID,
		execCtx:       ec,
		wrapFailures:  wrap,
		observer:      obs,
		metrics:       mc,
		bindingValues: g.overlay,
		infos:         g.infos,
		memo:          make(map[*declCore]future.Future[any]),
	}
}

func (st *traverseState) recordCall(decl *declCore, info NodeInfo, args []future.Future[any]) {
	st.logMu.Lock()
	defer st.logMu.Unlock()
	st.log = append(st.log, callLogEntry{decl: decl, info: info, args: args})
}

// completedCalls returns a CallInfo snapshot for every logged call other
// than exclude, whose argument futures had all resolved successfully by
// the time of this call.
func (st *traverseState) completedCalls(exclude *declCore) []CallInfo {
	st.logMu.Lock()
	defer st.logMu.Unlock()

	calls := make([]CallInfo, 0, len(st.log))
	for _, entry := range st.log {
		if entry.decl == exclude {
			continue
		}
		values, ok := resolvedValues(entry.args)
		if !ok {
			continue
		}
		calls = append(calls, CallInfo{Node: entry.info, Args: values})
	}
	return calls
}

// resolvedValues returns the settled values of every future in args, or
// ok=false if any has not yet settled successfully.
func resolvedValues(args []future.Future[any]) ([]any, bool) {
	values := make([]any, len(args))
	for i, f := range args {
		r, done := f.Peek()
		if !done || r.Err != nil {
			return nil, false
		}
		values[i] = r.Value
	}
	return values, true
}

// resolve returns decl's memoized future, computing it on first request.
// Every NodeDecl's memoized future is set at most once per run:
// subsequent calls reuse it. Because resolve is call-stack recursive and
// the predecessor relation is a DAG (enforced at Build time), reserving the
// memo slot before recursing into dependencies is sufficient to guarantee
// exactly-once invocation even under concurrent resolution of shared
// predecessors.
func (st *traverseState) resolve(ctx context.Context, decl *declCore) future.Future[any] {
	st.memoMu.Lock()
	if f, ok := st.memo[decl]; ok {
		st.memoMu.Unlock()
		return f
	}
	promise, out := future.NewPromise[any]()
	st.memo[decl] = out
	st.memoMu.Unlock()

	argFutures := make([]future.Future[any], len(decl.bindings))
	depFutures := make([]future.Future[any], 0, len(decl.bindings)+len(decl.after))
	for i, b := range decl.bindings {
		f := st.resolveBinding(ctx, b)
		argFutures[i] = f
		depFutures = append(depFutures, f)
	}
	for _, pred := range decl.after {
		depFutures = append(depFutures, st.resolve(ctx, pred))
	}

	info := st.infoOf(decl)
	future.AllOf(depFutures).OnComplete(func(deps future.Result[[]any]) {
		if deps.Err != nil {
			// A dependency failure is never covered by this node's own
			// fallback: Fallback recovers only this node's invocation.
			promise.Fail(deps.Err)
			return
		}

		st.recordCall(decl, info, argFutures)
		args := make([]any, len(argFutures))
		for i, f := range argFutures {
			v, _ := f.Get()
			args[i] = v
		}

		st.observer.OnNodeStart(st.runID, info)
		start := timeNow()
		if st.metrics != nil {
			st.metrics.NodeStarted(st.runID, info.Name)
		}

		st.execCtx.Submit(ctx, func() {
			decl.invoke(ctx, args).OnComplete(func(nr future.Result[any]) {
				dur := timeNow().Sub(start)
				switch {
				case nr.Err == nil:
					if st.metrics != nil {
						st.metrics.NodeFinished(st.runID, info.Name, dur, "success")
					}
					st.observer.OnNodeSuccess(st.runID, info, dur)
					promise.Succeed(nr.Value)
				case decl.fallback != nil:
					if st.metrics != nil {
						st.metrics.NodeFinished(st.runID, info.Name, dur, "fallback")
						st.metrics.FallbackUsed(st.runID, info.Name)
					}
					st.observer.OnNodeFallback(st.runID, info, nr.Err)
					promise.Succeed(*decl.fallback)
				case st.wrapFailures:
					if st.metrics != nil {
						st.metrics.NodeFinished(st.runID, info.Name, dur, "error")
					}
					st.observer.OnNodeFailure(st.runID, info, nr.Err, dur)
					promise.Fail(st.wrap(decl, info, argFutures, nr.Err))
				default:
					if st.metrics != nil {
						st.metrics.NodeFinished(st.runID, info.Name, dur, "error")
					}
					st.observer.OnNodeFailure(st.runID, info, nr.Err, dur)
					promise.Fail(nr.Err)
				}
			})
		})
	})

	return out
}

func (st *traverseState) resolveBinding(ctx context.Context, b argSource) future.Future[any] {
	switch b.kind {
	case argNode:
		return st.resolve(ctx, b.decl)
	case argInput:
		if v, ok := st.bindingValues[b.inputID]; ok {
			return future.Immediate(v)
		}
		return future.ImmediateFailure[any](newTrickleException("unbound input %q", b.label))
	default:
		return future.ImmediateFailure[any](newTrickleException("unknown binding kind"))
	}
}

func (st *traverseState) infoOf(decl *declCore) NodeInfo {
	// infos is set once at Build time and never mutated afterward, so
	// reading it from concurrent resolve() calls needs no further locking.
	if info, ok := st.infos[decl]; ok {
		return *info
	}
	return NodeInfo{Name: decl.name, Kind: KindNode}
}

func (st *traverseState) wrap(failing *declCore, info NodeInfo, argFutures []future.Future[any], cause error) *GraphExecutionException {
	args, _ := resolvedValues(argFutures)
	return &GraphExecutionException{
		Node:    info,
		Args:    args,
		Cause:   cause,
		Calls:   st.completedCalls(failing),
		message: buildExceptionMessage(info, args),
	}
}

// timeNow is a thin indirection over time.Now so tests could swap it if
// deterministic timing were ever needed; production code always uses the
// real clock.
var timeNow = time.Now
