package graph

import (
	"context"

	"github.com/dshills/dagflow/future"
)

// argKind distinguishes what fills an argument slot of a calling node.
type argKind int

const (
	argNode argKind = iota
	argInput
)

// argSource is the internal, type-erased representation of a Binding: the
// output of another declared node, or a Name to be supplied externally at
// run time.
type argSource struct {
	kind argKind

	// set when kind == argNode
	decl *declCore

	// set when kind == argInput
	inputID *nameIdentity
	label   string
}

// declCore is the internal, type-erased representation of a NodeDecl: a
// node together with its bindings, happens-after predecessors, optional
// fallback, and display name. It is mutable while a Builder accumulates
// declarations and is never mutated again once a Graph has been built from
// it.
type declCore struct {
	arity    int
	name     string
	bindings []argSource
	after    []*declCore
	fallback *any // nil if no fallback declared
	invoke   func(ctx context.Context, args []any) future.Future[any]
}

func newDeclCore(arity int) *declCore {
	return &declCore{arity: arity, name: "unnamed"}
}

// Binding is what occupies an argument slot of a calling node: the output
// of another declared node (From) or a named external input (Input).
type Binding[T any] interface {
	source() argSource
}

type graphRefBinding[T any] struct{ decl *declCore }

func (b graphRefBinding[T]) source() argSource {
	return argSource{kind: argNode, decl: b.decl}
}

type namedInputBinding[T any] struct{ name Name[T] }

func (b namedInputBinding[T]) source() argSource {
	return argSource{kind: argInput, inputID: b.name.identity(), label: b.name.label()}
}

// From binds an argument slot to the output of an already-declared node.
func From[T any](d *NodeDecl[T]) Binding[T] {
	return graphRefBinding[T]{decl: d.core}
}

// Input binds an argument slot to a Name to be supplied externally via
// Graph.Bind at run time.
func Input[T any](n Name[T]) Binding[T] {
	return namedInputBinding[T]{name: n}
}

// anyBinding adapts an already-built Binding[T] to Binding[any]: Go's
// generics are invariant, so a Binding[string] is not itself a
// Binding[any], even though every value it can produce satisfies any.
type anyBinding struct{ src argSource }

func (a anyBinding) source() argSource { return a.src }

// AsAny erases a typed Binding[T] into a Binding[any], for use as an
// argument to a Dynamic node.
func AsAny[T any](b Binding[T]) Binding[any] {
	return anyBinding{src: b.source()}
}

// Predecessor is anything that can be named in After(...): any declared
// node, regardless of its output type.
type Predecessor interface {
	predecessorDecl() *declCore
}

// NodeDecl is the public, typed handle to a declared node: it carries its
// output type R for type-safe use as a Binding[R] elsewhere (via From) and
// as an After(...) predecessor, while its structural data lives in the
// shared, type-erased *declCore.
type NodeDecl[R any] struct {
	core *declCore
}

func (d *NodeDecl[R]) predecessorDecl() *declCore { return d.core }

// Named sets the node's display name, used in diagnostics and error
// messages. Defaults to "unnamed".
func (d *NodeDecl[R]) Named(label string) *NodeDecl[R] {
	d.core.name = label
	return d
}

// After adds happens-after predecessors: ordering edges with no data flow.
func (d *NodeDecl[R]) After(preds ...Predecessor) *NodeDecl[R] {
	for _, p := range preds {
		d.core.after = append(d.core.after, p.predecessorDecl())
	}
	return d
}

// Fallback declares a substitute value for this node's own invocation
// failure. It does not cover a failure arriving from one of this node's
// dependencies (see DESIGN.md for the rationale).
func (d *NodeDecl[R]) Fallback(v R) *NodeDecl[R] {
	erased := any(v)
	d.core.fallback = &erased
	return d
}
