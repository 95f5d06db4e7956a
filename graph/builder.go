package graph

import "sync"

// Builder accumulates node declarations and the external inputs a graph may
// reference, until Build freezes them into an immutable Graph. A Builder is
// mutable during construction; nothing about it survives into the Graph it
// produces except the validated, frozen declaration set.
type Builder struct {
	mu     sync.Mutex
	decls  []*declCore
	inputs map[*nameIdentity]string
}

// NewBuilder begins a fresh graph declaration.
func NewBuilder() *Builder {
	return &Builder{inputs: map[*nameIdentity]string{}}
}

// Inputs declares the external inputs this graph requires. Every
// NamedInput binding used by a node registered against this Builder must
// reference a Name declared here.
func (b *Builder) Inputs(names ...identified) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range names {
		b.inputs[n.identity()] = n.label()
	}
	return b
}

func (b *Builder) register(core *declCore) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decls = append(b.decls, core)
}

// Call0 begins an arity-0 NodeDecl.
func Call0[R any](b *Builder, node Node0[R]) *NodeDecl[R] {
	core := newDeclCore(0)
	core.invoke = erase0(node)
	b.register(core)
	return &NodeDecl[R]{core: core}
}

// call1Builder is the intermediate state of an arity-1 declaration, before
// With supplies its one argument binding.
type call1Builder[A, R any] struct {
	b    *Builder
	node Node1[A, R]
}

// Call1 begins an arity-1 NodeDecl; With must be called to supply its
// argument binding before the declaration is usable.
func Call1[A, R any](b *Builder, node Node1[A, R]) *call1Builder[A, R] {
	return &call1Builder[A, R]{b: b, node: node}
}

// With supplies the argument binding for an arity-1 node.
func (cb *call1Builder[A, R]) With(a Binding[A]) *NodeDecl[R] {
	core := newDeclCore(1)
	core.bindings = []argSource{a.source()}
	core.invoke = erase1(cb.node)
	cb.b.register(core)
	return &NodeDecl[R]{core: core}
}

type call2Builder[A, B, R any] struct {
	b    *Builder
	node Node2[A, B, R]
}

// Call2 begins an arity-2 NodeDecl.
func Call2[A, B, R any](b *Builder, node Node2[A, B, R]) *call2Builder[A, B, R] {
	return &call2Builder[A, B, R]{b: b, node: node}
}

// With supplies the argument bindings for an arity-2 node, in order.
func (cb *call2Builder[A, B, R]) With(a Binding[A], bb Binding[B]) *NodeDecl[R] {
	core := newDeclCore(2)
	core.bindings = []argSource{a.source(), bb.source()}
	core.invoke = erase2(cb.node)
	cb.b.register(core)
	return &NodeDecl[R]{core: core}
}

type call3Builder[A, B, C, R any] struct {
	b    *Builder
	node Node3[A, B, C, R]
}

// Call3 begins an arity-3 NodeDecl.
func Call3[A, B, C, R any](b *Builder, node Node3[A, B, C, R]) *call3Builder[A, B, C, R] {
	return &call3Builder[A, B, C, R]{b: b, node: node}
}

// With supplies the argument bindings for an arity-3 node, in order.
func (cb *call3Builder[A, B, C, R]) With(a Binding[A], bb Binding[B], c Binding[C]) *NodeDecl[R] {
	core := newDeclCore(3)
	core.bindings = []argSource{a.source(), bb.source(), c.source()}
	core.invoke = erase3(cb.node)
	cb.b.register(core)
	return &NodeDecl[R]{core: core}
}

// dynamicBuilder is the intermediate state of a Dynamic declaration, before
// With supplies its argument bindings.
type dynamicBuilder struct {
	b     *Builder
	arity int
	fn    DynamicFunc
}

// Dynamic declares a node whose arity is only known at build time: the
// single untyped escape hatch the distilled spec's design notes call for
// in languages without variadic generics. Unlike Call0..Call3, the number
// of bindings supplied via With is checked against arity at Build time
// rather than by the compiler.
func Dynamic(b *Builder, arity int, fn DynamicFunc) *dynamicBuilder {
	return &dynamicBuilder{b: b, arity: arity, fn: fn}
}

// With supplies the argument bindings for a Dynamic node. Any number of
// bindings may be supplied here, including a number that mismatches the
// declared arity; a mismatch fails Build with "Incorrect argument count".
func (db *dynamicBuilder) With(bindings ...Binding[any]) *NodeDecl[any] {
	core := newDeclCore(db.arity)
	core.bindings = make([]argSource, len(bindings))
	for i, bnd := range bindings {
		core.bindings[i] = bnd.source()
	}
	core.invoke = db.fn
	db.b.register(core)
	return &NodeDecl[any]{core: core}
}
