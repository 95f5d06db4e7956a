package graph

// nameIdentity is the identity behind a Name[T]: two Names sharing a label
// are still distinct slots unless they share a *nameIdentity. Comparing
// pointers, not labels, is what makes Name identity-keyed rather than
// label-keyed.
type nameIdentity struct {
	label string
}

// identified is implemented by any Name[T] regardless of T, so the builder
// can accept a heterogeneous list of inputs (Inputs(a, b, c) where a, b, c
// bind to different types).
type identified interface {
	identity() *nameIdentity
	label() string
}

// Name is an externally-bindable, typed input slot identified by a
// human-readable label and a declared value type. Identity, not label, is
// the key: two Names constructed separately with the same label are
// distinct slots.
type Name[T any] struct {
	id *nameIdentity
}

// NewName declares a fresh, uniquely-identified input slot with the given
// display label.
func NewName[T any](label string) Name[T] {
	return Name[T]{id: &nameIdentity{label: label}}
}

// Label returns the Name's display label.
func (n Name[T]) Label() string { return n.id.label }

func (n Name[T]) identity() *nameIdentity { return n.id }
func (n Name[T]) label() string           { return n.id.label }
