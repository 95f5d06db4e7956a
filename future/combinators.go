package future

import "sync/atomic"

// Erase type-erases a Future[T] into a Future[any], so the engine can
// compose futures of heterogeneous node output types uniformly.
func Erase[T any](f Future[T]) Future[any] {
	p, out := NewPromise[any]()
	f.OnComplete(func(r Result[T]) {
		if r.Err != nil {
			p.Fail(r.Err)
			return
		}
		p.Succeed(r.Value)
	})
	return out
}

// AllOf composes deps into a single future that fails as soon as any one of
// them fails (others are left to settle independently, their results
// discarded) and succeeds with every value, in input order, once all have
// succeeded.
func AllOf(deps []Future[any]) Future[[]any] {
	if len(deps) == 0 {
		return Immediate[[]any](nil)
	}

	p, out := NewPromise[[]any]()
	results := make([]any, len(deps))
	remaining := int64(len(deps))
	var failed int32

	for i, dep := range deps {
		i := i
		dep.OnComplete(func(r Result[any]) {
			if r.Err != nil {
				if atomic.CompareAndSwapInt32(&failed, 0, 1) {
					p.Fail(r.Err)
				}
				return
			}
			results[i] = r.Value
			if atomic.AddInt64(&remaining, -1) == 0 && atomic.LoadInt32(&failed) == 0 {
				p.Succeed(results)
			}
		})
	}
	return out
}
