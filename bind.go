package tether

// Deferred-call binding. A safe reference captured into a deferred
// callable is cloned at capture time (so capturing from a consumed ref
// fails at the bind site, not later) and dereferenced with the full
// consumed-then-liveness check at each invocation. If the referent
// died between capture and invocation, the invocation is fatal; the
// callable never runs against a stale address and never silently
// skips.

// Bind captures r and returns a callable invoking fn with the
// referent. The returned callable may be invoked any number of times
// while the referent is alive.
func Bind[T any](fn func(*T), r Ref[T]) func() {
	captured := r.Clone()
	return func() {
		fn(captured.Get())
	}
}

// BindArg is Bind for callables taking one extra argument supplied at
// invocation time.
func BindArg[T, A any](fn func(*T, A), r Ref[T]) func(A) {
	captured := r.Clone()
	return func(a A) {
		fn(captured.Get(), a)
	}
}

// Once captures r and returns a single-shot callable. The capture is
// consumed on first invocation; invoking the callable a second time is
// a CONSUMED_USE violation, matching the primitive's own move
// semantics.
func Once[T any](fn func(*T), r Ref[T]) func() {
	captured := r.Clone()
	return func() {
		c := captured.Move()
		defer c.Drop()
		fn(c.Get())
	}
}
