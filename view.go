package tether

// Capability views reinterpret a Ref[T] as a Ref[B] for one of the
// referent's supertypes. A referent can expose several unrelated
// supertypes at different offsets (embedded structs), so each view is
// an independent conversion: the referent's type supplies a per-
// supertype adjustment function, and the adjusted address is computed
// exactly once, at conversion time.
//
// The view shares the original's liveness token unchanged. It is an
// adjustment of view, never a distinct ownership relationship:
// destroying the referent kills every view at once.

// CloneAs produces a Ref[B] viewing the same referent through view,
// sharing r's liveness token. Copy rules apply: fatal if r is consumed
// or stale, and r stays valid afterwards.
func CloneAs[B, T any](r Ref[T], view func(*T) *B) Ref[B] {
	r.check("CloneAs")
	r.tok.retain()
	return Ref[B]{tok: r.tok, ptr: view(r.ptr)}
}

// MoveAs transfers r into a Ref[B] viewing the same referent through
// view. Move rules apply: r is consumed regardless of the liveness
// outcome.
func MoveAs[B, T any](r *Ref[T], view func(*T) *B) Ref[B] {
	tok, ptr := r.tok, r.ptr
	if tok == nil {
		fail(CodeConsumedUse, "MoveAs", "")
	}
	r.tok, r.ptr = nil, nil
	if !tok.alive {
		fail(CodeStaleUse, "MoveAs", tok.id)
	}
	return Ref[B]{tok: tok, ptr: view(ptr)}
}
