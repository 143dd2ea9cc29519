package tether

// Ref is a safe reference to a value of type T. It holds a handle to
// the liveness token and the referent's address, frozen at
// construction. The address is never re-derived: every access is a
// boolean liveness check plus the frozen pointer.
//
// A Ref is in one of two states:
//   - valid: token handle present, usable.
//   - consumed: used as the source of a Move (or zero-valued / dropped).
//     Every operation on a consumed ref is fatal, forever, even if the
//     referent is still alive.
//
// Clone is the checked copy and Move is the checked transfer; both
// verify the source is valid and live before producing the new ref.
// Assigning the result over an existing variable replaces its state
// wholesale, so a variable holding a stale ref becomes usable again
// when a valid ref is assigned into it.
//
// A raw struct copy (r2 := r) shares the token but duplicates the
// handle without a check or a retain, the same hole a memcpy would
// open; use Clone.
type Ref[T any] struct {
	tok *token
	ptr *T
}

// Get dereferences the ref, returning the frozen address as a plain
// pointer. Fatal if the ref is consumed or the referent has been
// destroyed; never returns nil.
func (r Ref[T]) Get() *T {
	r.check("Get")
	return r.ptr
}

// Clone produces a second valid ref sharing the same liveness token.
// Fatal if r is consumed or stale. The clone is independent: consuming
// it later does not affect r.
func (r Ref[T]) Clone() Ref[T] {
	r.check("Clone")
	r.tok.retain()
	return Ref[T]{tok: r.tok, ptr: r.ptr}
}

// Move transfers the token handle and address into the returned ref
// and marks r consumed. Consumption happens regardless of the liveness
// outcome: even when the liveness check then fails fatally, r is
// already unusable forever.
func (r *Ref[T]) Move() Ref[T] {
	tok, ptr := r.tok, r.ptr
	if tok == nil {
		fail(CodeConsumedUse, "Move", "")
	}
	r.tok, r.ptr = nil, nil
	if !tok.alive {
		fail(CodeStaleUse, "Move", tok.id)
	}
	return Ref[T]{tok: tok, ptr: ptr}
}

// Drop releases the ref's handle on the liveness token and leaves the
// ref consumed. Calling Drop is optional (the garbage collector owns
// the token's storage) but keeps the token's holder count exact.
// Idempotent; never fatal.
func (r *Ref[T]) Drop() {
	if r.tok == nil {
		return
	}
	r.tok.release()
	r.tok, r.ptr = nil, nil
}

// Same reports whether r and o resolve to the same address. Both refs
// are fully checked first. Address comparison is for tests and
// diagnostics only; it says nothing about liveness.
func (r Ref[T]) Same(o Ref[T]) bool {
	return r.Get() == o.Get()
}

// check asserts the consumed flag is unset, then that the token is
// live. Order matters: a consumed ref reports CONSUMED_USE even when
// its former referent is long gone.
func (r Ref[T]) check(op string) {
	if r.tok == nil {
		fail(CodeConsumedUse, op, "")
	}
	if !r.tok.alive {
		fail(CodeStaleUse, op, r.tok.id)
	}
}
