package tether

// Factory mints safe references bound to one referent. The owner
// embeds or holds a Factory created with NewFactory(self) and calls
// Invalidate from its teardown path; from that point every ref minted
// earlier observes the referent as dead.
//
// One factory owns exactly one liveness token; every call to Ref
// before invalidation hands out a handle to that same token.
type Factory[T any] struct {
	tok *token
	obj *T
}

// NewFactory binds a new factory to obj. The factory holds the
// referent's address, not its lifetime; the caller still owns obj.
func NewFactory[T any](obj *T) *Factory[T] {
	if obj == nil {
		panic("tether: NewFactory with nil referent")
	}
	return &Factory[T]{tok: newToken(), obj: obj}
}

// Ref mints a valid safe reference to the referent. Fatal (STALE_USE)
// if the factory has been invalidated: minting is only legal on a live
// owner.
func (f *Factory[T]) Ref() Ref[T] {
	if !f.tok.alive {
		fail(CodeStaleUse, "Factory.Ref", f.tok.id)
	}
	f.tok.retain()
	return Ref[T]{tok: f.tok, ptr: f.obj}
}

// Invalidate marks the referent destroyed. Call it from the owner's
// teardown path, synchronously with the teardown itself. Idempotent;
// the dead state is final.
func (f *Factory[T]) Invalidate() {
	f.tok.kill()
}

// Alive reports whether the referent is still live. Read-only; for
// collaborators that gate work on liveness without dereferencing.
func (f *Factory[T]) Alive() bool {
	return f.tok.alive
}

// TokenID returns the liveness token's identity, for trace
// attribution and diagnostics.
func (f *Factory[T]) TokenID() string {
	return f.tok.id
}

// holders exposes the token's handle count to package tests.
func (f *Factory[T]) holders() int64 {
	return f.tok.holders
}
