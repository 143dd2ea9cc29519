// Package tether provides a liveness-checked safe reference: a handle
// that behaves like a plain pointer while the referent is alive, and
// that fails loudly, never silently, the moment it is misused.
//
// A Ref[T] is minted only from a Factory[T] bound to the referent. The
// factory owns a shared liveness token; every Ref minted from the same
// factory (directly or via Clone, Move, CloneAs, MoveAs) observes the
// same token. When the referent's teardown path calls
// Factory.Invalidate, the token goes dead and stays dead.
//
// Every dereferencing operation checks two things, in order: that the
// ref has not been consumed by a prior Move, and that the token is
// still live. Either check failing is a contract violation, not an
// error to handle: the default handler panics with a *Violation whose
// code distinguishes CONSUMED_USE from STALE_USE. There is no
// try-variant and no recoverable path; correct programs never trip
// either check.
//
// # Usage
//
//	type Server struct {
//	    fac *tether.Factory[Server]
//	}
//
//	srv := &Server{}
//	srv.fac = tether.NewFactory(srv)
//
//	r := srv.fac.Ref()
//	r.Get().Handle(req)     // plain pointer while srv is alive
//
//	srv.fac.Invalidate()    // teardown
//	r.Get()                 // fatal: STALE_USE
//
// # Ownership
//
// A Ref never extends the referent's lifetime. The liveness token is a
// separate control block with its own holder count; the referent is
// created and destroyed entirely by its owner.
//
// # Concurrency
//
// Liveness semantics are single-goroutine: the token performs no
// locking, and a token killed on one goroutine is not guaranteed
// visible to checks on another without external synchronization.
package tether
