package tether

import "github.com/google/uuid"

// token is the liveness control block shared by every Ref minted from
// one Factory. It records whether the referent is still alive and
// carries a holder count: the count never goes negative and the block
// is never reused while a handle can still reach it. The count does
// not keep the referent alive; the referent's owner controls that
// entirely.
//
// Tokens are read-only to Ref. The only mutation after construction is
// kill(), called from the referent's teardown path, and the transition
// to dead is one-way.
//
// No locking: liveness is a single-goroutine discipline (see package
// doc).
type token struct {
	// id is a UUIDv7, time-sortable for trace attribution.
	id      string
	alive   bool
	holders int64
}

func newToken() *token {
	return &token{
		id:    uuid.Must(uuid.NewV7()).String(),
		alive: true,
	}
}

// retain records one more outstanding handle.
func (t *token) retain() {
	t.holders++
}

// release records a dropped handle. The count never goes below zero,
// even on a double release.
func (t *token) release() {
	if t.holders > 0 {
		t.holders--
	}
}

// kill marks the referent dead. Idempotent; the dead state is final.
func (t *token) kill() {
	t.alive = false
}
