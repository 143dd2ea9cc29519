package tether

import (
	"errors"
	"fmt"
)

// Violation reports a fatal misuse of a safe reference.
//
// Exactly two conditions exist:
//   - Consumed use: operating on a ref already used as the source of a
//     Move, or on a ref never minted at all (the zero Ref traps the
//     same way).
//   - Stale use: operating on a ref whose referent has been destroyed.
//
// Both are programmer errors. Violations are never returned; they are
// delivered to the violation handler, which must not resume the
// program. The default handler panics with the *Violation.
type Violation struct {
	// Code identifies which contract was broken.
	Code ViolationCode

	// Op names the operation that tripped the check (e.g. "Get",
	// "Clone", "Factory.Ref").
	Op string

	// TokenID identifies the liveness token, when one was reachable.
	// Consumed refs have no token, so the field is empty for
	// CONSUMED_USE.
	TokenID string
}

// ViolationCode categorizes contract violations.
type ViolationCode string

const (
	// CodeConsumedUse indicates an operation on a ref consumed by a
	// prior Move. Consumption is permanent and independent of whether
	// the referent is still alive.
	CodeConsumedUse ViolationCode = "CONSUMED_USE"

	// CodeStaleUse indicates an operation on a ref whose referent has
	// been destroyed.
	CodeStaleUse ViolationCode = "STALE_USE"
)

// Error implements the error interface. The two messages are distinct
// and stable so harnesses can assert on which condition fired.
func (v *Violation) Error() string {
	switch v.Code {
	case CodeConsumedUse:
		return fmt.Sprintf("%s: %s on a consumed safe reference", v.Code, v.Op)
	case CodeStaleUse:
		return fmt.Sprintf("%s: %s but referent is no longer live (token=%s)", v.Code, v.Op, v.TokenID)
	default:
		return fmt.Sprintf("%s: %s", v.Code, v.Op)
	}
}

// IsConsumedUse reports whether err is a CONSUMED_USE violation.
// Uses errors.As to handle wrapped errors.
func IsConsumedUse(err error) bool {
	var v *Violation
	return errors.As(err, &v) && v.Code == CodeConsumedUse
}

// IsStaleUse reports whether err is a STALE_USE violation.
// Uses errors.As to handle wrapped errors.
func IsStaleUse(err error) bool {
	var v *Violation
	return errors.As(err, &v) && v.Code == CodeStaleUse
}

// handler receives violations before the panic. Nil means default
// behavior (panic only).
var handler func(*Violation)

// SetViolationHandler installs h as the contract-violation hook and
// returns the previous hook (nil for the default).
//
// The hook exists to map violations onto a program's native
// unrecoverable-failure mechanism (os.Exit after logging, a trapped
// invariant, a crash reporter). It must not resume normal control
// flow: if it returns, the primitive panics anyway, because the
// violated operation has no value to produce.
func SetViolationHandler(h func(*Violation)) func(*Violation) {
	prev := handler
	handler = h
	return prev
}

// fail delivers a violation and never returns.
func fail(code ViolationCode, op, tokenID string) {
	v := &Violation{Code: code, Op: op, TokenID: tokenID}
	if handler != nil {
		handler(v)
	}
	panic(v)
}
