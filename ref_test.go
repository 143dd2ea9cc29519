package tether

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Label and Closer are two unrelated capability views a Probe exposes
// at different offsets.
type Label struct {
	Name string
}

type Closer struct {
	Closed bool
}

// Probe is the test referent: a value with its own factory and a
// self-pointer that teardown clears, so reads through a stale address
// would be visible.
type Probe struct {
	Label
	Closer
	Value int
	self  *Probe
	fac   *Factory[Probe]
}

func newProbe(v int) *Probe {
	p := &Probe{Value: v}
	p.self = p
	p.fac = NewFactory(p)
	return p
}

// teardown is the referent's destruction path.
func (p *Probe) teardown() {
	p.fac.Invalidate()
	p.self = nil
}

// captureViolation runs fn and returns the *Violation it panicked
// with. Non-violation panics propagate.
func captureViolation(fn func()) (v *Violation) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var ok bool
		if v, ok = r.(*Violation); !ok {
			panic(r)
		}
	}()
	fn()
	return nil
}

// mustViolate asserts fn trips a fatal violation with the given code.
func mustViolate(t *testing.T, code ViolationCode, fn func()) {
	t.Helper()
	v := captureViolation(fn)
	require.NotNil(t, v, "expected a fatal %s violation", code)
	assert.Equal(t, code, v.Code)
}

func TestRef_FromFactory(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()

	assert.Same(t, p, r.Get())
	assert.Equal(t, 1, r.Get().Value)
	assert.Same(t, p, r.Get().self)
}

func TestRef_LivenessRoundTrip(t *testing.T) {
	p := newProbe(7)
	r := p.fac.Ref()

	// Every access before destruction resolves to the referent's
	// current address.
	for i := 0; i < 3; i++ {
		assert.Same(t, p, r.Get())
	}
	p.Value = 8
	assert.Equal(t, 8, r.Get().Value)
}

func TestRef_CanCloneAndMove(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()
	assert.Equal(t, 1, r.Get().Value)

	r2 := r.Clone()
	assert.Equal(t, 1, r2.Get().Value)
	assert.Equal(t, 1, r.Get().Value) // clone source stays valid

	r3 := r.Move()
	assert.Equal(t, 1, r3.Get().Value)
}

func TestRef_AssignCloneAndMove(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()

	p2 := newProbe(2)
	r2 := p2.fac.Ref()
	assert.NotSame(t, p2, r.Get())
	r = r2.Clone()
	assert.Same(t, p2, r.Get())

	p3 := newProbe(3)
	r3 := p3.fac.Ref()
	assert.NotSame(t, p3, r.Get())
	r = r3.Move()
	assert.Same(t, p3, r.Get())
}

func TestRef_AssignCloneAfterInvalidate(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()
	r2 := p.fac.Ref()

	{
		p2 := newProbe(2)
		r = p2.fac.Ref()
		p2.teardown()
	}
	// r is now stale (oops), but we won't use it in that state.
	// Assignment replaces state wholesale; it does not preserve
	// staleness.
	r = r2.Clone()
	assert.Same(t, p, r.Get())
}

func TestRef_AssignMoveAfterInvalidate(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()
	r2 := p.fac.Ref()

	{
		p2 := newProbe(2)
		r = p2.fac.Ref()
		p2.teardown()
	}
	r = r2.Move()
	assert.Same(t, p, r.Get())
}

func TestRef_GetFatalAfterDestroy(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()
	assert.Same(t, p, r.Get())

	p.teardown()
	mustViolate(t, CodeStaleUse, func() { r.Get() })
}

func TestRef_CloneFatalAfterDestroy(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()

	p.teardown()
	mustViolate(t, CodeStaleUse, func() { r.Clone() })
}

func TestRef_MoveFatalAfterDestroy(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()

	p.teardown()
	mustViolate(t, CodeStaleUse, func() { r.Move() })

	// The failed move still consumed the source: consumption is
	// independent of the liveness outcome.
	mustViolate(t, CodeConsumedUse, func() { r.Get() })
}

func TestRef_InvalidAfterMoveConstruction(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()
	r2 := r.Move()

	assert.Equal(t, 1, r2.Get().Value)

	// r was moved from, so every use of it is fatal now, even though
	// the referent is still alive.
	mustViolate(t, CodeConsumedUse, func() { r.Get() })
	mustViolate(t, CodeConsumedUse, func() { r.Clone() })
	mustViolate(t, CodeConsumedUse, func() { r.Move() })
	mustViolate(t, CodeConsumedUse, func() { CloneAs(r, func(p *Probe) *Label { return &p.Label }) })
	mustViolate(t, CodeConsumedUse, func() { MoveAs(&r, func(p *Probe) *Label { return &p.Label }) })
}

func TestRef_InvalidAfterMoveAssignment(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()
	r2 := p.fac.Ref()

	r2 = r.Move()
	assert.Equal(t, 1, r2.Get().Value)

	mustViolate(t, CodeConsumedUse, func() { r.Get() })
	mustViolate(t, CodeConsumedUse, func() { r.Clone() })
	mustViolate(t, CodeConsumedUse, func() { r.Move() })
}

func TestRef_CopyIndependentOfConsumption(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()
	r2 := r.Clone()

	// Consuming the clone leaves the original untouched.
	r3 := r2.Move()
	assert.Same(t, p, r.Get())
	assert.Same(t, p, r3.Get())
	mustViolate(t, CodeConsumedUse, func() { r2.Get() })
}

func TestRef_ZeroValueTrapsAsConsumed(t *testing.T) {
	var r Ref[Probe]
	mustViolate(t, CodeConsumedUse, func() { r.Get() })
	mustViolate(t, CodeConsumedUse, func() { r.Clone() })
	mustViolate(t, CodeConsumedUse, func() { r.Move() })
}

func TestRef_Same(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()
	r2 := p.fac.Ref()
	assert.True(t, r.Same(r2))

	p2 := newProbe(2)
	other := p2.fac.Ref()
	assert.False(t, r.Same(other))
}

func TestRef_DropIsIdempotentAndConsumes(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()

	r.Drop()
	r.Drop() // no-op
	mustViolate(t, CodeConsumedUse, func() { r.Get() })
}

func TestRef_ConsumedReportsBeforeStale(t *testing.T) {
	p := newProbe(1)
	r := p.fac.Ref()
	_ = r.Move()
	p.teardown()

	// The consumed check runs first: a ref that is both consumed and
	// stale reports CONSUMED_USE.
	mustViolate(t, CodeConsumedUse, func() { r.Get() })
}
