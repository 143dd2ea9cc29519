package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tether"
	"github.com/roach88/tether/internal/testutil"
	"github.com/roach88/tether/internal/trace"
)

// Result reports one scenario execution.
type Result struct {
	// Pass is true when every step matched its expectation and every
	// assertion held.
	Pass bool

	// Trace is the full event log, in seq order.
	Trace []trace.Event

	// Errors lists expectation mismatches and assertion failures.
	// Infrastructure problems (bad scenario wiring, store failures)
	// are returned by Run instead.
	Errors []error
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory trace store for
// isolation. A deterministic seq clock and token-id aliasing make the
// trace reproducible, so results can be compared against golden files.
//
// Fatal contract violations raised by the primitive are recovered and
// recorded as events with outcome "fatal"; a step whose expect clause
// declares the fatal outcome passes.
func Run(scenario *Scenario) (*Result, error) {
	st, err := trace.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory trace store: %w", err)
	}
	defer st.Close()

	run := &runState{
		ctx:      context.Background(),
		st:       st,
		clock:    testutil.NewSeqClock(),
		alias:    testutil.NewAliaser("tok"),
		objects:  make(map[string]*Widget),
		bindings: make(map[string]*binding),
	}

	result := &Result{}

	for _, obj := range scenario.Objects {
		if err := run.createObject(obj.ID, obj.Value, obj.Label); err != nil {
			return nil, err
		}
	}

	for i, step := range scenario.Flow {
		out, err := run.execStep(step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] (%s): %w", i, step.Op, err)
		}
		if stepErr := checkExpect(i, step, out); stepErr != nil {
			result.Errors = append(result.Errors, stepErr)
		}
	}

	for i, a := range scenario.Assertions {
		if err := run.evalAssertion(a); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("assertions[%d]: %w", i, err))
		}
	}

	result.Trace = run.trace
	result.Pass = len(result.Errors) == 0

	slog.Debug("scenario executed",
		"scenario", scenario.Name,
		"events", len(result.Trace),
		"pass", result.Pass)

	return result, nil
}

// binding is one named ref plus the provenance needed for trace
// attribution.
type binding struct {
	slot     slot
	objectID string
	tokenID  string // raw token id; aliased at record time
}

type runState struct {
	ctx      context.Context
	st       *trace.Store
	clock    *testutil.SeqClock
	alias    *testutil.Aliaser
	objects  map[string]*Widget
	tokens   map[string]string // object id -> raw token id
	bindings map[string]*binding
	trace    []trace.Event
}

// stepOutcome is what actually happened when a step executed.
type stepOutcome struct {
	outcome string
	code    string
	val     derefValue
	matched *bool // same_as result, when requested and the deref succeeded
}

func (r *runState) createObject(id string, value int64, label string) error {
	if _, exists := r.objects[id]; exists {
		return fmt.Errorf("object %q already exists", id)
	}
	w := newWidget(value, label)
	r.objects[id] = w
	if r.tokens == nil {
		r.tokens = make(map[string]string)
	}
	r.tokens[id] = w.fac.TokenID()
	return r.record(trace.Event{
		Op:       OpCreate,
		ObjectID: id,
		TokenID:  r.tokens[id],
		Outcome:  trace.OutcomeOK,
	})
}

func (r *runState) execStep(step Step) (stepOutcome, error) {
	switch step.Op {
	case OpCreate:
		if err := r.createObject(step.Object, step.Value, step.Label); err != nil {
			return stepOutcome{}, err
		}
		return stepOutcome{outcome: trace.OutcomeOK}, nil

	case OpDestroy:
		w, ok := r.objects[step.Object]
		if !ok {
			return stepOutcome{}, fmt.Errorf("unknown object %q", step.Object)
		}
		w.destroy()
		out := stepOutcome{outcome: trace.OutcomeOK}
		return out, r.record(trace.Event{
			Op:       OpDestroy,
			ObjectID: step.Object,
			TokenID:  r.tokens[step.Object],
			Outcome:  trace.OutcomeOK,
		})

	case OpRef:
		w, ok := r.objects[step.Object]
		if !ok {
			return stepOutcome{}, fmt.Errorf("unknown object %q", step.Object)
		}
		var s slot
		v := capture(func() {
			s = &widgetSlot{ref: w.fac.Ref()}
		})
		out := outcomeOf(v)
		if v == nil {
			r.bindings[step.To] = &binding{slot: s, objectID: step.Object, tokenID: r.tokens[step.Object]}
		}
		return out, r.record(trace.Event{
			Op:       OpRef,
			RefID:    step.To,
			ObjectID: step.Object,
			TokenID:  r.tokens[step.Object],
			Outcome:  out.outcome,
			Code:     out.code,
		})

	case OpDeref:
		b, ok := r.bindings[step.Ref]
		if !ok {
			return stepOutcome{}, fmt.Errorf("unknown ref %q", step.Ref)
		}
		var sameAs *Widget
		if step.Expect != nil && step.Expect.SameAs != "" {
			if sameAs, ok = r.objects[step.Expect.SameAs]; !ok {
				return stepOutcome{}, fmt.Errorf("unknown object %q in same_as", step.Expect.SameAs)
			}
		}
		var out stepOutcome
		v := capture(func() {
			out.val = b.slot.deref()
			if sameAs != nil {
				m := b.slot.matches(sameAs)
				out.matched = &m
			}
		})
		o := outcomeOf(v)
		out.outcome, out.code = o.outcome, o.code
		return out, r.recordRefOp(OpDeref, step.Ref, b, out)

	case OpClone:
		return r.execTransfer(step, func(b *binding) (slot, error) { return b.slot.clone(), nil })

	case OpMove:
		return r.execTransfer(step, func(b *binding) (slot, error) { return b.slot.move(), nil })

	case OpUpcast:
		return r.execTransfer(step, func(b *binding) (slot, error) { return b.slot.upcast(step.Mode) })

	case OpDrop:
		b, ok := r.bindings[step.Ref]
		if !ok {
			return stepOutcome{}, fmt.Errorf("unknown ref %q", step.Ref)
		}
		v := capture(func() { b.slot.drop() })
		out := outcomeOf(v)
		return out, r.recordRefOp(OpDrop, step.Ref, b, out)

	default:
		return stepOutcome{}, fmt.Errorf("unknown op %q", step.Op)
	}
}

// execTransfer covers clone, move, and upcast: ops that read a source
// binding and, on success, write a destination binding. A fatal
// transfer leaves the destination untouched; a fatal move still leaves
// the source consumed.
func (r *runState) execTransfer(step Step, produce func(*binding) (slot, error)) (stepOutcome, error) {
	b, ok := r.bindings[step.Ref]
	if !ok {
		return stepOutcome{}, fmt.Errorf("unknown ref %q", step.Ref)
	}
	var s slot
	var perr error
	v := capture(func() { s, perr = produce(b) })
	if v == nil && perr != nil {
		return stepOutcome{}, perr
	}
	out := outcomeOf(v)
	if v == nil {
		r.bindings[step.To] = &binding{slot: s, objectID: b.objectID, tokenID: b.tokenID}
	}
	return out, r.recordRefOp(step.Op, step.Ref, b, out)
}

func (r *runState) recordRefOp(op, refID string, b *binding, out stepOutcome) error {
	return r.record(trace.Event{
		Op:       op,
		RefID:    refID,
		ObjectID: b.objectID,
		TokenID:  b.tokenID,
		Outcome:  out.outcome,
		Code:     out.code,
	})
}

func (r *runState) record(ev trace.Event) error {
	ev.Seq = r.clock.Next()
	ev.TokenID = r.alias.Alias(ev.TokenID)
	if err := r.st.WriteEvent(r.ctx, ev); err != nil {
		return err
	}
	r.trace = append(r.trace, ev)
	return nil
}

// capture runs fn and returns the contract violation it panicked with,
// or nil. Other panics propagate: the harness only expects the
// primitive's own fatal channel.
func capture(fn func()) (v *tether.Violation) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var ok bool
		if v, ok = r.(*tether.Violation); !ok {
			panic(r)
		}
	}()
	fn()
	return nil
}

func outcomeOf(v *tether.Violation) stepOutcome {
	if v == nil {
		return stepOutcome{outcome: trace.OutcomeOK}
	}
	return stepOutcome{outcome: trace.OutcomeFatal, code: string(v.Code)}
}

// checkExpect compares a step's actual outcome against its expect
// clause. A nil expect clause performs no validation.
func checkExpect(i int, step Step, out stepOutcome) error {
	e := step.Expect
	if e == nil {
		return nil
	}

	if out.outcome != e.Outcome {
		return fmt.Errorf("flow[%d] (%s %s): expected outcome %s, got %s %s",
			i, step.Op, step.Ref, e.Outcome, out.outcome, out.code)
	}
	if e.Outcome == trace.OutcomeFatal && out.code != e.Code {
		return fmt.Errorf("flow[%d] (%s %s): expected code %s, got %s",
			i, step.Op, step.Ref, e.Code, out.code)
	}
	if e.Value != nil {
		if out.val.value == nil {
			return fmt.Errorf("flow[%d] (%s %s): expected value %d but the ref is not a widget view",
				i, step.Op, step.Ref, *e.Value)
		}
		if *out.val.value != *e.Value {
			return fmt.Errorf("flow[%d] (%s %s): expected value %d, got %d",
				i, step.Op, step.Ref, *e.Value, *out.val.value)
		}
	}
	if e.Label != nil {
		if out.val.label == nil {
			return fmt.Errorf("flow[%d] (%s %s): expected label %q but the ref is not a plate view",
				i, step.Op, step.Ref, *e.Label)
		}
		if *out.val.label != *e.Label {
			return fmt.Errorf("flow[%d] (%s %s): expected label %q, got %q",
				i, step.Op, step.Ref, *e.Label, *out.val.label)
		}
	}
	if e.SameAs != "" {
		if out.matched == nil {
			return fmt.Errorf("flow[%d] (%s %s): same_as requires a successful deref",
				i, step.Op, step.Ref)
		}
		if !*out.matched {
			return fmt.Errorf("flow[%d] (%s %s): ref does not resolve to object %q",
				i, step.Op, step.Ref, e.SameAs)
		}
	}

	return nil
}
