package harness

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/tether/internal/trace"
)

// validIdentifier matches valid column names for final_state queries.
// Only allows alphanumeric and underscore, must start with letter or
// underscore. This prevents SQL injection via identifier
// interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// eventColumns whitelists the queryable columns of the events table.
var eventColumns = map[string]bool{
	"seq":       true,
	"op":        true,
	"ref_id":    true,
	"object_id": true,
	"token_id":  true,
	"outcome":   true,
	"code":      true,
}

// AssertionError is returned when an assertion fails. It includes the
// full trace to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []trace.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s ref=%s object=%s %s %s\n",
			ev.Seq, ev.Op, ev.RefID, ev.ObjectID, ev.Outcome, ev.Code)
	}

	return buf.String()
}

func (r *runState) evalAssertion(a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return r.assertTraceContains(a)
	case AssertTraceOrder:
		return r.assertTraceOrder(a)
	case AssertTraceCount:
		return r.assertTraceCount(a)
	case AssertFinalState:
		return r.assertFinalState(a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks the trace has an event matching every
// filter the assertion sets (subset semantics).
func (r *runState) assertTraceContains(a Assertion) error {
	for _, ev := range r.trace {
		if matchEvent(ev, a) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event matching op=%s ref=%s outcome=%s code=%s", a.Op, a.Ref, a.Outcome, a.Code),
		Actual:   "not found in trace",
		Trace:    r.trace,
	}
}

func matchEvent(ev trace.Event, a Assertion) bool {
	if a.Op != "" && ev.Op != a.Op {
		return false
	}
	if a.Ref != "" && ev.RefID != a.Ref {
		return false
	}
	if a.Outcome != "" && ev.Outcome != a.Outcome {
		return false
	}
	if a.Code != "" && ev.Code != a.Code {
		return false
	}
	return true
}

// assertTraceOrder checks ops appear in the given order. Ops don't
// need to be consecutive; intervening events are allowed.
func (r *runState) assertTraceOrder(a Assertion) error {
	// First position of each expected op.
	positions := make(map[string]int)
	for i, ev := range r.trace {
		for _, op := range a.Ops {
			if ev.Op == op {
				if _, seen := positions[op]; !seen {
					positions[op] = i + 1 // 1-indexed for readability
				}
			}
		}
	}

	for _, op := range a.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", a.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    r.trace,
			}
		}
	}

	for i := 1; i < len(a.Ops); i++ {
		prev, curr := a.Ops[i-1], a.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", a.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: r.trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks the op appears exactly the specified number
// of times (filtered by outcome when set).
func (r *runState) assertTraceCount(a Assertion) error {
	count := 0
	for _, ev := range r.trace {
		if ev.Op == a.Op && (a.Outcome == "" || ev.Outcome == a.Outcome) {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("op %s (outcome=%s) appears %d times", a.Op, a.Outcome, a.Count),
			Actual:   fmt.Sprintf("appears %d times", count),
			Trace:    r.trace,
		}
	}

	return nil
}

// assertFinalState queries the events table for the last (highest seq)
// row matching the where filters and verifies the expected column
// values (subset match).
func (r *runState) assertFinalState(a Assertion) error {
	if len(a.Where) == 0 {
		return fmt.Errorf("final_state: where is required")
	}
	var conds []string
	var args []any
	for col, val := range a.Where {
		if !validIdentifier.MatchString(col) || !eventColumns[col] {
			return fmt.Errorf("final_state: invalid where column %q", col)
		}
		conds = append(conds, col+" = ?")
		args = append(args, fmt.Sprint(val))
	}
	for col := range a.Expect {
		if !validIdentifier.MatchString(col) || !eventColumns[col] {
			return fmt.Errorf("final_state: invalid expect column %q", col)
		}
	}

	query := `
		SELECT seq, op, ref_id, object_id, token_id, outcome, code
		FROM events
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY seq DESC
		LIMIT 1`

	rows, err := r.st.Query(r.ctx, query, args...)
	if err != nil {
		return fmt.Errorf("final_state query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("final_state query: %w", err)
		}
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("an event matching %v", a.Where),
			Actual:   "no matching events",
			Trace:    r.trace,
		}
	}

	var ev trace.Event
	if err := rows.Scan(&ev.Seq, &ev.Op, &ev.RefID, &ev.ObjectID, &ev.TokenID, &ev.Outcome, &ev.Code); err != nil {
		return fmt.Errorf("final_state scan: %w", err)
	}

	for col, want := range a.Expect {
		got := eventColumn(ev, col)
		if fmt.Sprint(want) != got {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %v (where %v)", col, want, a.Where),
				Actual:   fmt.Sprintf("%s = %s", col, got),
				Trace:    r.trace,
			}
		}
	}

	return nil
}

// eventColumn resolves a whitelisted column name to its value on ev.
func eventColumn(ev trace.Event, col string) string {
	switch col {
	case "seq":
		return fmt.Sprint(ev.Seq)
	case "op":
		return ev.Op
	case "ref_id":
		return ev.RefID
	case "object_id":
		return ev.ObjectID
	case "token_id":
		return ev.TokenID
	case "outcome":
		return ev.Outcome
	case "code":
		return ev.Code
	default:
		return ""
	}
}
