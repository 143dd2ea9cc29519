package trace

import (
	"context"
	"fmt"
)

// Outcome values for an Event.
const (
	OutcomeOK    = "ok"
	OutcomeFatal = "fatal"
)

// Event is one recorded lifecycle operation.
type Event struct {
	// Seq is the deterministic sequence number of the operation.
	Seq int64 `json:"seq"`

	// Op is the operation name: create, destroy, ref, deref, clone,
	// move, upcast, drop.
	Op string `json:"op"`

	// RefID is the scenario-level id of the ref the operation targeted
	// (empty for object-level ops like create/destroy).
	RefID string `json:"ref_id,omitempty"`

	// ObjectID is the scenario-level id of the referent involved.
	ObjectID string `json:"object_id,omitempty"`

	// TokenID is the aliased liveness-token identity.
	TokenID string `json:"token_id,omitempty"`

	// Outcome is "ok" or "fatal".
	Outcome string `json:"outcome"`

	// Code is the violation code when Outcome is "fatal".
	Code string `json:"code,omitempty"`
}

// WriteEvent inserts an event row. Uses ON CONFLICT(seq) DO NOTHING
// for idempotency; other constraint violations still return errors.
func (s *Store) WriteEvent(ctx context.Context, ev Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (seq, op, ref_id, object_id, token_id, outcome, code)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		ev.Seq,
		ev.Op,
		ev.RefID,
		ev.ObjectID,
		ev.TokenID,
		ev.Outcome,
		ev.Code,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// ReadEvents returns all events ordered by seq.
func (s *Store) ReadEvents(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, op, ref_id, object_id, token_id, outcome, code
		FROM events
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Seq, &ev.Op, &ev.RefID, &ev.ObjectID, &ev.TokenID, &ev.Outcome, &ev.Code); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	return events, nil
}
