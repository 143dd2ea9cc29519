package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InMemory(t *testing.T) {
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	events, err := st.ReadEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestOpen_FileCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Reopen is idempotent.
	st, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, st.Close())
}

func TestWriteEvent_RoundTrip(t *testing.T) {
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	evs := []Event{
		{Seq: 1, Op: "create", ObjectID: "x", TokenID: "tok-1", Outcome: OutcomeOK},
		{Seq: 2, Op: "ref", RefID: "s", ObjectID: "x", TokenID: "tok-1", Outcome: OutcomeOK},
		{Seq: 3, Op: "destroy", ObjectID: "x", TokenID: "tok-1", Outcome: OutcomeOK},
		{Seq: 4, Op: "deref", RefID: "s", TokenID: "tok-1", Outcome: OutcomeFatal, Code: "STALE_USE"},
	}
	for _, ev := range evs {
		require.NoError(t, st.WriteEvent(ctx, ev))
	}

	got, err := st.ReadEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, evs, got)
}

func TestWriteEvent_DuplicateSeqIgnored(t *testing.T) {
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.WriteEvent(ctx, Event{Seq: 1, Op: "create", Outcome: OutcomeOK}))
	require.NoError(t, st.WriteEvent(ctx, Event{Seq: 1, Op: "clone", Outcome: OutcomeOK}))

	got, err := st.ReadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "create", got[0].Op)
}

func TestWriteEvent_RejectsBadOutcome(t *testing.T) {
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	err = st.WriteEvent(context.Background(), Event{Seq: 1, Op: "deref", Outcome: "maybe"})
	assert.Error(t, err)
}

func TestQuery_DirectSQL(t *testing.T) {
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.WriteEvent(ctx, Event{Seq: 1, Op: "deref", RefID: "s", Outcome: OutcomeOK}))
	require.NoError(t, st.WriteEvent(ctx, Event{Seq: 2, Op: "deref", RefID: "s", Outcome: OutcomeFatal, Code: "CONSUMED_USE"}))

	rows, err := st.Query(ctx, `SELECT COUNT(*) FROM events WHERE op = ? AND outcome = ?`, "deref", OutcomeFatal)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var count int
	require.NoError(t, rows.Scan(&count))
	assert.Equal(t, 1, count)
}
