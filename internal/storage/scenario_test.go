package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymlog/internal/event"
	"gymlog/internal/shared"
)

// TestTrainingLogLifecycle walks a full workout through the data layer:
// account, session, exercises, sets, close, attempted late write, delete.
func TestTrainingLogLifecycle(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	u := ts.mustUser(t, "anna")

	sess, err := ts.sessions.Create(ctx, u.ID, "2026-03-01")
	require.NoError(t, err)

	squat, err := ts.exercises.Create(ctx, u.ID, sess.ID, "Squat")
	require.NoError(t, err)
	bench, err := ts.exercises.Create(ctx, u.ID, sess.ID, "Bench Press")
	require.NoError(t, err)

	_, err = ts.sets.Create(ctx, u.ID, squat.ID, 5, ptr(100.0))
	require.NoError(t, err)
	_, err = ts.sets.Create(ctx, u.ID, squat.ID, 3, ptr(110.0))
	require.NoError(t, err)
	warmup, err := ts.sets.Create(ctx, u.ID, bench.ID, 12, nil)
	require.NoError(t, err)

	// Drop the warm-up set, then review the session.
	_, err = ts.sets.Delete(ctx, u.ID, warmup.ID)
	require.NoError(t, err)

	detail, err := ts.sessions.Detail(ctx, u.ID, sess.ID)
	require.NoError(t, err)
	require.Len(t, detail.Exercises, 2)
	assert.Len(t, detail.Exercises[0].Sets, 2)
	assert.Empty(t, detail.Exercises[1].Sets)

	// Close the session; all further writes are rejected.
	_, err = ts.sessions.Close(ctx, u.ID, sess.ID)
	require.NoError(t, err)

	_, err = ts.exercises.Create(ctx, u.ID, sess.ID, "Deadlift")
	assert.True(t, shared.IsConflict(err))
	_, err = ts.sets.Create(ctx, u.ID, squat.ID, 5, nil)
	assert.True(t, shared.IsConflict(err))

	// The closed session still reads fine.
	detail, err = ts.sessions.Detail(ctx, u.ID, sess.ID)
	require.NoError(t, err)
	assert.True(t, detail.Closed)

	// Delete everything and verify the cascade.
	_, err = ts.sessions.Delete(ctx, u.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ts.db.CountRows(t, "exercises"))
	assert.Equal(t, 0, ts.db.CountRows(t, "sets"))

	_, err = ts.sessions.Detail(ctx, u.ID, sess.ID)
	assert.True(t, shared.IsNotFound(err))

	// The event trail matches the actions taken.
	assert.Len(t, ts.events.Named(event.SessionCreated), 1)
	assert.Len(t, ts.events.Named(event.ExerciseCreated), 2)
	assert.Len(t, ts.events.Named(event.SetCreated), 3)
	assert.Len(t, ts.events.Named(event.SetDeleted), 1)
	assert.Len(t, ts.events.Named(event.SessionClosed), 1)
	assert.Len(t, ts.events.Named(event.SessionDeleted), 1)
}
