package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymlog/internal/shared"
)

func TestUsersCreate(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	u, err := ts.users.Create(ctx, "pavel", "digest")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "pavel", u.Username)
}

func TestUsersCreateDuplicateUsername(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()
	ts.mustUser(t, "pavel")

	_, err := ts.users.Create(ctx, "pavel", "other-digest")
	assert.True(t, shared.IsConflict(err), "expected conflict, got %v", err)
	assert.Equal(t, 1, ts.db.CountRows(t, "users"))
}

func TestUsersCreateValidation(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	_, err := ts.users.Create(ctx, "", "digest")
	assert.True(t, shared.IsValidation(err))

	_, err = ts.users.Create(ctx, "pavel", "")
	assert.True(t, shared.IsValidation(err))
}

func TestUsersLookup(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()
	created := ts.mustUser(t, "anna")

	byName, err := ts.users.ByUsername(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "digest-anna", byName.Password)

	byID, err := ts.users.ByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", byID.Username)

	_, err = ts.users.ByUsername(ctx, "nobody")
	assert.True(t, shared.IsNotFound(err))

	_, err = ts.users.ByID(ctx, 999)
	assert.True(t, shared.IsNotFound(err))
}

func TestUsersUpdatePassword(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()
	u := ts.mustUser(t, "anna")

	require.NoError(t, ts.users.UpdatePassword(ctx, u.ID, "new-digest"))

	reloaded, err := ts.users.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-digest", reloaded.Password)

	err = ts.users.UpdatePassword(ctx, 999, "new-digest")
	assert.True(t, shared.IsNotFound(err))

	err = ts.users.UpdatePassword(ctx, u.ID, "")
	assert.True(t, shared.IsValidation(err))
}

func TestUsersDeleteRemovesOwnedData(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	u := ts.mustUser(t, "anna")
	keeper := ts.mustUser(t, "boris")

	sess := ts.mustSession(t, u.ID, "2026-01-10")
	ex := ts.mustExercise(t, u.ID, sess.ID, "Squat")
	ts.mustSet(t, u.ID, ex.ID, 5, ptr(100.0))

	keeperSess := ts.mustSession(t, keeper.ID, "2026-01-11")

	require.NoError(t, ts.users.Delete(ctx, u.ID))

	assert.Equal(t, 1, ts.db.CountRows(t, "users"))
	assert.Equal(t, 1, ts.db.CountRows(t, "sessions"))
	assert.Equal(t, 0, ts.db.CountRows(t, "exercises"))
	assert.Equal(t, 0, ts.db.CountRows(t, "sets"))

	// Other accounts keep their data.
	_, err := ts.sessions.Detail(ctx, keeper.ID, keeperSess.ID)
	assert.NoError(t, err)
}

func TestUsersDeleteMissing(t *testing.T) {
	ts := newTestStores(t)
	err := ts.users.Delete(context.Background(), 42)
	assert.True(t, shared.IsNotFound(err))
}

func TestUsersCount(t *testing.T) {
	ts := newTestStores(t)
	ctx := context.Background()

	n, err := ts.users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	ts.mustUser(t, "anna")
	ts.mustUser(t, "boris")

	n, err = ts.users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
