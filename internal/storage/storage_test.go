package storage

import (
	"context"
	"testing"

	"gymlog/internal/domain"
	"gymlog/internal/event"
	"gymlog/internal/platform/sqlite"
)

// newTestDB opens a migrated file-backed database. Migrations need a real
// file because the migration tool opens its own connection.
func newTestDB(t *testing.T) *sqlite.TestDB {
	t.Helper()
	tdb := sqlite.NewTestDBFile(t)
	tdb.ApplyTestMigrations(t, Migrations, MigrationsDir)
	return tdb
}

type testStores struct {
	db        *sqlite.TestDB
	users     *Users
	sessions  *Sessions
	exercises *Exercises
	sets      *Sets
	events    *event.Recorder
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	tdb := newTestDB(t)
	rec := &event.Recorder{}
	return &testStores{
		db:        tdb,
		users:     NewUsers(tdb.Service),
		sessions:  NewSessions(tdb.Service, rec),
		exercises: NewExercises(tdb.Service, rec),
		sets:      NewSets(tdb.Service, rec),
		events:    rec,
	}
}

func (ts *testStores) mustUser(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := ts.users.Create(context.Background(), username, "digest-"+username)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return u
}

func (ts *testStores) mustSession(t *testing.T, userID int64, date string) domain.Session {
	t.Helper()
	sess, err := ts.sessions.Create(context.Background(), userID, date)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return sess
}

func (ts *testStores) mustExercise(t *testing.T, userID, sessionID int64, name string) domain.Exercise {
	t.Helper()
	ex, err := ts.exercises.Create(context.Background(), userID, sessionID, name)
	if err != nil {
		t.Fatalf("Failed to create exercise: %v", err)
	}
	return ex
}

func (ts *testStores) mustSet(t *testing.T, userID, exerciseID, reps int64, weight *float64) domain.Set {
	t.Helper()
	set, err := ts.sets.Create(context.Background(), userID, exerciseID, reps, weight)
	if err != nil {
		t.Fatalf("Failed to create set: %v", err)
	}
	return set
}

func ptr[T any](v T) *T { return &v }
