package storage

import (
	"context"
	"database/sql"
	"errors"

	"gymlog/internal/domain"
	"gymlog/internal/event"
	"gymlog/internal/platform/sqlite"
	"gymlog/internal/shared"
)

// Sets persists logged sets of exercises.
type Sets struct {
	db     *sqlite.Service
	events event.Sink
}

// NewSets creates the set store.
func NewSets(db *sqlite.Service, sink event.Sink) *Sets {
	if sink == nil {
		sink = event.Discard
	}
	return &Sets{db: db, events: sink}
}

// Create logs a set against an exercise. Ownership is checked transitively
// through the exercise's session; a closed session rejects the write.
func (s *Sets) Create(ctx context.Context, userID, exerciseID, reps int64, weight *float64) (domain.Set, error) {
	if reps <= 0 {
		return domain.Set{}, shared.Wrap(shared.ErrValidation, "reps must be a positive integer")
	}
	if weight != nil && *weight < 0 {
		return domain.Set{}, shared.Wrap(shared.ErrValidation, "weight must be non-negative")
	}

	var (
		set       domain.Set
		sessionID int64
	)
	err := s.db.WithinTx(ctx, func(ctx context.Context, q sqlite.Querier) error {
		var closed bool
		err := q.QueryRowContext(ctx,
			`SELECT e.session_id, s.closed
			   FROM exercises e
			   JOIN sessions s ON s.id = e.session_id
			  WHERE e.id = ? AND s.user_id = ?`, exerciseID, userID).
			Scan(&sessionID, &closed)
		if errors.Is(err, sql.ErrNoRows) {
			return shared.Wrap(shared.ErrNotFound, "exercise not found")
		}
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		if closed {
			return shared.Wrap(shared.ErrConflict, "session is closed")
		}

		res, err := q.ExecContext(ctx, `INSERT INTO sets (exercise_id, reps, weight) VALUES (?, ?, ?)`,
			exerciseID, reps, weight)
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		set = domain.Set{ID: id, ExerciseID: exerciseID, Reps: reps, Weight: weight}
		return nil
	})
	if err != nil {
		return domain.Set{}, err
	}

	emit(s.events, event.Event{Name: event.SetCreated, UserID: userID, SessionID: sessionID, ExerciseID: exerciseID, SetID: set.ID})
	return set, nil
}

// Delete removes a set. The lookup is join-scoped through the exercise and
// its owning session.
func (s *Sets) Delete(ctx context.Context, userID, id int64) (domain.Set, error) {
	var (
		set       domain.Set
		sessionID int64
	)
	err := s.db.WithinTx(ctx, func(ctx context.Context, q sqlite.Querier) error {
		err := q.QueryRowContext(ctx,
			`SELECT st.id, st.exercise_id, st.reps, st.weight, e.session_id
			   FROM sets st
			   JOIN exercises e ON e.id = st.exercise_id
			   JOIN sessions s ON s.id = e.session_id
			  WHERE st.id = ? AND s.user_id = ?`, id, userID).
			Scan(&set.ID, &set.ExerciseID, &set.Reps, &set.Weight, &sessionID)
		if errors.Is(err, sql.ErrNoRows) {
			return shared.Wrap(shared.ErrNotFound, "set not found")
		}
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM sets WHERE id = ?`, id); err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		return nil
	})
	if err != nil {
		return domain.Set{}, err
	}

	emit(s.events, event.Event{Name: event.SetDeleted, UserID: userID, SessionID: sessionID, ExerciseID: set.ExerciseID, SetID: id})
	return set, nil
}
