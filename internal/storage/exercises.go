package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gymlog/internal/domain"
	"gymlog/internal/event"
	"gymlog/internal/platform/sqlite"
	"gymlog/internal/shared"
)

// Exercises persists exercises within sessions.
type Exercises struct {
	db     *sqlite.Service
	events event.Sink
}

// NewExercises creates the exercise store.
func NewExercises(db *sqlite.Service, sink event.Sink) *Exercises {
	if sink == nil {
		sink = event.Discard
	}
	return &Exercises{db: db, events: sink}
}

// Create adds a named exercise to an open session owned by the user.
// A closed session rejects the write with a conflict.
func (s *Exercises) Create(ctx context.Context, userID, sessionID int64, name string) (domain.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Exercise{}, shared.Wrap(shared.ErrValidation, "exercise name is required")
	}

	var ex domain.Exercise
	err := s.db.WithinTx(ctx, func(ctx context.Context, q sqlite.Querier) error {
		sess, err := ownedSession(ctx, q, userID, sessionID)
		if err != nil {
			return err
		}
		if sess.Closed {
			return shared.Wrap(shared.ErrConflict, "session is closed")
		}

		res, err := q.ExecContext(ctx, `INSERT INTO exercises (session_id, name) VALUES (?, ?)`, sessionID, name)
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		ex = domain.Exercise{ID: id, SessionID: sessionID, Name: name}
		return nil
	})
	if err != nil {
		return domain.Exercise{}, err
	}

	emit(s.events, event.Event{Name: event.ExerciseCreated, UserID: userID, SessionID: sessionID, ExerciseID: ex.ID})
	return ex, nil
}

// Delete removes an exercise and cascades to its sets. The lookup is
// join-scoped through the owning session.
func (s *Exercises) Delete(ctx context.Context, userID, id int64) (domain.Exercise, error) {
	var ex domain.Exercise
	err := s.db.WithinTx(ctx, func(ctx context.Context, q sqlite.Querier) error {
		err := q.QueryRowContext(ctx,
			`SELECT e.id, e.session_id, e.name
			   FROM exercises e
			   JOIN sessions s ON s.id = e.session_id
			  WHERE e.id = ? AND s.user_id = ?`, id, userID).
			Scan(&ex.ID, &ex.SessionID, &ex.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return shared.Wrap(shared.ErrNotFound, "exercise not found")
		}
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id); err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		return nil
	})
	if err != nil {
		return domain.Exercise{}, err
	}

	emit(s.events, event.Event{Name: event.ExerciseDeleted, UserID: userID, SessionID: ex.SessionID, ExerciseID: id})
	return ex, nil
}
