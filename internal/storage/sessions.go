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

const sessionColumns = "id, user_id, date, closed, activity, duration"

// Sessions persists training sessions.
type Sessions struct {
	db     *sqlite.Service
	events event.Sink
}

// NewSessions creates the session store.
func NewSessions(db *sqlite.Service, sink event.Sink) *Sessions {
	if sink == nil {
		sink = event.Discard
	}
	return &Sessions{db: db, events: sink}
}

func scanSession(sc interface{ Scan(dest ...any) error }, s *domain.Session) error {
	return sc.Scan(&s.ID, &s.UserID, &s.Date, &s.Closed, &s.Activity, &s.Duration)
}

// List returns the user's sessions, newest first. The result is never nil.
func (s *Sessions) List(ctx context.Context, userID int64) ([]domain.Session, error) {
	out := []domain.Session{}
	err := s.db.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? ORDER BY date DESC, id DESC`,
		func(rows *sql.Rows) error {
			for rows.Next() {
				var sess domain.Session
				if err := scanSession(rows, &sess); err != nil {
					return err
				}
				out = append(out, sess)
			}
			return rows.Err()
		}, userID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts an open session for the given date.
func (s *Sessions) Create(ctx context.Context, userID int64, date string) (domain.Session, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return domain.Session{}, shared.Wrap(shared.ErrValidation, "date is required")
	}

	res, err := s.db.Execute(ctx, `INSERT INTO sessions (user_id, date) VALUES (?, ?)`, userID, date)
	if err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{ID: res.LastInsertID, UserID: userID, Date: date}
	emit(s.events, event.Event{Name: event.SessionCreated, UserID: userID, SessionID: sess.ID})
	return sess, nil
}

// Detail returns a session with its exercises and their sets nested.
// The reads run on a single connection inside a transaction, so the
// nested view is a consistent snapshot. Sets of all exercises are
// fetched in one batched statement.
func (s *Sessions) Detail(ctx context.Context, userID, id int64) (domain.SessionDetail, error) {
	var detail domain.SessionDetail

	err := s.db.WithinTx(ctx, func(ctx context.Context, q sqlite.Querier) error {
		sess, err := ownedSession(ctx, q, userID, id)
		if err != nil {
			return err
		}
		detail.Session = sess
		detail.Exercises = []domain.ExerciseDetail{}

		rows, err := q.QueryContext(ctx,
			`SELECT id, session_id, name FROM exercises WHERE session_id = ? ORDER BY id`, id)
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		for rows.Next() {
			var ex domain.Exercise
			if err := rows.Scan(&ex.ID, &ex.SessionID, &ex.Name); err != nil {
				_ = rows.Close()
				return shared.MarkKind(err, shared.KindQuery)
			}
			detail.Exercises = append(detail.Exercises, domain.ExerciseDetail{Exercise: ex, Sets: []domain.Set{}})
		}
		if err := rows.Err(); err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}

		if len(detail.Exercises) == 0 {
			return nil
		}

		index := make(map[int64]int, len(detail.Exercises))
		args := make([]any, 0, len(detail.Exercises))
		for i, ex := range detail.Exercises {
			index[ex.ID] = i
			args = append(args, ex.ID)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")

		rows, err = q.QueryContext(ctx,
			`SELECT id, exercise_id, reps, weight FROM sets WHERE exercise_id IN (`+placeholders+`) ORDER BY id`,
			args...)
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		for rows.Next() {
			var set domain.Set
			if err := rows.Scan(&set.ID, &set.ExerciseID, &set.Reps, &set.Weight); err != nil {
				_ = rows.Close()
				return shared.MarkKind(err, shared.KindQuery)
			}
			i := index[set.ExerciseID]
			detail.Exercises[i].Sets = append(detail.Exercises[i].Sets, set)
		}
		if err := rows.Err(); err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		return nil
	})
	if err != nil {
		return domain.SessionDetail{}, err
	}

	emit(s.events, event.Event{Name: event.SessionAccessed, UserID: userID, SessionID: id})
	return detail, nil
}

// Close marks a session closed. Closing is one-way; closing an already
// closed session succeeds without effect.
func (s *Sessions) Close(ctx context.Context, userID, id int64) (domain.Session, error) {
	var sess domain.Session
	err := s.db.WithinTx(ctx, func(ctx context.Context, q sqlite.Querier) error {
		var err error
		sess, err = ownedSession(ctx, q, userID, id)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `UPDATE sessions SET closed = 1 WHERE id = ?`, id); err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		sess.Closed = true
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	emit(s.events, event.Event{Name: event.SessionClosed, UserID: userID, SessionID: id})
	return sess, nil
}

// Delete removes a session and cascades to its exercises and sets.
func (s *Sessions) Delete(ctx context.Context, userID, id int64) (domain.Session, error) {
	var sess domain.Session
	err := s.db.WithinTx(ctx, func(ctx context.Context, q sqlite.Querier) error {
		var err error
		sess, err = ownedSession(ctx, q, userID, id)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	emit(s.events, event.Event{Name: event.SessionDeleted, UserID: userID, SessionID: id})
	return sess, nil
}

// ownedSession loads a session scoped to its owner. A row owned by another
// user is indistinguishable from an absent one.
func ownedSession(ctx context.Context, q sqlite.Querier, userID, id int64) (domain.Session, error) {
	var sess domain.Session
	err := scanSession(q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ? AND user_id = ?`, id, userID), &sess)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, shared.Wrap(shared.ErrNotFound, "session not found")
	}
	if err != nil {
		return domain.Session{}, shared.MarkKind(err, shared.KindQuery)
	}
	return sess, nil
}
