package storage

import (
	"context"
	"database/sql"
	"strings"

	"gymlog/internal/domain"
	"gymlog/internal/platform/sqlite"
	"gymlog/internal/shared"
)

// Users persists accounts. Passwords arrive pre-hashed; the store never
// sees plaintext credentials.
type Users struct {
	db *sqlite.Service
}

// NewUsers creates the account store.
func NewUsers(db *sqlite.Service) *Users {
	return &Users{db: db}
}

// Create inserts a new account with the given credential digest.
// A taken username is reported as a conflict.
func (s *Users) Create(ctx context.Context, username, digest string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || digest == "" {
		return domain.User{}, shared.Wrap(shared.ErrValidation, "username and password are required")
	}

	var exists bool
	err := s.db.Query(ctx, `SELECT 1 FROM users WHERE username = ?`, func(rows *sql.Rows) error {
		exists = rows.Next()
		return rows.Err()
	}, username)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, shared.Wrap(shared.ErrConflict, "username already exists")
	}

	res, err := s.db.Execute(ctx, `INSERT INTO users (username, password) VALUES (?, ?)`, username, digest)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: res.LastInsertID, Username: username, Password: digest}, nil
}

// ByUsername looks an account up for authentication.
func (s *Users) ByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.one(ctx, `SELECT id, username, password FROM users WHERE username = ?`, username)
}

// ByID looks an account up by primary key.
func (s *Users) ByID(ctx context.Context, id int64) (domain.User, error) {
	return s.one(ctx, `SELECT id, username, password FROM users WHERE id = ?`, id)
}

func (s *Users) one(ctx context.Context, query string, arg any) (domain.User, error) {
	var (
		u     domain.User
		found bool
	)
	err := s.db.Query(ctx, query, func(rows *sql.Rows) error {
		if !rows.Next() {
			return rows.Err()
		}
		found = true
		return rows.Scan(&u.ID, &u.Username, &u.Password)
	}, arg)
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, shared.Wrap(shared.ErrNotFound, "user not found")
	}
	return u, nil
}

// UpdatePassword replaces the credential digest of an account.
func (s *Users) UpdatePassword(ctx context.Context, userID int64, digest string) error {
	if digest == "" {
		return shared.Wrap(shared.ErrValidation, "password is required")
	}
	res, err := s.db.Execute(ctx, `UPDATE users SET password = ? WHERE id = ?`, digest, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return shared.Wrap(shared.ErrNotFound, "user not found")
	}
	return nil
}

// Delete removes an account and everything it owns. Sessions are removed
// first inside one transaction; exercises and sets follow via cascade.
func (s *Users) Delete(ctx context.Context, userID int64) error {
	return s.db.WithinTx(ctx, func(ctx context.Context, q sqlite.Querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		res, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return shared.MarkKind(err, shared.KindQuery)
		}
		if affected == 0 {
			return shared.Wrap(shared.ErrNotFound, "user not found")
		}
		return nil
	})
}

// Count returns the number of accounts. Used to decide whether to seed.
func (s *Users) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.Query(ctx, `SELECT COUNT(*) FROM users`, func(rows *sql.Rows) error {
		if !rows.Next() {
			return rows.Err()
		}
		return rows.Scan(&n)
	})
	return n, err
}
