package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/model"
)

// SessionRepo implements SessionRepository using PostgreSQL.
type SessionRepo struct{ db *DB }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

// Replace deletes all sessions for the user and inserts the new one in a
// single transaction. Two concurrent logins serialize on the user's rows, so
// at most one session survives.
func (r *SessionRepo) Replace(ctx context.Context, s *model.Session) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const del = `DELETE FROM sessions WHERE user_id=$1`
	if _, err = tx.Exec(ctx, del, s.UserID); err != nil {
		return err
	}
	const ins = `INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`
	if _, err = tx.Exec(ctx, ins, s.ID, s.UserID, s.ExpiresAt); err != nil {
		return err
	}
	return nil
}

// Get loads a session by id without checking expiry.
func (r *SessionRepo) Get(ctx context.Context, id string) (*model.Session, error) {
	const q = `SELECT id, user_id, created_at, expires_at FROM sessions WHERE id=$1`
	var s model.Session
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Delete removes one session; session_data rows go with it via ON DELETE CASCADE.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM sessions WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

// DeleteAllForUser removes every session owned by the user.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	const q = `DELETE FROM sessions WHERE user_id=$1`
	_, err := r.db.Pool.Exec(ctx, q, userID)
	return err
}

// DeleteExpired removes sessions past their expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= $1`
	tag, err := r.db.Pool.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GetData returns the value stored under (sessionID, key).
func (r *SessionRepo) GetData(ctx context.Context, sessionID, key string) (string, error) {
	const q = `SELECT value FROM session_data WHERE session_id=$1 AND key=$2`
	var v string
	if err := r.db.Pool.QueryRow(ctx, q, sessionID, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

// SetDataIfAbsent stores value under (sessionID, key) unless a value already
// exists, and returns whichever value is now stored. ON CONFLICT DO NOTHING
// plus a read-back keeps first-write-wins under concurrent requests.
func (r *SessionRepo) SetDataIfAbsent(ctx context.Context, sessionID, key, value string) (string, error) {
	const ins = `
INSERT INTO session_data (session_id, key, value)
VALUES ($1, $2, $3)
ON CONFLICT (session_id, key) DO NOTHING`
	if _, err := r.db.Pool.Exec(ctx, ins, sessionID, key, value); err != nil {
		if isForeignKeyViolation(err) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return r.GetData(ctx, sessionID, key)
}
