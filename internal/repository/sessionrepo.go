package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/shopkeeper/internal/model"
)

// SessionRepository persists login sessions and their per-session key/value
// data (used for CSRF token pinning).
type SessionRepository interface {
	// Replace deletes all sessions for the user and inserts the new one in a
	// single transaction, keeping the single-active-session invariant under
	// concurrent logins.
	Replace(ctx context.Context, s *model.Session) error
	// Get loads a session by id. Expiry is not checked here.
	Get(ctx context.Context, id string) (*model.Session, error)
	// Delete removes one session and its session data. Deleting an absent
	// session is not an error.
	Delete(ctx context.Context, id string) error
	// DeleteAllForUser removes every session owned by the user.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
	// DeleteExpired removes sessions whose expiry is before now, returning
	// the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// GetData returns the value stored under (sessionID, key), or
	// errs.ErrNotFound.
	GetData(ctx context.Context, sessionID, key string) (string, error)
	// SetDataIfAbsent stores value under (sessionID, key) only when no value
	// exists yet, returning the value that ended up stored (first write wins).
	SetDataIfAbsent(ctx context.Context, sessionID, key, value string) (string, error)
}
