// Package service contains application services for authentication, sessions,
// CSRF protection, catalog management and checkout.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/shopkeeper/internal/crypto"
	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/model"
	"github.com/and161185/shopkeeper/internal/repository"
)

// SessionService manages server-side login sessions.
type SessionService interface {
	// Create issues a new session for the user, revoking any existing ones
	// (single active session per user).
	Create(ctx context.Context, userID uuid.UUID) (*model.Session, error)
	// Validate returns the session iff it exists and has not expired.
	// Returns errs.ErrUnauthorized for missing/expired sessions; storage
	// faults are returned as-is so callers can tell 401 from 500.
	Validate(ctx context.Context, sessionID string) (*model.Session, error)
	// Destroy revokes one session. Idempotent.
	Destroy(ctx context.Context, sessionID string) error
	// DestroyAllForUser revokes every session of a user.
	DestroyAllForUser(ctx context.Context, userID uuid.UUID) error
}

// SessionManager implements SessionService over a SessionRepository.
type SessionManager struct {
	repo repository.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewSessionManager constructs a session manager with the given TTL.
func NewSessionManager(repo repository.SessionRepository, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{repo: repo, ttl: ttl, now: time.Now}
}

// Create issues a 256-bit random session token and atomically replaces any
// prior sessions for the user.
func (m *SessionManager) Create(ctx context.Context, userID uuid.UUID) (*model.Session, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty user id", errs.ErrValidation)
	}
	tok, err := crypto.NewToken(256)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	now := m.now()
	s := &model.Session{
		ID:        tok,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.repo.Replace(ctx, s); err != nil {
		return nil, fmt.Errorf("replace session: %w", err)
	}
	return s, nil
}

// Validate checks existence and expiry. Expired rows are left in place for
// the sweeper; they are simply treated as invalid.
func (m *SessionManager) Validate(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, errs.ErrUnauthorized
	}
	s, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		// infrastructure failure, not an auth failure
		return nil, err
	}
	if s.Expired(m.now()) {
		return nil, errs.ErrUnauthorized
	}
	return s, nil
}

// Destroy revokes one session.
func (m *SessionManager) Destroy(ctx context.Context, sessionID string) error {
	return m.repo.Delete(ctx, sessionID)
}

// DestroyAllForUser revokes every session of a user.
func (m *SessionManager) DestroyAllForUser(ctx context.Context, userID uuid.UUID) error {
	return m.repo.DeleteAllForUser(ctx, userID)
}

// RunSweeper periodically deletes expired session rows until ctx is done.
// Validate already rejects expired sessions lazily, so the sweep changes no
// observable behavior; it only keeps the table from growing.
func (m *SessionManager) RunSweeper(ctx context.Context, log *zap.Logger, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := m.repo.DeleteExpired(ctx, m.now())
			if err != nil {
				log.Warn("session sweep", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("session sweep", zap.Int64("removed", n))
			}
		}
	}
}
