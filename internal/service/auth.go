package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/shopkeeper/internal/crypto"
	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/limiter"
	"github.com/and161185/shopkeeper/internal/model"
	"github.com/and161185/shopkeeper/internal/repository"
)

const minPasswordLen = 8

// AuthService verifies credentials and manages the password lifecycle.
type AuthService interface {
	// Register creates a new non-admin user account.
	Register(ctx context.Context, email, password string) (*model.User, error)
	// LoginWithIP applies rate limiting, verifies credentials and opens a
	// session. Bad email and bad password are indistinguishable to the caller.
	LoginWithIP(ctx context.Context, email, password, ip string) (*model.Session, *model.User, error)
	// CurrentUser resolves the user owning a session id.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
	// ChangePassword verifies the current password, stores a new salt+hash
	// and revokes all sessions for the user.
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	sessions SessionService
	lim      limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, sessions SessionService, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, sessions: sessions, lim: lim}
}

// Register creates a new user record with a fresh per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", errs.ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, minPasswordLen)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:           uid,
		Email:        email,
		PasswordHash: crypto.HashPassword(password, salt),
		PasswordSalt: salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// LoginWithIP authenticates with rate limiting by (email, ip) and opens a
// fresh session on success.
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (*model.Session, *model.User, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return nil, nil, err
	}
	if !allowed {
		return nil, nil, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		// storage fault, not bad credentials
		return nil, nil, err
	}
	if err != nil || !crypto.VerifyPassword(password, u.PasswordSalt, u.PasswordHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return nil, nil, errs.ErrRateLimited
		}
		// uniform answer hides whether the account exists
		return nil, nil, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, email, ipHash)

	sess, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, u, nil
}

// CurrentUser resolves a user by id.
func (s *AuthServiceImpl) CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}

// ChangePassword verifies the current password, stores a new salt and hash
// and revokes every session of the user, forcing re-login.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, minPasswordLen)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrUnauthorized
		}
		return err
	}
	if !crypto.VerifyPassword(current, u.PasswordSalt, u.PasswordHash) {
		return errs.ErrUnauthorized
	}
	// never reuse the old salt
	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, salt, crypto.HashPassword(next, salt)); err != nil {
		return err
	}
	return s.sessions.DestroyAllForUser(ctx, userID)
}
