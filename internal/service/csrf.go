package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/and161185/shopkeeper/internal/crypto"
	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/repository"
)

// csrfDataKey is the session_data key holding the pinned per-session token.
const csrfDataKey = "csrf_token"

// CSRFService implements anti-forgery checks: a double-submit cookie token
// for every client (anonymous checkout included), plus a per-session pinned
// copy for authenticated requests. The first token a session presents is
// recorded and every later mutating request must repeat it; the pin is
// released only when the session is destroyed.
type CSRFService interface {
	// Issue generates a fresh token for the cookie + response body pair.
	Issue() (string, error)
	// Check verifies the double-submit pair: cookie token vs the
	// header/body-supplied token.
	Check(cookieToken, submitted string) error
	// CheckSession enforces the session-pinned token: pins submitted on
	// first use, rejects any later mismatch.
	CheckSession(ctx context.Context, sessionID, submitted string) error
}

// CSRFGuard implements CSRFService over the session repository.
type CSRFGuard struct {
	sessions repository.SessionRepository
}

// NewCSRFGuard constructs a CSRF guard.
func NewCSRFGuard(sessions repository.SessionRepository) *CSRFGuard {
	return &CSRFGuard{sessions: sessions}
}

// Issue generates a 256-bit random token.
func (g *CSRFGuard) Issue() (string, error) {
	return crypto.NewToken(256)
}

// Check verifies cookie token == submitted token in constant time. A missing
// side fails the check; GET exemption is the caller's concern.
func (g *CSRFGuard) Check(cookieToken, submitted string) error {
	if cookieToken == "" || submitted == "" {
		return fmt.Errorf("%w: token missing", errs.ErrCSRF)
	}
	if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) != 1 {
		return errs.ErrCSRF
	}
	return nil
}

// CheckSession pins the first submitted token for the session and requires
// every subsequent mutating request to repeat it (first write wins).
func (g *CSRFGuard) CheckSession(ctx context.Context, sessionID, submitted string) error {
	if submitted == "" {
		return fmt.Errorf("%w: token missing", errs.ErrCSRF)
	}
	pinned, err := g.sessions.SetDataIfAbsent(ctx, sessionID, csrfDataKey, submitted)
	if err != nil {
		return fmt.Errorf("pin csrf token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(pinned), []byte(submitted)) != 1 {
		return errs.ErrCSRF
	}
	return nil
}
