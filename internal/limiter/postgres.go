package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres counts login failures per (email, hashed client ip) in the
// auth_limiter table. Failures inside the window accumulate; hitting the
// threshold blocks the pair for blockFor. The window restarts after a quiet
// period, so a stale count never locks anyone out.
type Postgres struct {
	pool     pgxQuerier
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

// NewPG builds a limiter over a live pool.
func NewPG(pool *pgxpool.Pool, window time.Duration, maxFails int, blockFor time.Duration) *Postgres {
	return &Postgres{pool: pool, window: window, maxFails: maxFails, blockFor: blockFor}
}

// NewPGWithQuerier is the test seam: same limiter over any querier.
func NewPGWithQuerier(q pgxQuerier, window time.Duration, maxFails int, blockFor time.Duration) *Postgres {
	return &Postgres{pool: q, window: window, maxFails: maxFails, blockFor: blockFor}
}

// HashIP hashes a client address so raw IPs never land in the table.
func HashIP(ip string) []byte {
	sum := sha256.Sum256([]byte(ip))
	return sum[:]
}

// Allow checks for an active block. No row means the pair has never failed,
// which allows.
func (l *Postgres) Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM auth_limiter WHERE email = $1 AND ip_hash = $2`

	var deadline time.Time
	err := l.pool.QueryRow(ctx, q, email, ipHash).Scan(&deadline)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("read limiter state: %w", err)
	}
	if deadline.After(time.Now()) {
		return false, time.Until(deadline), nil
	}
	return true, 0, nil
}

// Success wipes the failure state for the pair.
func (l *Postgres) Success(ctx context.Context, email string, ipHash []byte) error {
	const q = `
		INSERT INTO auth_limiter (email, ip_hash, fail_count, blocked_until, updated_at)
		VALUES ($1, $2, 0, 'epoch', now())
		ON CONFLICT (email, ip_hash)
		DO UPDATE SET fail_count = 0, blocked_until = 'epoch', updated_at = now()`

	if _, err := l.pool.Exec(ctx, q, email, ipHash); err != nil {
		return fmt.Errorf("reset limiter state: %w", err)
	}
	return nil
}

// Failure bumps the windowed counter and, at the threshold, stamps a block.
// Returns whether a block is now in place and for how long.
func (l *Postgres) Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	// counter restarts at 1 when the previous failure fell outside the window
	const bump = `
		INSERT INTO auth_limiter (email, ip_hash, fail_count, blocked_until, updated_at)
		VALUES ($1, $2, 1, 'epoch', now())
		ON CONFLICT (email, ip_hash) DO UPDATE SET
			fail_count = CASE
				WHEN now() - auth_limiter.updated_at > $3::interval THEN 1
				ELSE auth_limiter.fail_count + 1
			END,
			updated_at = now()
		RETURNING fail_count`

	var fails int
	if err := l.pool.QueryRow(ctx, bump, email, ipHash, l.window).Scan(&fails); err != nil {
		return false, 0, fmt.Errorf("record login failure: %w", err)
	}
	if fails < l.maxFails {
		return false, 0, nil
	}

	const block = `UPDATE auth_limiter SET blocked_until = $3 WHERE email = $1 AND ip_hash = $2`
	if _, err := l.pool.Exec(ctx, block, email, ipHash, time.Now().Add(l.blockFor)); err != nil {
		return false, 0, fmt.Errorf("place login block: %w", err)
	}
	return true, l.blockFor, nil
}
