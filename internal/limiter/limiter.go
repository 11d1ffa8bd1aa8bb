// Package limiter throttles login attempts per account and client address.
package limiter

import (
	"context"
	"time"
)

// Limiter gates login attempts. The auth service calls Allow before checking
// credentials, then Success or Failure with the outcome; Failure may report
// that a temporary block is now in effect, with the retry-after duration.
type Limiter interface {
	Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
	Success(ctx context.Context, email string, ipHash []byte) error
	Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
}
