package repository

import (
	"context"
	"time"

	"farewatch-service/internal/domain/entity"
)

// LinkingCodeRepository defines the interface for linking code storage
type LinkingCodeRepository interface {
	Create(ctx context.Context, code *entity.LinkingCode) error
	// InvalidateForOwner marks all outstanding unconsumed codes for the
	// owner as consumed, so at most one redeemable code exists per owner.
	InvalidateForOwner(ctx context.Context, webIdentityID string) error
	// FindActive returns the unconsumed, unexpired code matching the given
	// value, or entity.ErrInvalidOrExpiredCode.
	FindActive(ctx context.Context, code string, now time.Time) (*entity.LinkingCode, error)
	// Consume atomically flips consumed=false to true on the matching
	// unexpired code. Returns entity.ErrInvalidOrExpiredCode when no such
	// code exists, including when a concurrent consume won the race.
	Consume(ctx context.Context, code string, now time.Time) (*entity.LinkingCode, error)
	// Restore un-consumes a consumed, unexpired code. Used to give the
	// code back when the binding step after a consume fails.
	Restore(ctx context.Context, code string, now time.Time) error
	// DeleteExpired removes codes whose expiry is before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
