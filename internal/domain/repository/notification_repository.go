package repository

import (
	"context"

	"farewatch-service/internal/domain/entity"
)

// NotificationRepository defines the interface for notification record storage
type NotificationRepository interface {
	// Record persists the record if no record exists yet for the same
	// (alertId, fingerprint). Returns false when the fingerprint was
	// already recorded; this is the at-most-once dedup gate and must be
	// a single atomic check-and-set.
	Record(ctx context.Context, rec *entity.NotificationRecord) (bool, error)
	MarkDelivered(ctx context.Context, alertID, fingerprint string) error
	ListByAlert(ctx context.Context, alertID string) ([]*entity.NotificationRecord, error)
	// CountUndelivered returns the size of the delivered=false backlog
	CountUndelivered(ctx context.Context) (int64, error)
}
