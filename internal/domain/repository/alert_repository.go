package repository

import (
	"context"
	"time"

	"farewatch-service/internal/domain/entity"
)

// AlertRepository defines the interface for alert store operations
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) error
	FindByID(ctx context.Context, id string) (*entity.Alert, error)
	// FindDuplicate returns the owner's existing non-deleted alert for the
	// same route and scope kind, or nil when there is none. Route matching
	// is case-insensitive; routes are upper-cased on write.
	FindDuplicate(ctx context.Context, alert *entity.Alert) (*entity.Alert, error)
	// ListActive returns alerts eligible for scheduling: active only,
	// paused and deleted excluded.
	ListActive(ctx context.Context) ([]*entity.Alert, error)
	ListByBotOwner(ctx context.Context, botID string) ([]*entity.Alert, error)
	ListByWebOwner(ctx context.Context, webID string) ([]*entity.Alert, error)
	RecordCheck(ctx context.Context, id string, checkedAt time.Time) error
	IncrementSentCount(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status entity.AlertStatus) error
	// Reconcile re-points alerts so both identities see each other's alerts
	// after linking. No rows are created or deleted.
	Reconcile(ctx context.Context, botID, webID string) error
	// Detach reverses Reconcile on unlink: bot-created alerts lose their
	// web owner reference and web-created alerts lose their bot reference.
	Detach(ctx context.Context, botID, webID string) error
}
