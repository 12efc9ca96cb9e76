package repository

import (
	"context"

	"farewatch-service/internal/domain/entity"
)

// WebIdentityRepository defines the interface for the web-application
// identity store and its bot binding
type WebIdentityRepository interface {
	FindByID(ctx context.Context, id string) (*entity.WebIdentity, error)
	// FindByBotID returns the identity bound to the given bot identity,
	// or entity.ErrIdentityNotFound when no binding exists.
	FindByBotID(ctx context.Context, botID string) (*entity.WebIdentity, error)
	// BindBot sets the binding; a bot identity may be bound to at most one
	// web identity, enforced by a unique constraint.
	BindBot(ctx context.Context, webID, botID string) error
	// UnbindBot clears the binding and returns the bot identity that was bound
	UnbindBot(ctx context.Context, webID string) (string, error)
}
