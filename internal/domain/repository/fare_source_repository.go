package repository

import (
	"context"

	"farewatch-service/internal/domain/entity"
)

// FareSourceRepository defines the boundary to the external fare-search
// provider. Failures are reported as *entity.SourceError so the scheduler
// can tell retryable outages from alert misconfiguration. The adapter
// never retries internally.
type FareSourceRepository interface {
	Search(ctx context.Context, origin, destination string, scope entity.SearchScope, pax entity.Passengers) ([]entity.Fare, error)
}
