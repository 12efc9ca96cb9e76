package repository

import (
	"context"

	"farewatch-service/internal/domain/entity"
)

// ChannelRepository defines the interface for an outbound messaging
// channel. Send is fire-and-forget with an optional receipt: a nil
// receipt with a nil error means the channel accepted the message but
// gives no delivery confirmation.
type ChannelRepository interface {
	Name() string
	Send(ctx context.Context, address, message string) (*entity.DeliveryReceipt, error)
}
