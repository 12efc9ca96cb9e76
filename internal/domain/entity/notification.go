package entity

import "time"

// Notification channels
const (
	ChannelTelegram = "telegram"
	ChannelWhatsApp = "whatsapp"
)

// DispatchOutcome is the result of a dispatch attempt
type DispatchOutcome string

const (
	OutcomeDelivered      DispatchOutcome = "delivered"
	OutcomeDeduplicated   DispatchOutcome = "deduplicated"
	OutcomeChannelFailure DispatchOutcome = "channel_failure"
)

// NotificationRecord tracks one dispatched deal per alert and fingerprint.
// Sent means the send was attempted; Delivered means the channel confirmed it.
type NotificationRecord struct {
	ID          string    `bson:"_id,omitempty"`
	AlertID     string    `bson:"alertId"`
	Fingerprint string    `bson:"fingerprint"`
	Channel     string    `bson:"channel"`
	Sent        bool      `bson:"sent"`
	Delivered   bool      `bson:"delivered"`
	Price       float64   `bson:"price"`
	Currency    string    `bson:"currency"`
	SentAt      time.Time `bson:"sentAt"`
}

// DeliveryReceipt is the optional confirmation returned by a channel
type DeliveryReceipt struct {
	MessageID   string
	DeliveredAt time.Time
}
