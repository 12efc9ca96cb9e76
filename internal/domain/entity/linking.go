package entity

import "time"

// LinkingCode is a short-lived single-use token binding a bot identity
// to a web identity. Stored durably so a restart during the linking
// window does not invalidate outstanding codes.
type LinkingCode struct {
	ID            string    `bson:"_id,omitempty"`
	Code          string    `bson:"code"`
	WebIdentityID string    `bson:"webIdentityId"`
	ExpiresAt     time.Time `bson:"expiresAt"`
	Consumed      bool      `bson:"consumed"`
	CreatedAt     time.Time `bson:"createdAt"`
}

// Expired reports whether the code is past its expiry at the given time
func (c *LinkingCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// WebIdentity is a web-application user. BotIdentityID carries the
// bot binding; it is unique across identities when set.
type WebIdentity struct {
	ID            string
	Email         string
	BotIdentityID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Linked reports whether this identity is bound to a bot identity
func (w *WebIdentity) Linked() bool {
	return w.BotIdentityID != nil && *w.BotIdentityID != ""
}
