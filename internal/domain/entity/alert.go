package entity

import (
	"time"
)

// ScopeKind defines the temporal scope of an alert
type ScopeKind string

const (
	ScopeSpecific ScopeKind = "SPECIFIC"
	ScopeMonthly  ScopeKind = "MONTHLY"
)

// AlertStatus is the lifecycle state of an alert
type AlertStatus string

const (
	AlertActive  AlertStatus = "active"
	AlertPaused  AlertStatus = "paused"
	AlertDeleted AlertStatus = "deleted"
)

// Origin of an alert, recorded so unlink can tell which owner reference
// was added by reconciliation and which one created the row
const (
	CreatedByBot = "bot"
	CreatedByWeb = "web"
)

// Alert represents a user request to be notified about fares on a route
type Alert struct {
	ID              string      `bson:"_id,omitempty"`
	OwnerBotID      string      `bson:"ownerBotId,omitempty"`
	OwnerWebID      string      `bson:"ownerWebId,omitempty"`
	CreatedBy       string      `bson:"createdBy"`
	Origin          string      `bson:"origin"`
	Destination     string      `bson:"destination"`
	MaxPrice        *float64    `bson:"maxPrice,omitempty"`
	Currency        string      `bson:"currency"`
	ScopeKind       ScopeKind   `bson:"scopeKind"`
	DepartureDate   time.Time   `bson:"departureDate,omitempty"`
	ReturnDate      *time.Time  `bson:"returnDate,omitempty"`
	YearMonth       string      `bson:"yearMonth,omitempty"` // 2006-01
	Adults          int         `bson:"adults"`
	Children        int         `bson:"children"`
	Infants         int         `bson:"infants"`
	CabinClass      string      `bson:"cabinClass"`
	Channel         string      `bson:"channel"`
	ChannelAddress  string      `bson:"channelAddress"`
	Status          AlertStatus `bson:"status"`
	LastCheckedAt   *time.Time  `bson:"lastCheckedAt,omitempty"`
	AlertsSentCount int         `bson:"alertsSentCount"`
	CreatedAt       time.Time   `bson:"createdAt"`
	UpdatedAt       time.Time   `bson:"updatedAt"`
}

// BestPriceMode reports whether the alert has no price ceiling and
// notifies on the cheapest fare found regardless of price
func (a *Alert) BestPriceMode() bool {
	return a.MaxPrice == nil
}

// SearchScope builds the fare-source search window for this alert
func (a *Alert) SearchScope() SearchScope {
	return SearchScope{
		Kind:          a.ScopeKind,
		DepartureDate: a.DepartureDate,
		ReturnDate:    a.ReturnDate,
		YearMonth:     a.YearMonth,
	}
}

// Passengers returns the passenger composition of the alert
func (a *Alert) Passengers() Passengers {
	return Passengers{
		Adults:   a.Adults,
		Children: a.Children,
		Infants:  a.Infants,
		Cabin:    a.CabinClass,
	}
}
