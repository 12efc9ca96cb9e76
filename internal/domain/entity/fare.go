package entity

import (
	"fmt"
	"time"
)

// Fare is a single candidate fare returned by the fare source
type Fare struct {
	Date         time.Time `json:"date"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	FlightNumber string    `json:"flightNumber"`
	FareClass    string    `json:"fareClass"`
}

// Passengers describes the passenger composition of a search
type Passengers struct {
	Adults   int
	Children int
	Infants  int
	Cabin    string
}

// SearchScope is the temporal window of a fare search: an exact date pair
// for SPECIFIC alerts or a whole calendar month for MONTHLY alerts
type SearchScope struct {
	Kind          ScopeKind
	DepartureDate time.Time
	ReturnDate    *time.Time
	YearMonth     string
}

// Deal is a fare judged eligible for notification for a given alert.
// Deals are ephemeral; only their fingerprint is persisted for dedup.
type Deal struct {
	AlertID           string
	Fare              Fare
	IsCheapestOfMonth bool
	// Extras holds additional in-scope fares listed in the message body for
	// MONTHLY alerts. Informational only, never part of the dedup gate.
	Extras []Fare
}

// Fingerprint identifies a specific deal to prevent duplicate notifications
func (d *Deal) Fingerprint() string {
	return fmt.Sprintf("%s:%s:%.2f:%s", d.AlertID, d.Fare.Date.Format("2006-01-02"), d.Fare.Price, d.Fare.FlightNumber)
}
