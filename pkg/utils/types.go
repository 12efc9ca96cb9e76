package utils

import (
	"time"

	"farewatch-service/internal/domain/entity"
)

// AlertCommand is the parsed form of the bot alert-creation command
type AlertCommand struct {
	Origin        string
	Destination   string
	MaxPrice      *float64
	ScopeKind     entity.ScopeKind
	DepartureDate time.Time
	YearMonth     string
}

// Constants
const (
	DATE_LAYOUT  = "2006-01-02"
	MONTH_LAYOUT = "2006-01"
)
