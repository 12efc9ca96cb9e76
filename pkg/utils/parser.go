package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"farewatch-service/internal/domain/entity"
)

var airportCodeRe = regexp.MustCompile(`^[A-Za-z]{3}$`)

// ParseAlertCommand parses the bot alert-creation command:
//
//	ORIGIN DESTINATION [PRICE|-] [DATE]
//
// "-" means best-price mode (no ceiling). The date is disambiguated by
// format: YYYY-MM is a monthly scope, YYYY-MM-DD a specific date, and
// when absent the alert watches the current month. This parsing rule is
// an external contract shared with the bot front end.
func ParseAlertCommand(text string, now time.Time) (*AlertCommand, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) < 2 {
		return nil, fmt.Errorf("expected at least ORIGIN and DESTINATION, got %d fields", len(fields))
	}
	if len(fields) > 4 {
		return nil, fmt.Errorf("too many fields: expected ORIGIN DESTINATION [PRICE|-] [DATE]")
	}

	origin, err := parseAirportCode(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	destination, err := parseAirportCode(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid destination: %w", err)
	}

	cmd := &AlertCommand{
		Origin:      origin,
		Destination: destination,
	}

	if len(fields) >= 3 {
		price, err := parsePrice(fields[2])
		if err != nil {
			return nil, err
		}
		cmd.MaxPrice = price
	}

	if len(fields) == 4 {
		if err := parseDateField(fields[3], cmd); err != nil {
			return nil, err
		}
	} else {
		cmd.ScopeKind = entity.ScopeMonthly
		cmd.YearMonth = now.Format(MONTH_LAYOUT)
	}

	return cmd, nil
}

func parseAirportCode(s string) (string, error) {
	if !airportCodeRe.MatchString(s) {
		return "", fmt.Errorf("%q is not a 3-letter airport code", s)
	}
	return strings.ToUpper(s), nil
}

func parsePrice(s string) (*float64, error) {
	// "-" means best-price mode: notify on the cheapest fare regardless of price
	if s == "-" {
		return nil, nil
	}
	price, err := strconv.ParseFloat(s, 64)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("invalid price %q: expected a positive number or \"-\"", s)
	}
	return &price, nil
}

// parseDateField disambiguates by length: 7 characters is YYYY-MM, 10 is
// YYYY-MM-DD. Never the reverse.
func parseDateField(s string, cmd *AlertCommand) error {
	switch len(s) {
	case len(MONTH_LAYOUT):
		if _, err := time.Parse(MONTH_LAYOUT, s); err != nil {
			return fmt.Errorf("invalid month %q: expected YYYY-MM", s)
		}
		cmd.ScopeKind = entity.ScopeMonthly
		cmd.YearMonth = s
		return nil
	case len(DATE_LAYOUT):
		date, err := time.Parse(DATE_LAYOUT, s)
		if err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
		}
		cmd.ScopeKind = entity.ScopeSpecific
		cmd.DepartureDate = date
		return nil
	default:
		return fmt.Errorf("invalid date %q: expected YYYY-MM or YYYY-MM-DD", s)
	}
}
