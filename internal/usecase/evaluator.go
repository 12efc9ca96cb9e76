package usecase

import (
	"sort"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/pkg/logger"
)

// maxExtraFares bounds the informational fare list in monthly messages
const maxExtraFares = 3

// DealEvaluator decides, for one alert and a fresh fare list, whether a
// qualifying deal exists and which fare represents it
type DealEvaluator struct {
	logger logger.Logger
}

// NewDealEvaluator creates a new deal evaluator
func NewDealEvaluator(logger logger.Logger) *DealEvaluator {
	return &DealEvaluator{
		logger: logger,
	}
}

// Evaluate returns at most one representative deal for the alert, or nil
// when no fare qualifies. An empty fare list is not an error.
//
// Fares outside the alert's temporal scope are dropped first. With a
// price ceiling, fares above it are dropped; without one the alert is in
// best-price mode and the cheapest in-scope fare always qualifies. For
// MONTHLY alerts the representative fare is marked cheapest-of-month and
// up to maxExtraFares additional qualifying fares ride along for the
// message body; only the representative fingerprint enters the dedup gate.
func (e *DealEvaluator) Evaluate(alert *entity.Alert, fares []entity.Fare) *entity.Deal {
	eligible := make([]entity.Fare, 0, len(fares))
	for _, fare := range fares {
		if !e.inScope(alert, fare) {
			continue
		}
		if alert.MaxPrice != nil && fare.Price > *alert.MaxPrice {
			continue
		}
		eligible = append(eligible, fare)
	}

	if len(eligible) == 0 {
		return nil
	}

	sort.Slice(eligible, func(i, j int) bool {
		return betterFare(eligible[i], eligible[j])
	})
	best := eligible[0]

	deal := &entity.Deal{
		AlertID: alert.ID,
		Fare:    best,
	}

	if alert.ScopeKind == entity.ScopeMonthly {
		deal.IsCheapestOfMonth = true
		for _, fare := range eligible[1:] {
			if len(deal.Extras) == maxExtraFares {
				break
			}
			deal.Extras = append(deal.Extras, fare)
		}
	}

	e.logger.Debug("Deal selected",
		"alertId", alert.ID,
		"price", best.Price,
		"date", best.Date.Format("2006-01-02"),
		"flight", best.FlightNumber,
		"extras", len(deal.Extras))

	return deal
}

// inScope reports whether the fare falls within the alert's temporal
// scope: the exact departure date for SPECIFIC, any date in the target
// month for MONTHLY
func (e *DealEvaluator) inScope(alert *entity.Alert, fare entity.Fare) bool {
	switch alert.ScopeKind {
	case entity.ScopeSpecific:
		return fare.Date.Format("2006-01-02") == alert.DepartureDate.Format("2006-01-02")
	case entity.ScopeMonthly:
		return fare.Date.Format("2006-01") == alert.YearMonth
	default:
		return false
	}
}

// betterFare orders fares by price, then earliest date, then lowest
// flight number, so selection is deterministic under ties
func betterFare(a, b entity.Fare) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.FlightNumber < b.FlightNumber
}
