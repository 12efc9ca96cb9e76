package faresource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"
	"farewatch-service/pkg/logger"
)

// Client implements FareSourceRepository against the HTTP fare-search
// provider. It maps transport failures onto the source error taxonomy
// and never retries; retry policy belongs to the scheduler.
type Client struct {
	logger  logger.Logger
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new fare source client
func NewClient(baseURL, apiKey string, timeout time.Duration, logger logger.Logger) repository.FareSourceRepository {
	return &Client{
		logger:  logger,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Fares []struct {
		Date         string  `json:"date"`
		Price        float64 `json:"price"`
		Currency     string  `json:"currency"`
		FlightNumber string  `json:"flightNumber"`
		FareClass    string  `json:"fareClass"`
	} `json:"fares"`
	Error string `json:"error,omitempty"`
}

// Search queries the provider for candidate fares on a route within the
// given temporal scope
func (c *Client) Search(ctx context.Context, origin, destination string, scope entity.SearchScope, pax entity.Passengers) ([]entity.Fare, error) {
	query := url.Values{}
	query.Set("origin", origin)
	query.Set("destination", destination)
	query.Set("adults", strconv.Itoa(pax.Adults))
	if pax.Children > 0 {
		query.Set("children", strconv.Itoa(pax.Children))
	}
	if pax.Infants > 0 {
		query.Set("infants", strconv.Itoa(pax.Infants))
	}
	if pax.Cabin != "" {
		query.Set("cabinClass", pax.Cabin)
	}

	switch scope.Kind {
	case entity.ScopeSpecific:
		query.Set("departureDate", scope.DepartureDate.Format("2006-01-02"))
		if scope.ReturnDate != nil {
			query.Set("returnDate", scope.ReturnDate.Format("2006-01-02"))
		}
	case entity.ScopeMonthly:
		query.Set("month", scope.YearMonth)
	}

	searchURL := fmt.Sprintf("%s/v1/search?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, &entity.SourceError{Kind: entity.SourceUnavailable, Err: err}
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &entity.SourceError{Kind: entity.SourceUnavailable, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &entity.SourceError{Kind: entity.RateLimited, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return nil, &entity.SourceError{Kind: entity.InvalidRoute, Err: fmt.Errorf("status %d for %s-%s", resp.StatusCode, origin, destination)}
	case resp.StatusCode != http.StatusOK:
		return nil, &entity.SourceError{Kind: entity.SourceUnavailable, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var response searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, &entity.SourceError{Kind: entity.SourceUnavailable, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	fares := make([]entity.Fare, 0, len(response.Fares))
	for _, f := range response.Fares {
		date, err := time.Parse("2006-01-02", f.Date)
		if err != nil {
			c.logger.Warn("Skipping fare with unparseable date", "date", f.Date, "flight", f.FlightNumber)
			continue
		}
		fares = append(fares, entity.Fare{
			Date:         date,
			Price:        f.Price,
			Currency:     f.Currency,
			FlightNumber: f.FlightNumber,
			FareClass:    f.FareClass,
		})
	}

	c.logger.Debug("Fare search completed",
		"origin", origin,
		"destination", destination,
		"fares", len(fares))

	return fares, nil
}
