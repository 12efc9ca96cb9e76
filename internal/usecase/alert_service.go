package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"
	"farewatch-service/pkg/logger"
	"farewatch-service/pkg/utils"
)

// CreateAlertInput is the front-end-agnostic alert creation request
type CreateAlertInput struct {
	OwnerBotID     string
	OwnerWebID     string
	CreatedBy      string
	Origin         string
	Destination    string
	MaxPrice       *float64
	Currency       string
	ScopeKind      entity.ScopeKind
	DepartureDate  time.Time
	ReturnDate     *time.Time
	YearMonth      string
	Adults         int
	Children       int
	Infants        int
	CabinClass     string
	Channel        string
	ChannelAddress string
}

// AlertService is the shared alert-management entry point for both front
// ends. It owns route normalization, defaults, and the duplicate gate.
type AlertService struct {
	alertRepo repository.AlertRepository
	logger    logger.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(alertRepo repository.AlertRepository, logger logger.Logger) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		logger:    logger,
	}
}

// Create validates and persists a new alert. At most one active alert
// may exist per owner, route, and scope kind; a duplicate is rejected
// with a descriptive conflict and the existing alert is left unchanged.
func (s *AlertService) Create(ctx context.Context, input CreateAlertInput) (*entity.Alert, error) {
	if input.OwnerBotID == "" && input.OwnerWebID == "" {
		return nil, fmt.Errorf("alert needs an owner")
	}

	origin, err := normalizeAirportCode(input.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	destination, err := normalizeAirportCode(input.Destination)
	if err != nil {
		return nil, fmt.Errorf("invalid destination: %w", err)
	}

	alert := &entity.Alert{
		OwnerBotID:     input.OwnerBotID,
		OwnerWebID:     input.OwnerWebID,
		CreatedBy:      input.CreatedBy,
		Origin:         origin,
		Destination:    destination,
		MaxPrice:       input.MaxPrice,
		Currency:       input.Currency,
		ScopeKind:      input.ScopeKind,
		DepartureDate:  input.DepartureDate,
		ReturnDate:     input.ReturnDate,
		YearMonth:      input.YearMonth,
		Adults:         input.Adults,
		Children:       input.Children,
		Infants:        input.Infants,
		CabinClass:     input.CabinClass,
		Channel:        input.Channel,
		ChannelAddress: input.ChannelAddress,
		Status:         entity.AlertActive,
	}

	if alert.Currency == "" {
		alert.Currency = "USD"
	}
	if alert.Adults == 0 {
		alert.Adults = 1
	}
	if alert.ScopeKind == "" {
		alert.ScopeKind = entity.ScopeMonthly
		alert.YearMonth = time.Now().Format(utils.MONTH_LAYOUT)
	}

	existing, err := s.alertRepo.FindDuplicate(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s-%s (%s)", entity.ErrDuplicateAlert, origin, destination, alert.ScopeKind)
	}

	if err := s.alertRepo.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	s.logger.Info("Alert created",
		"alertId", alert.ID,
		"route", origin+"-"+destination,
		"scope", alert.ScopeKind,
		"bestPrice", alert.BestPriceMode())

	return alert, nil
}

// CreateFromCommand parses the bot alert-creation command and creates the
// alert for the given bot identity, notifying back over Telegram
func (s *AlertService) CreateFromCommand(ctx context.Context, botID, chatID, text string) (*entity.Alert, error) {
	cmd, err := utils.ParseAlertCommand(text, time.Now())
	if err != nil {
		return nil, err
	}

	return s.Create(ctx, CreateAlertInput{
		OwnerBotID:     botID,
		CreatedBy:      entity.CreatedByBot,
		Origin:         cmd.Origin,
		Destination:    cmd.Destination,
		MaxPrice:       cmd.MaxPrice,
		ScopeKind:      cmd.ScopeKind,
		DepartureDate:  cmd.DepartureDate,
		YearMonth:      cmd.YearMonth,
		Channel:        entity.ChannelTelegram,
		ChannelAddress: chatID,
	})
}

// Pause excludes the alert from scheduling without deleting it
func (s *AlertService) Pause(ctx context.Context, id string) error {
	return s.alertRepo.SetStatus(ctx, id, entity.AlertPaused)
}

// Resume puts a paused alert back into scheduling
func (s *AlertService) Resume(ctx context.Context, id string) error {
	return s.alertRepo.SetStatus(ctx, id, entity.AlertActive)
}

// Delete soft-deletes the alert. The row stays while notification
// history references it.
func (s *AlertService) Delete(ctx context.Context, id string) error {
	return s.alertRepo.SetStatus(ctx, id, entity.AlertDeleted)
}

// ListForBotOwner returns the alerts visible to a bot identity
func (s *AlertService) ListForBotOwner(ctx context.Context, botID string) ([]*entity.Alert, error) {
	return s.alertRepo.ListByBotOwner(ctx, botID)
}

// ListForWebOwner returns the alerts visible to a web identity
func (s *AlertService) ListForWebOwner(ctx context.Context, webID string) ([]*entity.Alert, error) {
	return s.alertRepo.ListByWebOwner(ctx, webID)
}

func normalizeAirportCode(code string) (string, error) {
	if len(code) != 3 {
		return "", fmt.Errorf("%q is not a 3-letter airport code", code)
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", fmt.Errorf("%q is not a 3-letter airport code", code)
		}
	}
	return strings.ToUpper(code), nil
}
