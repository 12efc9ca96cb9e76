package usecase

import (
	"context"
	"fmt"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"
	"farewatch-service/pkg/logger"
	"farewatch-service/pkg/metrics"
	"farewatch-service/templates"
)

// NotificationDispatcher turns a qualifying deal into a rendered message,
// sends it through the alert's channel, and records delivery state
type NotificationDispatcher struct {
	notificationRepo repository.NotificationRepository
	alertRepo        repository.AlertRepository
	channels         map[string]repository.ChannelRepository
	logger           logger.Logger
	metrics          *metrics.Metrics
}

// NewNotificationDispatcher creates a new dispatcher over the given channels
func NewNotificationDispatcher(
	notificationRepo repository.NotificationRepository,
	alertRepo repository.AlertRepository,
	channels []repository.ChannelRepository,
	logger logger.Logger,
	m *metrics.Metrics,
) *NotificationDispatcher {
	byName := make(map[string]repository.ChannelRepository, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}
	return &NotificationDispatcher{
		notificationRepo: notificationRepo,
		alertRepo:        alertRepo,
		channels:         byName,
		logger:           logger,
		metrics:          m,
	}
}

// Dispatch sends the deal notification at most once per fingerprint.
//
// The sent=true record is claimed atomically before the send, so a crash
// between send and delivery confirmation cannot cause a second send on
// retry. A channel failure keeps the claimed slot: remediation works off
// the delivered=false backlog, never off automatic re-sends.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, alert *entity.Alert, deal *entity.Deal) (entity.DispatchOutcome, error) {
	fingerprint := deal.Fingerprint()

	rec := &entity.NotificationRecord{
		AlertID:     alert.ID,
		Fingerprint: fingerprint,
		Channel:     alert.Channel,
		Sent:        true,
		Price:       deal.Fare.Price,
		Currency:    deal.Fare.Currency,
		SentAt:      time.Now(),
	}

	claimed, err := d.notificationRepo.Record(ctx, rec)
	if err != nil {
		return entity.OutcomeChannelFailure, fmt.Errorf("failed to record notification: %w", err)
	}
	if !claimed {
		d.logger.Debug("Deal already notified", "alertId", alert.ID, "fingerprint", fingerprint)
		if d.metrics != nil {
			d.metrics.NotificationsDeduplicated.Inc()
		}
		return entity.OutcomeDeduplicated, nil
	}

	channel, ok := d.channels[alert.Channel]
	if !ok {
		return entity.OutcomeChannelFailure, fmt.Errorf("no channel registered for %q", alert.Channel)
	}

	message := templates.RenderDealMessage(alert, deal)

	receipt, err := channel.Send(ctx, alert.ChannelAddress, message)
	if err != nil {
		d.logger.Error("Channel send failed",
			"alertId", alert.ID,
			"channel", alert.Channel,
			"fingerprint", fingerprint,
			"error", err)
		if d.metrics != nil {
			d.metrics.ErrorsCount.WithLabelValues("channel_send").Inc()
		}
		return entity.OutcomeChannelFailure, err
	}

	if receipt != nil {
		if err := d.notificationRepo.MarkDelivered(ctx, alert.ID, fingerprint); err != nil {
			d.logger.Error("Failed to mark notification delivered", "alertId", alert.ID, "error", err)
		}
	}

	if err := d.alertRepo.IncrementSentCount(ctx, alert.ID); err != nil {
		d.logger.Error("Failed to increment sent count", "alertId", alert.ID, "error", err)
	}

	if d.metrics != nil {
		d.metrics.NotificationsSent.Inc()
	}

	d.logger.Info("Notification dispatched",
		"alertId", alert.ID,
		"channel", alert.Channel,
		"price", deal.Fare.Price,
		"confirmed", receipt != nil)

	return entity.OutcomeDelivered, nil
}
