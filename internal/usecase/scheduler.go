package usecase

import (
	"context"
	"sync"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"
	"farewatch-service/pkg/logger"
	"farewatch-service/pkg/metrics"

	"github.com/google/uuid"
)

// Scheduler drives periodic evaluation of all active alerts. Each alert
// is processed independently by a bounded worker pool; one alert's
// failure never aborts the batch.
type Scheduler struct {
	alertRepo   repository.AlertRepository
	fareSource  repository.FareSourceRepository
	evaluator   *DealEvaluator
	dispatcher  *NotificationDispatcher
	logger      logger.Logger
	metrics     *metrics.Metrics
	interval    time.Duration
	runTimeout  time.Duration
	workerCount int

	// runLock keeps two cycles from ever running concurrently against the
	// same alert set
	runLock sync.Mutex
}

// NewScheduler creates a new scheduler
func NewScheduler(
	alertRepo repository.AlertRepository,
	fareSource repository.FareSourceRepository,
	evaluator *DealEvaluator,
	dispatcher *NotificationDispatcher,
	logger logger.Logger,
	m *metrics.Metrics,
	interval, runTimeout time.Duration,
	workerCount int,
) *Scheduler {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Scheduler{
		alertRepo:   alertRepo,
		fareSource:  fareSource,
		evaluator:   evaluator,
		dispatcher:  dispatcher,
		logger:      logger,
		metrics:     m,
		interval:    interval,
		runTimeout:  runTimeout,
		workerCount: workerCount,
	}
}

// Run executes cycles on a fixed interval until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler started",
		"interval", s.interval,
		"workers", s.workerCount)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle evaluates all active alerts once. A cycle that would overlap
// a still-running one is skipped, and a run-level timeout aborts alert
// evaluations that have not started yet.
func (s *Scheduler) RunCycle(ctx context.Context) {
	if !s.runLock.TryLock() {
		s.logger.Warn("Previous cycle still running, skipping this tick")
		return
	}
	defer s.runLock.Unlock()

	start := time.Now()
	log := s.logger.With("runId", uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	alerts, err := s.alertRepo.ListActive(ctx)
	if err != nil {
		log.Error("Failed to list active alerts", "error", err)
		if s.metrics != nil {
			s.metrics.ErrorsCount.WithLabelValues("list_alerts").Inc()
		}
		return
	}

	log.Info("Cycle started", "alerts", len(alerts))

	jobs := make(chan *entity.Alert)
	var wg sync.WaitGroup
	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for alert := range jobs {
				s.processAlert(ctx, log, alert)
			}
		}()
	}

	aborted := 0
feed:
	for i, alert := range alerts {
		select {
		case <-ctx.Done():
			aborted = len(alerts) - i
			break feed
		case jobs <- alert:
		}
	}
	close(jobs)
	wg.Wait()

	if aborted > 0 {
		log.Warn("Cycle timed out before all alerts were scheduled", "aborted", aborted)
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.CycleDuration.Observe(duration.Seconds())
	}
	log.Info("Cycle finished", "alerts", len(alerts), "duration", duration)
}

// processAlert runs fetch, evaluate and dispatch for one alert. Failures
// are contained here: they are logged with the alert id and the rest of
// the batch keeps running. The check timestamp is recorded after dispatch
// attempts finish, successful or not.
func (s *Scheduler) processAlert(ctx context.Context, log logger.Logger, alert *entity.Alert) {
	defer func() {
		// Record on a detached context so a run timeout expiring mid-alert
		// still leaves an accurate staleness signal
		rcCtx, rcCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer rcCancel()
		if err := s.alertRepo.RecordCheck(rcCtx, alert.ID, time.Now()); err != nil {
			log.Error("Failed to record check", "alertId", alert.ID, "error", err)
		}
	}()

	if s.metrics != nil {
		s.metrics.AlertsChecked.Inc()
	}

	fares, err := s.fareSource.Search(ctx, alert.Origin, alert.Destination, alert.SearchScope(), alert.Passengers())
	if err != nil {
		if se, ok := entity.AsSourceError(err); ok && !se.Retryable() {
			// Not a transient fault: the alert owner configured a route the
			// source rejects
			log.Warn("Fare source rejected route", "alertId", alert.ID, "origin", alert.Origin, "destination", alert.Destination, "error", err)
		} else {
			log.Error("Fare search failed", "alertId", alert.ID, "error", err)
		}
		if s.metrics != nil {
			s.metrics.ErrorsCount.WithLabelValues("fare_search").Inc()
		}
		return
	}

	deal := s.evaluator.Evaluate(alert, fares)
	if deal == nil {
		log.Debug("No qualifying deal", "alertId", alert.ID, "fares", len(fares))
		return
	}
	if s.metrics != nil {
		s.metrics.DealsFound.Inc()
	}

	outcome, err := s.dispatcher.Dispatch(ctx, alert, deal)
	if err != nil {
		log.Error("Dispatch failed", "alertId", alert.ID, "outcome", outcome, "error", err)
		if s.metrics != nil {
			s.metrics.ErrorsCount.WithLabelValues("dispatch").Inc()
		}
		return
	}

	log.Info("Alert processed", "alertId", alert.ID, "outcome", outcome)
}
