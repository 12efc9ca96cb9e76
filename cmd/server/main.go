package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farewatch-service/internal/domain/repository"
	"farewatch-service/internal/infrastructure/config"
	"farewatch-service/internal/infrastructure/persistence"
	"farewatch-service/internal/interface/faresource"
	storeRepo "farewatch-service/internal/interface/repository"
	"farewatch-service/internal/usecase"
	"farewatch-service/pkg/logger"
	"farewatch-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	log.Info("Starting FareWatch Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection (bot-side store)
	log.Info("Connecting to MongoDB")
	mongoClient, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	// Set up PostgreSQL connection (web-application identity store)
	gormDB, err := gorm.Open(postgres.Open(cfg.PostgresURI), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}
	if err := gormDB.AutoMigrate(&storeRepo.WebIdentities{}); err != nil {
		log.Fatal("Failed to migrate identity schema", "error", err)
	}

	// Set up metrics
	m := metrics.NewMetrics("farewatch")

	// Set up repositories
	alertRepo := storeRepo.NewMongoAlertRepository(db)
	notificationRepo, err := storeRepo.NewMongoNotificationRepository(db)
	if err != nil {
		log.Fatal("Failed to initialize notification store", "error", err)
	}
	linkingCodeRepo := storeRepo.NewMongoLinkingCodeRepository(db)
	identityRepo := storeRepo.NewGormWebIdentityRepository(gormDB)

	// Set up fare source and notification channels
	fareSource := faresource.NewClient(cfg.FareSourceURL, cfg.FareSourceAPIKey, cfg.FareSourceTimeout, log)
	channels := []repository.ChannelRepository{
		storeRepo.NewTelegramRepository(cfg.TelegramBotToken, cfg.ChannelTimeout, log),
		storeRepo.NewWhatsappRepository(cfg.WhatsAppEndpoint, cfg.WhatsAppToken, cfg.ChannelTimeout, log),
	}

	// Set up usecases
	evaluator := usecase.NewDealEvaluator(log)
	dispatcher := usecase.NewNotificationDispatcher(notificationRepo, alertRepo, channels, log, m)
	scheduler := usecase.NewScheduler(alertRepo, fareSource, evaluator, dispatcher, log, m, cfg.PollInterval, cfg.RunTimeout, cfg.WorkerCount)
	linking := usecase.NewLinkingService(linkingCodeRepo, identityRepo, alertRepo, log, cfg.LinkingCodeTTL, cfg.TelegramBotName)

	// Start scheduler in a goroutine
	go scheduler.Run(ctx)

	// Start expired linking code sweep in a goroutine
	go func() {
		sweepTicker := time.NewTicker(cfg.LinkingSweepInterval)
		defer sweepTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Linking code sweep stopped")
				return
			case <-sweepTicker.C:
				if err := linking.SweepExpired(ctx); err != nil {
					log.Error("Error sweeping expired codes", "error", err)
				}
			}
		}
	}()

	// Refresh the undelivered backlog gauge in a goroutine
	go func() {
		backlogTicker := time.NewTicker(time.Minute)
		defer backlogTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-backlogTicker.C:
				count, err := notificationRepo.CountUndelivered(ctx)
				if err != nil {
					log.Error("Error counting undelivered backlog", "error", err)
					continue
				}
				m.UndeliveredBacklog.Set(float64(count))
			}
		}
	}()

	// Set up HTTP server for metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("FareWatch Service stopped")
}
