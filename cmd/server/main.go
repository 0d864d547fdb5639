package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/campus-venues/service-booking/internal/application"
	"github.com/campus-venues/service-booking/internal/config"
	"github.com/campus-venues/service-booking/internal/domain/notification"
	"github.com/campus-venues/service-booking/internal/domain/venue"
	bookingEvents "github.com/campus-venues/service-booking/internal/events"
	"github.com/campus-venues/service-booking/internal/handler"
	"github.com/campus-venues/service-booking/internal/repository"
	"github.com/campus-venues/service-booking/internal/scheduler"
	"github.com/campus-venues/service-booking/pkg/database"
	"github.com/campus-venues/service-booking/pkg/kafka"
	"github.com/campus-venues/service-booking/pkg/logger"
	"github.com/campus-venues/service-booking/pkg/middleware"
	"github.com/campus-venues/service-booking/pkg/mq"
	"github.com/campus-venues/service-booking/pkg/obs"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "service-venue-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.String("approval_mode", cfg.ApprovalConfig.Mode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	if cfg.TracingConfig.Enabled {
		shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.AppEnv, cfg.TracingConfig.Endpoint)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			_ = shutdownTracer(flushCtx)
		}()
	}

	// Initialize the state store
	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("failed to open state store", zap.Error(err))
	}
	stateRepo := repository.NewStateRepository(store)

	// Load the venue catalog
	catalog, err := loadCatalog(cfg.VenueCatalogPath)
	if err != nil {
		log.Fatal("failed to load venue catalog", zap.Error(err))
	}
	log.Info("venue catalog loaded", zap.Int("venues", catalog.Len()))

	clk := clock.New()

	// Initialize notification sinks
	notifications := notification.NewBuffer(clk, 100)
	sinks := notification.Fanout{notifications, bookingEvents.NewLogSink(log)}
	if cfg.RabbitConfig.URL != "" {
		rabbit, err := mq.NewPublisher(cfg.RabbitConfig.URL, cfg.RabbitConfig.Exchange)
		if err != nil {
			log.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer func() { _ = rabbit.Close() }()
		sinks = append(sinks, bookingEvents.NewAMQPNotificationSink(rabbit, log))
	}

	// Initialize Kafka producer
	var publisher application.EventPublisher = application.NopPublisher{}
	if cfg.KafkaConfig.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	}

	// Initialize approval scheduler
	var sched scheduler.Scheduler = scheduler.Manual{}
	if cfg.ApprovalConfig.Mode == config.ApprovalSimulated {
		sched = scheduler.NewTimerScheduler(clk, scheduler.Timings{
			Urgent:   scheduler.StageDelays(cfg.ApprovalConfig.Urgent),
			Standard: scheduler.StageDelays(cfg.ApprovalConfig.Standard),
		}, log)
	}

	// Initialize application service
	bookingService := application.NewBookingService(
		stateRepo,
		catalog,
		sched,
		sinks,
		publisher,
		clk,
		log,
		application.Options{
			HistoryLimit:         cfg.HistoryLimit,
			BookingTopic:         cfg.KafkaConfig.BookingTopic,
			NotificationDuration: cfg.NotificationDefaultDuration,
		},
	)
	if err := bookingService.Restore(ctx); err != nil {
		log.Fatal("failed to restore booking state", zap.Error(err))
	}

	// Initialize and start approval decision consumer in a goroutine
	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "venue-booking-service"
		approvalConsumer := bookingEvents.NewApprovalDecisionConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			cfg.KafkaConfig.ApprovalTopic,
			bookingService,
			log,
		)
		defer func() { _ = approvalConsumer.Close() }()

		go func() {
			log.Info("starting approval decision consumer")
			if err := approvalConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("approval decision consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	handler.NewHealthHandler(stateRepo, serviceName).RegisterRoutes(router)

	// Register routes
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	handler.NewVenueHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	handler.NewNotificationHandler(notifications).RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}

// openStore returns the configured KVStore, preparing the schema first when
// it is backed by PostgreSQL.
func openStore(cfg *config.ServiceConfig, log *zap.Logger) (repository.KVStore, error) {
	if cfg.StoreDriver != config.StorePostgres {
		log.Warn("using in-memory state store; bookings are lost on restart")
		return repository.NewMemoryKVStore(), nil
	}

	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.StateModel{}); err != nil {
			return nil, fmt.Errorf("failed to run auto-migration: %w", err)
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
		return nil, err
	}

	return repository.NewGormKVStore(db), nil
}

func loadCatalog(path string) (*venue.Catalog, error) {
	if path == "" {
		return venue.Default()
	}
	return venue.Load(path)
}
