package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutela-go-api/internal/config"
	"github.com/noah-isme/tutela-go-api/internal/database"
	"github.com/noah-isme/tutela-go-api/internal/handler"
	"github.com/noah-isme/tutela-go-api/internal/middleware"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/repository"
	"github.com/noah-isme/tutela-go-api/internal/router"
	"github.com/noah-isme/tutela-go-api/internal/service"
	cloud "github.com/noah-isme/tutela-go-api/pkg/cloudinary"
	"github.com/noah-isme/tutela-go-api/pkg/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Entity{},
		&models.Person{},
		&models.Dependent{},
		&models.InviteToken{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.ComplianceRecord{},
		&models.BillingAccount{},
		&models.Invoice{},
		&models.NotificationJob{},
		&models.CertificateRecord{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, notification jobs will stay queued")
	}

	gateway, err := payment.NewStripeGateway(cfg.StripeAPIKey, logger)
	if err != nil {
		log.Fatalf("failed to create stripe gateway: %v", err)
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	entityRepo := repository.NewEntityRepository(db)
	personRepo := repository.NewPersonRepository(db)
	inviteRepo := repository.NewInviteTokenRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	complianceRepo := repository.NewComplianceRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	notificationRepo := repository.NewNotificationJobRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, natsConn, "", logger)
	entityService := service.NewEntityService(entityRepo, billingRepo, complianceRepo, validate, cfg.MonthlyFeeCents, logger)
	inviteService := service.NewInviteService(inviteRepo, entityRepo, validate, cfg.InviteTTLDays, logger)
	complianceService := service.NewComplianceService(complianceRepo, personRepo, entityRepo, notificationService, cfg.ComplianceDeadlineDays, logger)
	registrationService := service.NewRegistrationService(inviteService, personRepo, complianceService, notificationService, validate, cfg.ComplianceDeadlineDays, logger)
	quizService := service.NewQuizService(quizRepo, personRepo, validate, cfg.QuizLength, cfg.QuizPassPercent, logger)
	billingService := service.NewBillingService(billingRepo, invoiceRepo, entityRepo, notificationService, gateway, redisClient, cfg.MaxPaymentRetries, cfg.RetryBackoffDays, cfg.GracePeriodDays, logger)
	certificateService := service.NewCertificateService(certificateRepo, personRepo, quizRepo, uploader, cfg.CertificateMaxSizeMB, logger)
	quizBankService, err := service.NewQuizBankService(quizRepo, cfg.SeedEnabled, cfg.SeedToken, logger)
	if err != nil {
		log.Fatalf("failed to create quiz bank service: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EntityHandler:       handler.NewEntityHandler(entityService, logger),
		InviteHandler:       handler.NewInviteHandler(inviteService, logger),
		RegistrationHandler: handler.NewRegistrationHandler(registrationService, logger),
		QuizHandler:         handler.NewQuizHandler(quizService, logger),
		ComplianceHandler:   handler.NewComplianceHandler(complianceService, logger),
		CertificateHandler:  handler.NewCertificateHandler(certificateService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		BatchHandler:        handler.NewBatchHandler(billingService, complianceService, logger),
		SeedHandler:         handler.NewSeedHandler(quizBankService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		SchedulerMiddleware: middleware.SchedulerProtected(cfg.SchedulerSecret),
	})

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	notificationService.Start(dispatchCtx, cfg.DispatchInterval)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
