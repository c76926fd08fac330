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

	"github.com/noah-isme/olympiad-api/internal/config"
	"github.com/noah-isme/olympiad-api/internal/database"
	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/handler"
	"github.com/noah-isme/olympiad-api/internal/incentive"
	"github.com/noah-isme/olympiad-api/internal/middleware"
	"github.com/noah-isme/olympiad-api/internal/repository"
	"github.com/noah-isme/olympiad-api/internal/router"
	"github.com/noah-isme/olympiad-api/internal/scoring"
	"github.com/noah-isme/olympiad-api/internal/service"
	"github.com/noah-isme/olympiad-api/internal/tables"
	cloud "github.com/noah-isme/olympiad-api/pkg/cloudinary"
	"github.com/noah-isme/olympiad-api/pkg/razorpay"
	"github.com/noah-isme/olympiad-api/pkg/sendgrid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	refTables, err := tables.Load(cfg.TablesPath)
	if err != nil {
		log.Fatalf("failed to load reference tables: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := docstore.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured; caching and callback dedupe disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	var delivery service.MailDelivery = service.NewLogMailDelivery(logger)
	if cfg.SendGridAPIKey != "" {
		sg, err := sendgrid.New(sendgrid.Config{
			APIKey:      cfg.SendGridAPIKey,
			FromName:    cfg.MailFromName,
			FromAddress: cfg.MailFromAddress,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create sendgrid client: %v", err)
		}
		delivery = sg
	}
	mailer, err := service.NewMailer(delivery, logger)
	if err != nil {
		log.Fatalf("failed to create mailer: %v", err)
	}

	var archive service.RosterArchive
	if cfg.CloudinaryCloudName != "" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		archive = uploader
	}

	gateway := razorpay.New(razorpay.Config{
		KeyID:       cfg.RazorpayKeyID,
		KeySecret:   cfg.RazorpayKeySecret,
		BaseURL:     cfg.RazorpayBaseURL,
		IFSCBaseURL: cfg.IFSCBaseURL,
		Timeout:     cfg.HTTPClientTimeout,
	}, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())
	store := docstore.NewGormGateway(db)
	resolver := scoring.NewResolver(nil)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.StudentTokenTTL, cfg.StaffTokenTTL)
	events := service.NewEventPublisher(redisClient, natsConn, cfg.EventSubjectBase, logger)

	studentRepo := repository.NewStudentRepository(store)
	coordinatorRepo := repository.NewCoordinatorRepository(store)
	schoolRepo := repository.NewSchoolRepository(store)
	adminRepo := repository.NewAdminRepository(store)
	certificateRepo := repository.NewCertificateRepository(store)
	referenceCodeRepo := repository.NewReferenceCodeRepository(store)
	callbackRepo := repository.NewCallbackRepository(store)

	incentiveService := service.NewIncentiveService(coordinatorRepo, studentRepo, incentive.NewCalculator(refTables), redisClient, events, logger)
	rankingService := service.NewRankingService(studentRepo, certificateRepo, refTables, resolver, events, validate, logger)
	studentService := service.NewStudentService(studentRepo, referenceCodeRepo, incentiveService, tokens, validate, logger)
	schoolService := service.NewSchoolService(schoolRepo, studentRepo, rankingService, tokens, validate, logger)
	coordinatorService := service.NewCoordinatorService(service.CoordinatorServiceDeps{
		Coordinators: coordinatorRepo,
		Students:     studentRepo,
		Incentives:   incentiveService,
		Mailer:       mailer,
		Tokens:       tokens,
		Banks:        gateway,
		Cache:        redisClient,
		CacheTTL:     cfg.LeaderboardCacheTTL,
		Validator:    validate,
		Logger:       logger,
	})
	adminService := service.NewAdminService(service.AdminServiceDeps{
		Admins:       adminRepo,
		Students:     studentRepo,
		Schools:      schoolRepo,
		Coordinators: coordinatorRepo,
		StudentSvc:   studentService,
		Mailer:       mailer,
		Events:       events,
		Cache:        redisClient,
		Tokens:       tokens,
		Validator:    validate,
		Logger:       logger,
	})
	importService := service.NewBulkImportService(service.BulkImportDeps{
		Students:     studentRepo,
		Coordinators: coordinatorRepo,
		Rankings:     rankingService,
		Incentives:   incentiveService,
		Tables:       refTables,
		Archive:      archive,
		Cache:        redisClient,
		BatchSize:    cfg.BulkBatchSize,
		MaxSizeMB:    cfg.UploadMaxMB,
		Logger:       logger,
	})
	callbackService := service.NewCallbackService(callbackRepo, redisClient, validate, logger)
	paymentService := service.NewPaymentService(gateway, validate, logger)

	studentHandler := handler.NewStudentHandler(studentService, rankingService, service.NewCertificateService(certificateRepo), callbackService, logger)
	schoolHandler := handler.NewSchoolHandler(schoolService, importService, logger)
	coordinatorHandler := handler.NewCoordinatorHandler(coordinatorService, incentiveService, importService, logger)
	adminHandler := handler.NewAdminHandler(handler.AdminHandlerDeps{
		Admin:          adminService,
		ReferenceCodes: service.NewReferenceCodeService(referenceCodeRepo, resolver, validate, logger),
		Callbacks:      callbackService,
		Imports:        importService,
		Logger:         logger,
	})
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)

	probes := []handler.HealthProbe{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if redisClient != nil {
		probes = append(probes, handler.HealthProbe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:     studentHandler,
		AdminHandler:       adminHandler,
		SchoolHandler:      schoolHandler,
		CoordinatorHandler: coordinatorHandler,
		PaymentHandler:     paymentHandler,
		HealthProbes:       probes,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

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
