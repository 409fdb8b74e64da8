package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	httptransport "github.com/nxl-pharma/crm-api/internal/api/http"
	"github.com/nxl-pharma/crm-api/internal/api/http/handlers"
	"github.com/nxl-pharma/crm-api/internal/analytics"
	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/config"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/events"
	"github.com/nxl-pharma/crm-api/internal/mail"
	"github.com/nxl-pharma/crm-api/internal/observability"
	"github.com/nxl-pharma/crm-api/internal/persistence"
	"github.com/nxl-pharma/crm-api/internal/repository"
	"github.com/nxl-pharma/crm-api/internal/service"
	"github.com/nxl-pharma/crm-api/internal/storage"
	"github.com/nxl-pharma/crm-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("failed to connect mongo", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	if cfg.Mongo.EnsureIndexes {
		if err := persistence.EnsureIndexes(ctx, mongo.DB, logger); err != nil {
			logger.Fatal("failed to ensure indexes", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var objectStore service.ObjectStore
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to init object storage", zap.Error(err))
		}
		objectStore = s3
	} else {
		logger.Warn("object storage not configured; media uploads disabled")
	}

	geo, err := analytics.OpenGeoIP(cfg.Analytics.GeoIPDBPath)
	if err != nil {
		logger.Warn("geoip database unavailable; country lookups disabled", zap.Error(err))
	}
	defer geo.Close() //nolint:errcheck

	mailer := mail.New(cfg.Mail)
	if !mailer.Enabled() {
		logger.Info("mail delivery disabled")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	staffRepo := repository.NewStaffRepository(mongo.Collection(persistence.CollectionStaff))
	resetRepo := repository.NewPasswordResetRepository(mongo.Collection(persistence.CollectionPasswordResets))
	subscriberRepo := repository.NewSubscriberRepository(mongo.Collection(persistence.CollectionSubscribers))
	inquiryRepo := repository.NewInquiryRepository(mongo.Collection(persistence.CollectionInquiries))
	visitorRepo := repository.NewVisitorRepository(mongo.Collection(persistence.CollectionVisitors))
	activityRepo := repository.NewActivityLogRepository(mongo.Collection(persistence.CollectionActivityLogs))
	mediaRepos := []repository.MediaRepository{
		repository.NewMediaRepository(domain.MediaKindGallery, mongo.Collection(persistence.CollectionGallery)),
		repository.NewMediaRepository(domain.MediaKindCertifications, mongo.Collection(persistence.CollectionCertifications)),
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
		Keys:              redis,
		TokenManager:      tokenManager,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	staffService := service.NewStaffService(*cfg, service.StaffDependencies{
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
		Dispatcher:        dispatcher,
		Mailer:            mailer,
		Logger:            logger,
	})
	subscriberService := service.NewSubscriberService(service.SubscriberDependencies{
		SubscriberRepo: subscriberRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	inquiryService := service.NewInquiryService(service.InquiryDependencies{
		InquiryRepo: inquiryRepo,
		Dispatcher:  dispatcher,
		Mailer:      mailer,
		Logger:      logger,
	})
	mediaService := service.NewMediaService(cfg.Storage, service.MediaDependencies{
		Repos:      mediaRepos,
		Store:      objectStore,
		Keys:       redis,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	analyticsService := service.NewAnalyticsService(*cfg, service.AnalyticsDependencies{
		InquiryRepo:    inquiryRepo,
		SubscriberRepo: subscriberRepo,
		VisitorRepo:    visitorRepo,
		Media:          mediaService,
		GeoIP:          geo,
		Logger:         logger,
	})
	exportService := service.NewExportService(service.ExportDependencies{
		InquiryRepo:     inquiryRepo,
		ActivityLogRepo: activityRepo,
	})
	notificationService := service.NewNotificationService(*cfg, service.NotificationDependencies{
		Dispatcher:      dispatcher,
		ActivityLogRepo: activityRepo,
		StaffRepo:       staffRepo,
		Mailer:          mailer,
		Logger:          logger,
	})
	worker.StartNotificationWorker(notificationService)

	if cfg.Seed.Enabled() {
		if _, err := authService.SeedDevAccount(ctx, cfg.Seed); err != nil {
			logger.Error("failed to seed dev account", zap.Error(err))
		}
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), staffRepo, cfg.Auth.CookieName)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitBytes,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowCredentials: cfg.App.CORSOrigins != "*",
		AllowHeaders:     strings.Join([]string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization}, ","),
	}))
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"mongo": mongo,
			"redis": redis,
		}),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth),
		Staff:          handlers.NewStaffHandler(staffService),
		Subscribers:    handlers.NewSubscribersHandler(subscriberService, cfg.Storage.MaxUploadBytes),
		Inquiries:      handlers.NewInquiriesHandler(inquiryService),
		Media:          handlers.NewMediaHandler(mediaService, analyticsService.VisitorHash),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		Export:         handlers.NewExportHandler(exportService),
		System:         handlers.NewSystemHandler(metrics, cfg.App.Version),
		AuthMiddleware: authMiddleware,
		PublicLimiter:  httptransport.NewIPRateLimiter(cfg.App.PublicRateRPS, cfg.App.PublicRateBurst),
		BeaconLimiter:  httptransport.NewIPRateLimiter(cfg.App.BeaconRateRPS, cfg.App.BeaconRateBurst),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
