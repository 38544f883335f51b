package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fakturo/billing-api/docs"
	"github.com/fakturo/billing-api/internal/accounting"
	"github.com/fakturo/billing-api/internal/auth"
	"github.com/fakturo/billing-api/internal/config"
	"github.com/fakturo/billing-api/internal/database"
	"github.com/fakturo/billing-api/internal/http/handler"
	"github.com/fakturo/billing-api/internal/http/middleware"
	"github.com/fakturo/billing-api/internal/http/router"
	"github.com/fakturo/billing-api/internal/jobs"
	"github.com/fakturo/billing-api/internal/logger"
	"github.com/fakturo/billing-api/internal/pdf"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/internal/service"
	"github.com/fakturo/billing-api/internal/storage"
)

// @title Billing API
// @version 1.0
// @description Quotes and invoices API with server-side document totals

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to run auto migrations: %w", err)
		}
		log.Info("Auto migration completed")
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize accounting warehouse connection (optional)
	// Read-only; the app continues without it if not configured
	var accountingClient *accounting.Client
	if cfg.Accounting.Enabled {
		accountingClient, err = accounting.NewClient(&cfg.Accounting, log)
		if err != nil {
			log.Warn("Accounting connection failed, continuing without it", zap.Error(err))
		} else if accountingClient != nil {
			log.Info("Accounting warehouse connected",
				zap.Int("max_open_conns", cfg.Accounting.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.Accounting.QueryTimeout),
			)
		}
	} else {
		log.Info("Accounting warehouse not configured, skipping")
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	contactRepo := repository.NewContactRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	productRepo := repository.NewProductRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	itemRepo := repository.NewDocumentItemRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	profileRepo := repository.NewBusinessProfileRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	fileRepo := repository.NewFileRepository(db)

	// Initialize services
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, profileRepo, log)
	clientService := service.NewClientService(clientRepo, documentRepo, activityRepo, log)
	contactService := service.NewContactService(contactRepo, clientRepo, log)
	projectService := service.NewProjectService(projectRepo, clientRepo, log)
	productService := service.NewProductService(productRepo, log)
	templateService := service.NewTemplateService(templateRepo, log)
	documentService := service.NewDocumentService(
		documentRepo, itemRepo, clientRepo, contactRepo, projectRepo, productRepo,
		templateRepo, profileRepo, numberSequenceService, activityRepo, log, db,
	)
	lifecycleService := service.NewDocumentLifecycleService(
		documentRepo, itemRepo, paymentRepo, numberSequenceService, activityRepo, log,
	)
	settingsService := service.NewSettingsService(profileRepo, fileRepo, fileStorage, log)
	pdfService := service.NewPDFService(
		documentRepo, profileRepo, templateRepo, fileRepo, fileStorage, pdf.NewRenderer(log), log,
	)
	activityService := service.NewActivityService(activityRepo, log)
	paymentSyncService := service.NewPaymentSyncService(accountingClient, documentRepo, lifecycleService, log)
	overdueService := service.NewOverdueService(documentRepo, lifecycleService, log)

	// Seed built-in PDF templates
	if err := templateService.Seed(ctx); err != nil {
		log.Warn("Failed to seed templates", zap.Error(err))
	}

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	clientHandler := handler.NewClientHandler(clientService, log)
	contactHandler := handler.NewContactHandler(contactService, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	productHandler := handler.NewProductHandler(productService, log)
	documentHandler := handler.NewDocumentHandler(documentService, log)
	lifecycleHandler := handler.NewDocumentLifecycleHandler(lifecycleService, pdfService, log)
	templateHandler := handler.NewTemplateHandler(templateService, log)
	settingsHandler := handler.NewSettingsHandler(settingsService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		clientHandler,
		contactHandler,
		projectHandler,
		productHandler,
		documentHandler,
		lifecycleHandler,
		templateHandler,
		settingsHandler,
		activityHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		if paymentSyncService.Enabled() {
			if err := jobs.RegisterPaymentSyncJob(
				scheduler,
				paymentSyncService,
				log,
				cfg.Jobs.PaymentSyncSchedule,
				cfg.Accounting.QueryTimeoutDuration(),
				true, // catch up at startup
			); err != nil {
				log.Error("Failed to register payment sync job", zap.Error(err))
			}
		}

		if err := jobs.RegisterOverdueJob(scheduler, overdueService, log, cfg.Jobs.OverdueSchedule); err != nil {
			log.Error("Failed to register overdue job", zap.Error(err))
		}

		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.JobNames()))
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			stopCtx := scheduler.Stop()
			<-stopCtx.Done()
			log.Info("Scheduler stopped")
		}

		if accountingClient != nil {
			if err := accountingClient.Close(); err != nil {
				log.Warn("Failed to close accounting connection", zap.Error(err))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("Server stopped")
	}

	return nil
}
