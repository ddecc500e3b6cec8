package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/jobcard-service/internal/api/http"
	"github.com/spec-kit/jobcard-service/internal/api/http/handlers"
	"github.com/spec-kit/jobcard-service/internal/auth"
	"github.com/spec-kit/jobcard-service/internal/config"
	"github.com/spec-kit/jobcard-service/internal/events"
	"github.com/spec-kit/jobcard-service/internal/observability"
	"github.com/spec-kit/jobcard-service/internal/persistence"
	"github.com/spec-kit/jobcard-service/internal/repository"
	"github.com/spec-kit/jobcard-service/internal/service"
	"github.com/spec-kit/jobcard-service/internal/validation"
	"github.com/spec-kit/jobcard-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	employeeRepo := repository.NewEmployeeRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	siteRepo := repository.NewSiteRepository(pool)
	jobCardRepo := repository.NewJobCardRepository(pool)
	noteRepo := repository.NewJobCardNoteRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	historyRepo := repository.NewJobCardHistoryRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	limiter := auth.NewLoginLimiter(redis.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginAttemptWindow(), logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		EmployeeRepo:      employeeRepo,
		PasswordResetRepo: resetRepo,
		LoginLimiter:      limiter,
		Logger:            logger,
	})
	jobCardService := service.NewJobCardService(service.JobCardDependencies{
		JobCardRepo:    jobCardRepo,
		NoteRepo:       noteRepo,
		AttachmentRepo: attachmentRepo,
		DepartmentRepo: departmentRepo,
		SiteRepo:       siteRepo,
		EmployeeRepo:   employeeRepo,
		HistoryRepo:    historyRepo,
		Dispatcher:     dispatcher,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		JobCardRepo:  jobCardRepo,
		EmployeeRepo: employeeRepo,
		HistoryRepo:  historyRepo,
		Dispatcher:   dispatcher,
	})
	orgService := service.NewOrgService(*cfg, service.OrgDependencies{
		DepartmentRepo: departmentRepo,
		SiteRepo:       siteRepo,
		EmployeeRepo:   employeeRepo,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService, logger)
	worker.NewOverdueScanner(jobCardRepo, dispatcher, logger,
		cfg.Worker.OverdueScanInterval(), cfg.Worker.OverdueScanBatchSize).Start(ctx)

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), employeeRepo)
	validate := validation.New()
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, validate),
		Org:            handlers.NewOrgHandler(orgService, validate),
		JobCards:       handlers.NewJobCardsHandler(jobCardService, assignmentService, validate),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
