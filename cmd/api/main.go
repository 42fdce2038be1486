package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	apiMode := pflag.Bool("api", false, "accept requests without an Origin header (API clients, curl)")
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before the environment")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *apiMode {
		cfg.CORS.AllowNoOrigin = true
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics("helpdesk")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redis.Close()

	var (
		userRepo   repository.UserRepository
		ticketRepo repository.TicketRepository
	)
	if pool != nil {
		userRepo = repository.NewUserRepository(pool)
		ticketRepo = repository.NewTicketRepository(pool)
	} else {
		store := memory.NewStore()
		userRepo = store.Users()
		ticketRepo = store.Tickets()
	}

	var confirmationRepo repository.ConfirmationTokenRepository
	if redis != nil {
		confirmationRepo = repository.NewConfirmationTokenRepository(redis.Client, cfg.Redis.KeyPrefix, cfg.Auth.ConfirmationTTL())
	} else {
		confirmationRepo = memory.NewConfirmationTokens(cfg.Auth.ConfirmationTTL())
	}

	var avatars service.AvatarStore
	if cfg.Storage.Enabled() {
		objects, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to init object storage", zap.Error(err))
		}
		avatars = storage.NewAvatarStore(objects, cfg.Storage.AvatarFolder)
	} else {
		logger.Warn("S3_BUCKET not provided; avatar uploads are disabled")
	}

	dispatcher := events.NewAsyncDispatcher(logger)
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:      dispatcher,
		Mailer:          notify.NewMailer(cfg.Notification, logger),
		Composer:        notify.NewComposer(cfg.Notification.ClientURL),
		Recorder:        metrics,
		Logger:          logger,
		ConfirmationTTL: cfg.Auth.ConfirmationTTL(),
	})
	notificationWorker := worker.StartNotificationWorker(notifications, dispatcher, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:         userRepo,
		ConfirmationRepo: confirmationRepo,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo: userRepo,
		Avatars:  avatars,
		Logger:   logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout: cfg.App.RequestTimeout(),
		CORS:    cfg.CORS,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	notificationWorker.Stop(shutdownTimeout)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
