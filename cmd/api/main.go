package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/autotickets/autotickets/internal/api/http"
	"github.com/autotickets/autotickets/internal/api/http/handlers"
	"github.com/autotickets/autotickets/internal/auth"
	"github.com/autotickets/autotickets/internal/channel"
	"github.com/autotickets/autotickets/internal/config"
	"github.com/autotickets/autotickets/internal/events"
	"github.com/autotickets/autotickets/internal/observability"
	"github.com/autotickets/autotickets/internal/persistence"
	"github.com/autotickets/autotickets/internal/repository"
	"github.com/autotickets/autotickets/internal/scheduler"
	"github.com/autotickets/autotickets/internal/service"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	ruleRepo := repository.NewAutomationRuleRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CompanyRepo: companyRepo,
		AdminRepo:   adminRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), companyRepo, adminRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		CompanyRepo: companyRepo,
		Dispatcher:  dispatcher,
	})
	automationService := service.NewAutomationService(ruleRepo, settingsRepo)
	schedulerService := service.NewSchedulerService(ticketRepo, ruleRepo, logger, metrics)

	catalog := channel.NewGraphTemplateCatalog(redis.Client, logger)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		SettingsRepo:    settingsRepo,
		CompanyRepo:     companyRepo,
		Dispatcher:      dispatcher,
		WhatsApp:        channel.NewWhatsAppClient(logger, catalog),
		Email:           channel.NewSMTPEmailClient(logger),
		Discord:         channel.NewDiscordWebhookClient(logger),
		Catalog:         catalog,
		Logger:          logger,
		FrontendBaseURL: cfg.App.FrontendBaseURL,
	})
	notificationService.Start(dispatcher)
	defer notificationService.Stop()

	driver := scheduler.NewDriver(schedulerService, redis.Client, cfg.Scheduler, logger)
	driver.Start()
	defer driver.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AdminTickets:   handlers.NewAdminTicketsHandler(ticketService),
		Automation:     handlers.NewAutomationHandler(automationService, schedulerService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
