package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/maintenance-service/internal/api/http"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/persistence"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
	"github.com/spec-kit/maintenance-service/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	equipmentRepo := repository.NewEquipmentRepository(pool)
	materialRepo := repository.NewMaterialRepository(pool)
	transactionRepo := repository.NewInventoryTransactionRepository(pool)
	maintenanceRepo := repository.NewMaintenanceTicketRepository(pool)
	repairRepo := repository.NewRepairTicketRepository(pool)

	txManager := persistence.NewTxManager(pool)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(cfg.Auth, userRepo)
	equipmentService := service.NewEquipmentService(cfg.Scheduler, service.EquipmentDependencies{
		EquipmentRepo: equipmentRepo,
		Dispatcher:    dispatcher,
		Cache:         redis.Client,
	})
	inventoryService := service.NewInventoryService(service.InventoryDependencies{
		MaterialRepo:    materialRepo,
		TransactionRepo: transactionRepo,
		Dispatcher:      dispatcher,
	})
	maintenanceService := service.NewMaintenanceTicketService(cfg.Scheduler, service.MaintenanceTicketDependencies{
		TicketRepo:    maintenanceRepo,
		EquipmentRepo: equipmentRepo,
		InventoryRepo: transactionRepo,
		MaterialRepo:  materialRepo,
		UserRepo:      userRepo,
		Dispatcher:    dispatcher,
		Tx:            txManager,
	})
	repairService := service.NewRepairTicketService(cfg.Scheduler, service.RepairTicketDependencies{
		TicketRepo:    repairRepo,
		EquipmentRepo: equipmentRepo,
		InventoryRepo: transactionRepo,
		MaterialRepo:  materialRepo,
		UserRepo:      userRepo,
		Dispatcher:    dispatcher,
		Tx:            txManager,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:             handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:               handlers.NewAuthHandler(authService),
		Equipment:          handlers.NewEquipmentHandler(equipmentService),
		Materials:          handlers.NewMaterialsHandler(inventoryService),
		MaintenanceTickets: handlers.NewMaintenanceTicketsHandler(maintenanceService),
		RepairTickets:      handlers.NewRepairTicketsHandler(repairService),
		AuthMiddleware:     authMiddleware,
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
