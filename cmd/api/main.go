package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go-retail-backoffice/internal/handler"
	"go-retail-backoffice/internal/middleware"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/push"
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/internal/service"
	"go-retail-backoffice/internal/ws"
	"go-retail-backoffice/pkg/config"
	"go-retail-backoffice/pkg/database"
	"go-retail-backoffice/pkg/jwt"
	"go-retail-backoffice/pkg/logger"
	"go-retail-backoffice/pkg/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 20 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// 1. Load config and logger
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zlog, err := logger.New(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.Server.AppName,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zlog.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(&cfg.DB, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			zlog.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// 3. Seed default privileges, roles, sizes and the owner account
	if err := repository.SeedDefaults(db, repository.AdminAccount{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		FullName: cfg.Admin.FullName,
	}, zlog); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Setup WebSocket Hub and metrics
	wsHub := ws.NewHub(zlog)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(cfg.Metrics.Prefix, registry)

	// 5. Dependency Injection (Wiring Layers)
	uow := database.NewUnitOfWork(db, database.TxOptions{MaxWait: cfg.DB.TxMaxWait, Timeout: cfg.DB.TxTimeout})
	sender := push.NewOneSignal(push.Config{
		AppID:      cfg.OneSignal.AppID,
		RESTAPIKey: cfg.OneSignal.RESTAPIKey,
		APIURL:     cfg.OneSignal.APIURL,
		Timeout:    cfg.OneSignal.Timeout,
	}, zlog)
	tokens := jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpirationHours)*time.Hour, cfg.JWT.Issuer)

	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)

	authService := service.NewAuthService(userRepo, tokens, zlog)
	productService := service.NewProductService(productRepo, uow, wsHub, zlog)
	txService := service.NewTransactionService(txRepo, uow, wsHub, appMetrics, zlog)
	reportService := service.NewReportService(txRepo)
	notificationService := service.NewNotificationService(sender, repository.NewNotificationRepo(db), userRepo, productRepo, zlog)
	alertService := service.NewStockAlertService(repository.NewNotificationLogRepo(db), notificationService, wsHub, appMetrics, zlog)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.Server.AppName,
		ErrorHandler: middleware.ErrorHandler(zlog),
	})

	app.Use(requestid.New())
	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(cors.New())
	app.Use(appMetrics.Middleware())
	app.Use(logger.Middleware(zlog))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "websocket_clients": wsHub.ClientCount()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 7. Routes
	handler.Register(app.Group("/api/v1"), handler.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Products:      handler.NewProductHandler(productService),
		Transactions:  handler.NewTransactionHandler(txService),
		Reports:       handler.NewReportHandler(reportService),
		Notifications: handler.NewNotificationHandler(notificationService, alertService, zlog),
		Roles:         handler.NewRoleHandler(roleRepo, privilegeRepo),
		Catalog:       handler.NewCatalogHandler(repository.NewCatalogRepo(db)),
	}, authService, cfg.Cron.Secret)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(wsHub.Serve))

	// 8. Run until a signal arrives, then shut down gracefully
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsHub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		zlog.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zlog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zlog.Info("server exited")
	return nil
}
