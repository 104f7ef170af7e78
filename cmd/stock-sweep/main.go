// Command stock-sweep runs one stock alert sweep and exits. It is meant for
// schedulers that start binaries instead of calling the HTTP endpoint.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-retail-backoffice/internal/push"
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/internal/service"
	"go-retail-backoffice/internal/ws"
	"go-retail-backoffice/pkg/config"
	"go-retail-backoffice/pkg/database"
	"go-retail-backoffice/pkg/logger"
	"go-retail-backoffice/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("stock sweep failed: %v", err)
		os.Exit(1)
	}
}

// discard drops live events; nobody is connected to a one-shot process.
type discard struct{}

func (discard) Publish(ws.Event) {}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zlog, err := logger.New(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: "stock-sweep",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zlog.Sync()

	db, err := database.ConnectDB(&cfg.DB, zlog)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := push.NewOneSignal(push.Config{
		AppID:      cfg.OneSignal.AppID,
		RESTAPIKey: cfg.OneSignal.RESTAPIKey,
		APIURL:     cfg.OneSignal.APIURL,
		Timeout:    cfg.OneSignal.Timeout,
	}, zlog)

	notifications := service.NewNotificationService(
		sender,
		repository.NewNotificationRepo(db),
		repository.NewUserRepo(db),
		repository.NewProductRepo(db),
		zlog,
	)
	alerts := service.NewStockAlertService(
		repository.NewNotificationLogRepo(db),
		notifications,
		discard{},
		metrics.New(cfg.Metrics.Prefix, prometheus.NewRegistry()),
		zlog,
	)

	result, err := alerts.Sweep(ctx)
	if err != nil {
		return err
	}

	zlog.Info("stock sweep completed",
		zap.Int("sent", result.NotificationsSentCount),
		zap.Int("failed", result.FailedCount),
		zap.Int("cleared", result.ClearedProductsCount))
	if result.FailedCount > 0 {
		return fmt.Errorf("%d of %d alerts were not delivered", result.FailedCount, result.FailedCount+result.NotificationsSentCount)
	}
	return nil
}
