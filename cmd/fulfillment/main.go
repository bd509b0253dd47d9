// Package main запускает HTTP-сервер сервиса обработки заказов.
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
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/order-fulfillment/internal/config"
	"github.com/mmeshcher/order-fulfillment/internal/handler"
	"github.com/mmeshcher/order-fulfillment/internal/metrics"
	"github.com/mmeshcher/order-fulfillment/internal/middleware"
	"github.com/mmeshcher/order-fulfillment/internal/notify"
	"github.com/mmeshcher/order-fulfillment/internal/repository"
	"github.com/mmeshcher/order-fulfillment/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	if cfg.IssueTokenFor != "" {
		if cfg.AuthSecret == "" {
			sugar.Fatal("AUTH_SECRET is required to issue operator tokens")
		}
		fmt.Println(middleware.NewAuthMiddleware(cfg.AuthSecret).IssueToken(cfg.IssueTokenFor))
		return
	}

	var repo service.Repository
	if cfg.DatabaseURI != "" {
		repo, err = repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
	} else {
		sugar.Warn("DATABASE_URI is empty, using in-memory storage")
		repo = repository.NewMemoryRepository()
	}

	var notifier notify.Gateway = notify.Disabled{}
	switch {
	case len(cfg.Brokers()) > 0:
		producer, err := notify.NewKafkaProducer(cfg.Brokers())
		if err != nil {
			sugar.Fatalw("kafka producer initialization error", "error", err.Error())
		}
		publisher := notify.NewKafkaPublisher(producer, cfg.NotificationTopic, logger)
		defer publisher.Close()
		notifier = publisher
	case cfg.NotificationGatewayAddress != "":
		notifier = notify.NewHTTPGateway(cfg.NotificationGatewayAddress)
	default:
		sugar.Warn("notification gateway is not configured, confirmations are not sent")
	}

	m := metrics.New()

	svc := service.NewService(repo, notifier, m, logger)
	defer svc.Close()

	var auth *middleware.AuthMiddleware
	if cfg.AuthSecret != "" {
		auth = middleware.NewAuthMiddleware(cfg.AuthSecret)
	} else {
		sugar.Warn("AUTH_SECRET is empty, requests are not authenticated")
	}

	h := handler.NewHandler(svc, logger, auth, m)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting order fulfillment server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
