// Package main запускает симулятор нагрузки интернет-магазина.
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

	"github.com/mmeshcher/shopsim-system/internal/analytics"
	"github.com/mmeshcher/shopsim-system/internal/catalog"
	"github.com/mmeshcher/shopsim-system/internal/clock"
	"github.com/mmeshcher/shopsim-system/internal/config"
	"github.com/mmeshcher/shopsim-system/internal/handler"
	"github.com/mmeshcher/shopsim-system/internal/inventory"
	"github.com/mmeshcher/shopsim-system/internal/notification"
	"github.com/mmeshcher/shopsim-system/internal/order"
	"github.com/mmeshcher/shopsim-system/internal/random"
	"github.com/mmeshcher/shopsim-system/internal/scheduler"
	"github.com/mmeshcher/shopsim-system/internal/session"
	"github.com/mmeshcher/shopsim-system/internal/sim"
	"github.com/mmeshcher/shopsim-system/internal/user"
)

const shutdownGrace = 5 * time.Second

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	clk := clock.System()
	rnd := random.New(cfg.RandomSeed)

	users := user.NewRegistry(clk, logger.Named("users"))
	cat := catalog.New(logger.Named("catalog"))
	sessions := session.NewStore(session.Config{
		Timeout:       cfg.SessionTimeout,
		PurgeHorizon:  cfg.PurgeHorizon,
		RetainExpired: cfg.RetainExpired,
	}, clk, rnd, logger.Named("sessions"))
	ledger := inventory.NewLedger(logger.Named("inventory"))
	orders := order.NewProcessor(ledger, clk, rnd, logger.Named("orders"))
	notifications := notification.NewQueue(clk, rnd, logger.Named("notifications"))
	stats := analytics.NewAggregator(clk, logger.Named("analytics"))

	driver := sim.NewDriver(sim.Config{NotificationBatch: cfg.NotificationBatch},
		users, cat, sessions, ledger, orders, notifications, stats,
		rnd, logger.Named("sim"))
	driver.SeedSampleData()

	orchestrator := scheduler.New(cfg.WorkerCount, logger.Named("scheduler"))
	driver.RegisterTasks(orchestrator)

	h := handler.NewHandler(sessions, ledger, notifications, stats, orders, users, cat, logger)
	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск основного цикла симуляции
	g.Go(func() error {
		driver.Run(ctx)
		return nil
	})

	// Запуск HTTP-сервера статистики
	g.Go(func() error {
		sugar.Infow("starting stats server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down simulator...")

		orchestrator.Stop(shutdownGrace)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("simulator stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
