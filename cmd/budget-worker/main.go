package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage"
	"budget/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting budget-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker reads the same database the server writes to.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	budgets := services.NewBudgetService(repo, nil)
	expenses := services.NewExpenseService(repo, nil)
	recommendations := services.NewRecommendationService(budgets, expenses)
	alertWorker := worker.NewAlertWorker(recommendations)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := amqpClient.ConsumeLedgerEvents(ctx, alertWorker.HandleLedgerEvent); err != nil && err != context.Canceled {
			logger.Error("Event consumption failed", "error", err)
			return err
		}
		return nil
	})

	// Periodic sweep re-checks known months even without new events;
	// time passing alone changes recommendations and alerts.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.AlertInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := alertWorker.Sweep(ctx); err != nil {
					logger.Error("Alert sweep failed", "error", err)
				}
			}
		}
	})

	<-ctx.Done()
	logger.Info("Shutting down worker...")

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	case err := <-done:
		if err != nil {
			logger.Error("Worker exited with error", "error", err)
			os.Exit(1)
		}
		logger.Info("Worker shutdown complete")
	}
}
