package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/course-checkout/internal/checkout"
	"github.com/nikolayk812/course-checkout/internal/config"
	"github.com/nikolayk812/course-checkout/internal/gateway"
	"github.com/nikolayk812/course-checkout/internal/httpapi"
	"github.com/nikolayk812/course-checkout/internal/metrics"
	"github.com/nikolayk812/course-checkout/internal/migrations"
	"github.com/nikolayk812/course-checkout/internal/outbox"
	"github.com/nikolayk812/course-checkout/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap.NewProduction: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Error("checkout-service stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrations.Up: %w", err)
		}
		logger.Info("database migrations completed")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("pgxpool.New: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pool.Ping: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg, "api")
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	stripeGateway, err := gateway.NewStripe(gateway.Config{
		SecretKey:  cfg.StripeSecretKey,
		APIURL:     cfg.StripeAPIURL,
		Timeout:    cfg.GatewayTimeout,
		MaxRetries: cfg.GatewayMaxRetries,
	}, logger.Named("stripe"))
	if err != nil {
		return fmt.Errorf("gateway.NewStripe: %w", err)
	}

	svc, err := checkout.NewService(checkout.Deps{
		Carts:       repository.NewCart(pool),
		Courses:     repository.NewCourseCatalog(pool),
		Users:       repository.NewUserDirectory(pool),
		Gateway:     stripeGateway,
		Ledger:      repository.NewLedger(pool),
		Enrollments: repository.NewEnrollment(pool),
	}, checkout.Config{
		Currency:      cfg.Currency,
		SettleTimeout: cfg.SettleTimeout,
	}, logger.Named("checkout"), checkoutMetrics)
	if err != nil {
		return fmt.Errorf("checkout.NewService: %w", err)
	}

	var wg sync.WaitGroup

	if len(cfg.KafkaBrokers) > 0 {
		writer := outbox.NewWriter(cfg.KafkaBrokers, cfg.OutboxTopic)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Warn("kafka writer close", zap.Error(err))
			}
		}()

		poller := outbox.NewPoller(repository.NewOutbox(pool), writer, outbox.Config{
			Interval:  cfg.OutboxInterval,
			BatchSize: cfg.OutboxBatch,
		}, logger.Named("outbox"), checkoutMetrics)

		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
		logger.Info("outbox relay started", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.OutboxTopic))
	} else {
		logger.Warn("KAFKA_BROKERS is empty, purchase events stay in the outbox")
	}

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: httpapi.NewRouter(svc, httpapi.Config{
			RequestTimeout: cfg.RequestTimeout,
		}, logger.Named("http"), serverMetrics, reg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("checkout-service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("srv.ListenAndServe: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("srv.Shutdown: %w", err)
	}

	wg.Wait()
	return runErr
}
