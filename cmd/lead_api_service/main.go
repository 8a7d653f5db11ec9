package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/adapters/delivery"
	"github.com/ellistech/leadgate/internal/lead_service/adapters/events"
	"github.com/ellistech/leadgate/internal/lead_service/app"
	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/ellistech/leadgate/internal/lead_service/repository"
	"github.com/ellistech/leadgate/internal/lead_service/repository/memory"
	"github.com/ellistech/leadgate/internal/lead_service/repository/postgres"
	httptransport "github.com/ellistech/leadgate/internal/lead_service/transport/http"
	"github.com/ellistech/leadgate/internal/platform/config"
	"github.com/ellistech/leadgate/internal/platform/database"
	"github.com/ellistech/leadgate/internal/platform/logger"
	"github.com/ellistech/leadgate/internal/platform/messagebroker"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName     = "lead_api_service"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}
	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)

	mainCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(mainCtx, cfg, appLogger); err != nil {
		appLogger.Error("Lead API service stopped with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Lead API service shut down")
}

func run(mainCtx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	catalog := domain.DefaultCatalog()
	if cfg.FormsFile != "" {
		var err error
		if catalog, err = domain.LoadCatalog(cfg.FormsFile); err != nil {
			return err
		}
		appLogger.Info("Loaded form catalog", "path", cfg.FormsFile)
	}

	validate := validator.New()
	fieldValidator, err := app.NewFieldValidator(validate, catalog)
	if err != nil {
		return err
	}
	sender := delivery.NewSender(appLogger, cfg.DeliveryEndpoint, cfg.DeliveryTimeout)
	appLogger.Info("Delivery sender configured", "endpoint", cfg.DeliveryEndpoint, "timeout", cfg.DeliveryTimeout)

	var ledger repository.DeliveryRepository
	if cfg.PostgresDSN != "" {
		dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer dbPool.Close()
		if err := postgres.EnsureSchema(mainCtx, dbPool); err != nil {
			return err
		}
		ledger = postgres.NewPgDeliveryRepository(dbPool, appLogger)
		appLogger.Info("Delivery ledger stored in PostgreSQL")
	} else {
		ledger = memory.NewDeliveryLedger(cfg.LedgerCapacity)
		appLogger.Info("Delivery ledger kept in memory", "capacity", cfg.LedgerCapacity)
	}

	sinks := app.MultiSink{ledger}
	if cfg.NATSUrl != "" {
		natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
		if err != nil {
			// Events are optional; deliveries keep working without them.
			appLogger.Error("Failed to connect to NATS, delivery events disabled", "error", err)
		} else {
			defer natsClient.Close()
			sinks = append(sinks, events.NewOutcomePublisher(natsClient))
			appLogger.Info("Publishing delivery events to NATS", "url", cfg.NATSUrl)
		}
	}

	pipeline := app.NewPipeline(catalog, fieldValidator, sender, appLogger,
		app.WithResetDelay(cfg.ResetDelay),
		app.WithOutcomeSink(sinks),
	)
	sessions := app.NewSessionRegistry(pipeline, cfg.SessionTTL, appLogger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Forms:          httptransport.NewFormHandler(pipeline, sessions, appLogger, validate),
		Admin:          httptransport.NewAdminHandler(ledger, appLogger),
		AdminJWTSecret: cfg.AdminJWTSecret,
		RequestTimeout: cfg.DeliveryTimeout + 15*time.Second,
		Logger:         appLogger,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.LeadAPIServicePort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		interval := cfg.SessionSweepInterval
		if interval <= 0 {
			interval = time.Minute
		}
		return sessions.Run(groupCtx, interval)
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
