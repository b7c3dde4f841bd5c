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

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"lending-engine/internal/api"
	"lending-engine/internal/batch"
	"lending-engine/internal/config"
	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/customer"
	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/domain/pricing"
	"lending-engine/internal/domain/schedule"
	"lending-engine/internal/domain/staff"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/database/postgres"
	"lending-engine/internal/infrastructure/logging"
	"lending-engine/internal/infrastructure/memory"
)

type repositories struct {
	loans        loan.Repository
	customers    customer.Repository
	staff        staff.Repository
	transactions ledger.Repository
	audit        audit.Repository
	closeFn      func()
}

func main() {
	cfg, logger := initializeApp()

	repos := initializeRepositories(cfg, logger)
	defer repos.closeFn()

	recorder := audit.NewRecorder(repos.audit, logger)
	defer recorder.Close()

	rabbitConn, publisher := setupEventPublisher(cfg, logger)
	defer closeRabbitMQConnection(rabbitConn, logger)

	svcs := initializeServices(cfg, repos, recorder, publisher, logger)
	seedAdmin(cfg, svcs.Staff, logger)

	overdueJob := batch.NewOverdueReviewJob(repos.loans, recorder, logger)
	cronScheduler := startBatchJobs(cfg, logger, overdueJob)

	router := api.SetupRouter(svcs, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeRepositories(cfg *config.Config, logger *slog.Logger) repositories {
	switch cfg.Database.Driver {
	case "postgres":
		logger.Info("Initializing database connection pool...")
		dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
		if err != nil {
			logger.Error("Failed to initialize database connection pool", "error", err)
			os.Exit(1)
		}
		if err := postgres.EnsureSchema(context.Background(), dbPool, logger); err != nil {
			logger.Error("Failed to ensure database schema", "error", err)
			dbPool.Close()
			os.Exit(1)
		}
		return repositories{
			loans:        postgres.NewLoanRepository(dbPool, logger),
			customers:    postgres.NewCustomerRepository(dbPool, logger),
			staff:        postgres.NewStaffRepository(dbPool, logger),
			transactions: postgres.NewTransactionRepository(dbPool, logger),
			audit:        postgres.NewAuditRepository(dbPool, logger),
			closeFn: func() {
				logger.Info("Closing database connection pool...")
				dbPool.Close()
			},
		}
	case "", "memory":
		logger.Info("Using in-memory repositories", "driver", "memory")
		return repositories{
			loans:        memory.NewLoanRepository(),
			customers:    memory.NewCustomerRepository(),
			staff:        memory.NewStaffRepository(),
			transactions: memory.NewTransactionRepository(),
			audit:        memory.NewAuditRepository(),
			closeFn:      func() {},
		}
	default:
		logger.Error("Unknown database driver", "driver", cfg.Database.Driver)
		os.Exit(1)
		return repositories{}
	}
}

func initializeServices(cfg *config.Config, repos repositories, recorder *audit.Recorder, publisher event.Publisher, logger *slog.Logger) api.Services {
	logger.Info("Initializing application components...")

	catalog, err := pricing.NewCatalog(cfg.Pricing.Products)
	if err != nil {
		logger.Error("Invalid product configuration", "error", err)
		os.Exit(1)
	}
	calculator, err := schedule.NewCalculator(cfg.Pricing.WeeksPerMonth)
	if err != nil {
		logger.Error("Invalid amortization configuration", "error", err)
		os.Exit(1)
	}

	customerService := customer.NewService(repos.customers, recorder, logger)
	loanService := loan.NewService(repos.loans, customerService, catalog, calculator, recorder, publisher, logger)
	ledgerService := ledger.NewService(repos.transactions, loanService, recorder, publisher, logger)
	staffService := staff.NewService(repos.staff, recorder, logger)

	return api.Services{
		Loans:     loanService,
		Ledger:    ledgerService,
		Customers: customerService,
		Staff:     staffService,
		Catalog:   catalog,
		Audit:     recorder,
	}
}

func seedAdmin(cfg *config.Config, staffService staff.Service, logger *slog.Logger) {
	auth := cfg.Server.Auth
	if err := staffService.SeedAdmin(context.Background(), auth.SeedAdminName, auth.SeedAdminEmail, auth.SeedAdminPassword); err != nil {
		logger.Error("Failed to seed initial admin account", "error", err)
		os.Exit(1)
	}
}

func setupEventPublisher(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, event.Publisher) {
	if !cfg.Events.Enabled {
		logger.Info("Event publishing disabled")
		return nil, event.NoopPublisher{}
	}

	conn, err := connectRabbitMQ(cfg.Events.URL, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, continuing without event publishing", "error", err)
		return nil, event.NoopPublisher{}
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.Events.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to set up event publisher, continuing without event publishing", "error", err)
		return conn, event.NoopPublisher{}
	}
	return conn, publisher
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	retryCount := 5
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	if rabbitConn == nil {
		return
	}
	if rabbitConn.IsClosed() {
		logger.Info("RabbitMQ connection already closed, skipping close.")
		return
	}
	logger.Info("Closing RabbitMQ connection...")
	if err := rabbitConn.Close(); err != nil {
		logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
	} else {
		logger.Info("RabbitMQ connection closed.")
	}
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, overdueJob *batch.OverdueReviewJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.OverdueReviewSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 2 * * *"
		logger.Warn("Batch overdue review schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.OverdueReviewTimeout
	if jobTimeout <= 0 {
		jobTimeout = 1 * time.Hour
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "OverdueReview")
		jobLogger.Info("Cron triggered: Running overdue loan review job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := overdueJob.Run(ctx); runErr != nil {
			jobLogger.Error("Overdue loan review job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Overdue loan review job finished successfully.")
		}
	}))

	if err != nil {
		logger.Error("Failed to schedule overdue review job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled overdue review job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron,
	shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	stopCronScheduler(cronScheduler, logger)
	shutdownHTTPServer(srv, serverErrors, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		logger.Info("Server goroutine finished before signal.", "error", err)
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}
