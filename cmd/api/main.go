package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/domain/usecase/balance"
	"github.com/nerbixa/payment-reconciler/internal/domain/usecase/webhook"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/api/handler"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/api/routes"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/auth"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/database"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/logger"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/notifier"
	timeProvider "github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/time"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/tracing"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/config"
)

const version = "1.1.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger, err := logger.NewZapLogger(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		CallerInfo: cfg.Logger.CallerInfo,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Flush()

	for _, w := range configWarnings(cfg) {
		appLogger.Warn("Configuration warning", map[string]any{"warning": w})
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(rootCtx, cfg.Tracing, version)
	if err != nil {
		appLogger.Error("Failed to initialize tracing", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	tp := timeProvider.NewRealTimeProvider()

	dbManager := database.NewManager(database.NewConfig(cfg), appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(rootCtx); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	uow := dbManager.CreateUnitOfWork()

	receipts, closeReceipts := buildNotifier(cfg, appLogger, tp)
	defer closeReceipts()

	ledger := webhook.NewLedger(uow, tp, appLogger)
	receiptTimeout := coreport.Duration(cfg.Webhook.ReceiptTimeout)

	networx := webhook.NewProcessor(
		webhook.NewNetworx(),
		webhook.ProviderSettings{
			Secret:            cfg.Providers.Networx.Secret,
			AllowUnsignedTest: cfg.Providers.Networx.AllowUnsignedTest,
		},
		ledger, receipts, tp, appLogger,
	).WithReceiptTimeout(receiptTimeout)

	secureProcessor := webhook.NewProcessor(
		webhook.NewSecureProcessor(),
		webhook.ProviderSettings{
			Secret:            cfg.Providers.SecureProcessor.Secret,
			AllowUnsignedTest: cfg.Providers.SecureProcessor.AllowUnsignedTest,
		},
		ledger, receipts, tp, appLogger,
	).WithReceiptTimeout(receiptTimeout)

	verifier, err := auth.NewVerifier(rootCtx, cfg.Auth)
	if err != nil {
		appLogger.Error("Failed to initialize token verifier", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger, tp, cfg.Server.AllowedOrigins)
	routes.SetupRoutes(router, routes.Handlers{
		Networx:         handler.NewWebhookHandler(networx, cfg.Webhook.MaxBodyBytes, tp, appLogger),
		SecureProcessor: handler.NewWebhookHandler(secureProcessor, cfg.Webhook.MaxBodyBytes, tp, appLogger),
		Balance:         handler.NewBalanceHandler(balance.NewVerifyBalanceUseCase(uow, tp, appLogger), appLogger),
		Health: handler.NewHealthHandler(dbManager, func() any {
			return dbManager.PoolMetrics()
		}, tp),
		RequireAuth: auth.RequireBearer(verifier, appLogger),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           otelhttp.NewHandler(router, "payment-reconciler"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port":    cfg.Server.Port,
			"env":     cfg.Environment,
			"version": version,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			stop()
		}
	}()

	<-rootCtx.Done()
	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	// In-flight receipts finish before their transports close
	networx.Wait()
	secureProcessor.Wait()

	if err := shutdownTracer(ctx); err != nil {
		appLogger.Warn("Tracer shutdown failed", map[string]any{"error": err.Error()})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// buildNotifier fans receipts out to the log and whichever transports are enabled.
// The returned func closes the transports.
func buildNotifier(cfg *config.Config, appLogger coreport.Logger, tp coreport.TimeProvider) (coreport.ReceiptNotifier, func()) {
	channels := []notifier.Channel{
		{Name: "log", Notifier: notifier.NewLogNotifier(appLogger)},
	}
	closers := []func() error{}

	if smtpCfg := cfg.Notifier.SMTP; smtpCfg.Enabled {
		channels = append(channels, notifier.Channel{
			Name: "smtp",
			Notifier: notifier.NewSMTPNotifier(notifier.SMTPConfig{
				Host:     smtpCfg.Host,
				Port:     smtpCfg.Port,
				Username: smtpCfg.Username,
				Password: smtpCfg.Password,
				From:     smtpCfg.From,
			}, appLogger),
		})
	}

	if kafkaCfg := cfg.Notifier.Kafka; kafkaCfg.Enabled {
		kn := notifier.NewKafkaNotifier(notifier.NewKafkaWriter(kafkaCfg.Brokers), kafkaCfg.Topic, tp)
		channels = append(channels, notifier.Channel{Name: "kafka", Notifier: kn})
		closers = append(closers, kn.Close)
	}

	multi := notifier.NewMultiNotifier(appLogger, channels...)
	appLogger.Info("Receipt channels configured", map[string]any{"channels": multi.Len()})

	return multi, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				appLogger.Warn("Failed to close receipt channel", map[string]any{"error": err.Error()})
			}
		}
	}
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}
	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	if cfg.Database.Host == "" {
		missingConfigs = append(missingConfigs, "database.host")
	}
	if cfg.Database.Port == 0 {
		missingConfigs = append(missingConfigs, "database.port")
	}
	if cfg.Database.Username == "" {
		missingConfigs = append(missingConfigs, "database.username")
	}
	if cfg.Database.Password == "" {
		missingConfigs = append(missingConfigs, "database.password (NRX_DB_PASSWORD)")
	}
	if cfg.Database.Database == "" {
		missingConfigs = append(missingConfigs, "database.database")
	}
	if cfg.Database.QueryTimeout == 0 {
		missingConfigs = append(missingConfigs, "database.queryTimeout")
	}

	if cfg.Providers.Networx.Secret == "" {
		missingConfigs = append(missingConfigs, "providers.networx.secret (NRX_NETWORX_SECRET_KEY)")
	}
	if cfg.Providers.SecureProcessor.Secret == "" {
		missingConfigs = append(missingConfigs, "providers.secureProcessor.secret (NRX_SECURE_PROCESSOR_SECRET_KEY)")
	}
	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWKSURL == "" {
		missingConfigs = append(missingConfigs, "auth.jwtSecret (NRX_JWT_SECRET) or auth.jwksURL")
	}

	if cfg.Notifier.Kafka.Enabled && len(cfg.Notifier.Kafka.Brokers) == 0 {
		missingConfigs = append(missingConfigs, "notifier.kafka.brokers")
	}
	if cfg.Notifier.SMTP.Enabled && cfg.Notifier.SMTP.Host == "" {
		missingConfigs = append(missingConfigs, "notifier.smtp.host")
	}

	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}
	return nil
}

// configWarnings lists risky settings that are allowed but should not reach production
func configWarnings(cfg *config.Config) []string {
	if !cfg.IsProduction() {
		return nil
	}

	var warnings []string
	switch strings.ToLower(cfg.Database.SSLMode) {
	case "require", "verify-ca", "verify-full":
	default:
		warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
	}

	if cfg.Server.ReadTimeout < 5*time.Second {
		warnings = append(warnings, "server.readTimeout is too low for production")
	}
	if cfg.Providers.Networx.AllowUnsignedTest {
		warnings = append(warnings, "providers.networx.allowUnsignedTest accepts unsigned test deliveries in production")
	}
	if cfg.Providers.SecureProcessor.AllowUnsignedTest {
		warnings = append(warnings, "providers.secureProcessor.allowUnsignedTest accepts unsigned test deliveries in production")
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		warnings = append(warnings, "server.allowedOrigins is empty; every origin may poll verify-balance")
	}
	return warnings
}
