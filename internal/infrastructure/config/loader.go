package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix namespaces every environment override
const EnvPrefix = "NRX"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
}

// secretEnvBindings maps keys that never live in yaml files to their environment variables
var secretEnvBindings = map[string]string{
	"database.password":                "NRX_DB_PASSWORD",
	"providers.networx.secret":         "NRX_NETWORX_SECRET_KEY",
	"providers.secureProcessor.secret": "NRX_SECURE_PROCESSOR_SECRET_KEY",
	"auth.jwtSecret":                   "NRX_JWT_SECRET",
	"notifier.smtp.password":           "NRX_SMTP_PASSWORD",
}

// LoadConfig loads configuration from file based on the environment
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		// .env files are optional outside development
		fmt.Fprintln(os.Stderr, "Warning: Could not load .env file:", err)
	}

	return LoadConfigFrom(getEnvironment(), ConfigPaths...)
}

// LoadConfigFrom reads <env>.yaml from the given paths and applies NRX_ overrides
func LoadConfigFrom(env string, paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")

	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envName := range secretEnvBindings {
		if err := v.BindEnv(key, envName); err != nil {
			return nil, fmt.Errorf("binding %s: %w", envName, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env
	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			lastError = err
			continue
		}
		return nil
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}
	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration.
// Every key is registered here so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)
	v.SetDefault("server.writeTimeout", 15)
	v.SetDefault("server.idleTimeout", 60)
	v.SetDefault("server.readHeaderTimeout", 10)
	v.SetDefault("server.shutdownTimeout", 15)
	v.SetDefault("server.allowedOrigins", []string{})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "")
	v.SetDefault("database.database", "")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30)
	v.SetDefault("database.connMaxIdleTime", 15)
	v.SetDefault("database.queryTimeout", 5)
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 1)
	v.SetDefault("database.lockTimeout", 5000)
	v.SetDefault("database.txMaxRetries", 5)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.callerInfo", true)

	v.SetDefault("webhook.maxBodyBytes", 1<<20)
	v.SetDefault("webhook.receiptTimeout", 10)

	v.SetDefault("providers.networx.allowUnsignedTest", false)
	v.SetDefault("providers.secureProcessor.allowUnsignedTest", false)

	v.SetDefault("auth.jwksURL", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	v.SetDefault("notifier.smtp.enabled", false)
	v.SetDefault("notifier.smtp.host", "")
	v.SetDefault("notifier.smtp.port", 587)
	v.SetDefault("notifier.smtp.username", "")
	v.SetDefault("notifier.smtp.from", "receipts@nerbixa.com")
	v.SetDefault("notifier.kafka.enabled", false)
	v.SetDefault("notifier.kafka.brokers", []string{})
	v.SetDefault("notifier.kafka.topic", "payment.credited")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.serviceName", "payment-reconciler")
	v.SetDefault("tracing.sampleRatio", 1.0)
}

// getEnvironment determines the environment to use based on NRX_ENV
func getEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processDurations converts time.Duration fields from their raw unit counts to actual durations
func processDurations(config *Config) {
	config.Server.ReadTimeout *= time.Second
	config.Server.WriteTimeout *= time.Second
	config.Server.IdleTimeout *= time.Second
	config.Server.ReadHeaderTimeout *= time.Second
	config.Server.ShutdownTimeout *= time.Second

	config.Database.ConnMaxLifetime *= time.Minute
	config.Database.ConnMaxIdleTime *= time.Minute
	config.Database.QueryTimeout *= time.Second
	config.Database.RetryDelay *= time.Second
	config.Database.LockTimeout *= time.Millisecond

	config.Webhook.ReceiptTimeout *= time.Second
}
