package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Webhook     WebhookConfig   `mapstructure:"webhook"`
	Providers   ProvidersConfig `mapstructure:"providers"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Notifier    NotifierConfig  `mapstructure:"notifier"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
	AllowedOrigins    []string      `mapstructure:"allowedOrigins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"`  // seconds
	LockTimeout     time.Duration `mapstructure:"lockTimeout"` // milliseconds
	TxMaxRetries    int           `mapstructure:"txMaxRetries"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// WebhookConfig bounds webhook intake
type WebhookConfig struct {
	MaxBodyBytes   int64         `mapstructure:"maxBodyBytes"`
	ReceiptTimeout time.Duration `mapstructure:"receiptTimeout"` // seconds
}

// ProviderConfig holds per-gateway settings
type ProviderConfig struct {
	Secret            string `mapstructure:"secret"`
	AllowUnsignedTest bool   `mapstructure:"allowUnsignedTest"`
}

// ProvidersConfig groups the supported payment gateways
type ProvidersConfig struct {
	Networx         ProviderConfig `mapstructure:"networx"`
	SecureProcessor ProviderConfig `mapstructure:"secureProcessor"`
}

// AuthConfig configures bearer token validation for the balance API.
// JWKSURL takes precedence over JWTSecret when both are set.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
	JWKSURL   string `mapstructure:"jwksURL"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// SMTPConfig configures the email receipt sender
type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// KafkaConfig configures the payment.credited publisher
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// NotifierConfig groups receipt delivery channels
type NotifierConfig struct {
	SMTP  SMTPConfig  `mapstructure:"smtp"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// TracingConfig configures the OTLP exporter
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"serviceName"`
	SampleRatio float64 `mapstructure:"sampleRatio"`
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}
