package database

import (
	"testing"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Host:         "localhost",
		Port:         5432,
		Username:     "nerbixa",
		Password:     "secret",
		Database:     "nerbixa",
		SSLMode:      "disable",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		QueryTimeout: 5 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"Valid", func(c *Config) {}, false},
		{"Missing host", func(c *Config) { c.Host = "" }, true},
		{"Bad port", func(c *Config) { c.Port = 70000 }, true},
		{"Missing user", func(c *Config) { c.Username = "" }, true},
		{"Missing database", func(c *Config) { c.Database = "" }, true},
		{"Bad ssl mode", func(c *Config) { c.SSLMode = "sometimes" }, true},
		{"No open conns", func(c *Config) { c.MaxOpenConns = 0 }, true},
		{"No query timeout", func(c *Config) { c.QueryTimeout = 0 }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	app := &config.Config{
		Database: config.DatabaseConfig{
			Host:         "db",
			Port:         6543,
			Username:     "u",
			Password:     "p",
			Database:     "d",
			SSLMode:      "require",
			LockTimeout:  2 * time.Second,
			TxMaxRetries: 7,
		},
		Logger: config.LoggerConfig{Level: "warn"},
	}

	c := NewConfig(app)

	assert.Equal(t, "host=db port=6543 user=u password=p dbname=d sslmode=require", c.DSN())
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, 2*time.Second, c.LockTimeout)
	assert.Equal(t, 7, c.RetryConfig().MaxRetries)
}
