package logger

import (
	"testing"

	"github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_LevelFiltering(t *testing.T) {
	zcore, logs := observer.New(zap.DebugLevel)
	log := NewZapLoggerFromCore(zcore, core.LogLevelWarn)

	log.Debug("networx.webhook_received", nil)
	log.Info("networx.signature_verified", nil)
	log.Warn("networx.user_missing", map[string]any{"user_id": "user_1"})
	log.Error("networx.webhook_processing_failed", nil)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "networx.user_missing", logs.All()[0].Message)
	assert.Equal(t, "user_1", logs.All()[0].ContextMap()["user_id"])

	log.SetLevel(core.LogLevelDebug)
	assert.Equal(t, core.LogLevelDebug, log.GetLevel())
	log.Debug("networx.webhook_received", nil)
	assert.Equal(t, 3, logs.Len())
}

func TestZapLogger_MasksSecrets(t *testing.T) {
	zcore, logs := observer.New(zap.DebugLevel)
	log := NewZapLoggerFromCore(zcore, core.LogLevelDebug)

	log.Info("secure_processor.signature_rejected", map[string]any{
		"signature":         "9f86d081884c7d659a2feaa0c55ad015",
		"secret":            "abc",
		"signature_present": true,
		"tokens":            100,
		"transaction_id":    "uid-1",
	})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "9f86d0***", fields["signature"])
	assert.Equal(t, "***", fields["secret"])
	assert.Equal(t, true, fields["signature_present"])
	assert.EqualValues(t, 100, fields["tokens"])
	assert.Equal(t, "uid-1", fields["transaction_id"])
}

func TestNewZapLogger(t *testing.T) {
	log, err := NewZapLogger(Options{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, core.LogLevelDebug, log.GetLevel())

	log, err = NewZapLogger(Options{Level: "bogus", Format: "console"})
	require.NoError(t, err)
	assert.Equal(t, core.LogLevelInfo, log.GetLevel())
}
