package webhook

import (
	"encoding/json"
	"testing"

	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	body, err := decodeBody([]byte(raw))
	require.NoError(t, err)
	return body
}

func TestNetworxParse(t *testing.T) {
	provider := NewNetworx()

	t.Run("Flat payload", func(t *testing.T) {
		body := decode(t, `{
			"transaction_id": "nx-1", "tracking_id": "user_1", "status": "successful",
			"amount": 1999, "currency": "EUR", "description": "Token Top-up (100 Tokens)",
			"paid_at": "2025-01-01T10:00:00Z", "customer_email": "a@example.com", "signature": "abc"
		}`)

		env, err := provider.Parse(body, "")
		require.NoError(t, err)

		n := env.Notification
		assert.Equal(t, "nx-1", n.TransactionID)
		assert.Equal(t, "user_1", n.TrackingID)
		assert.Equal(t, "successful", n.Status)
		require.NotNil(t, n.Amount)
		assert.Equal(t, int64(1999), *n.Amount)
		assert.Equal(t, "a@example.com", n.CustomerEmail)
		assert.Equal(t, "abc", env.Signature)
		assert.Equal(t, "networx", n.Provider)
	})

	t.Run("Flat payload uses error message", func(t *testing.T) {
		body := decode(t, `{"transaction_id": "nx-2", "status": "failed", "error_message": "Card declined"}`)

		env, err := provider.Parse(body, "")
		require.NoError(t, err)
		assert.Equal(t, "Card declined", env.Notification.Message)
	})

	t.Run("Transaction wrapper", func(t *testing.T) {
		body := decode(t, `{"transaction": {
			"uid": "nx-3", "tracking_id": "user_1", "status": "successful", "amount": "12.50",
			"description": "Token Top-up (50 Tokens)", "test": true, "customer": {"email": "b@example.com"}
		}}`)

		env, err := provider.Parse(body, "hdr")
		require.NoError(t, err)

		n := env.Notification
		assert.Equal(t, "nx-3", n.TransactionID)
		assert.Equal(t, int64(1250), *n.Amount)
		assert.Equal(t, "b@example.com", n.CustomerEmail)
		assert.True(t, n.Test)
		assert.Equal(t, "hdr", env.Signature)
		assert.Equal(t, "nx-3", env.SignatureParams["uid"])
	})

	t.Run("Checkout wrapper", func(t *testing.T) {
		body := decode(t, `{"checkout": {
			"token": "ck-1", "status": "successful",
			"order": {"tracking_id": "gen_user_abc_1760465466306", "amount": 500, "currency": "USD", "description": "Bundle (20 Tokens)"},
			"customer": {"email": "c@example.com"}
		}}`)

		env, err := provider.Parse(body, "")
		require.NoError(t, err)

		n := env.Notification
		assert.Equal(t, "ck-1", n.TransactionID)
		assert.Equal(t, "user_abc", n.UserID())
		assert.Equal(t, "Bundle (20 Tokens)", n.Description)
		assert.Equal(t, int64(500), *n.Amount)
		assert.Equal(t, "c@example.com", n.CustomerEmail)
		assert.Empty(t, env.Signature)
	})
}

func TestSecureProcessorParse(t *testing.T) {
	provider := NewSecureProcessor()

	t.Run("Requires transaction wrapper", func(t *testing.T) {
		_, err := provider.Parse(decode(t, `{"uid": "sp-1", "status": "successful"}`), "")
		assert.ErrorIs(t, err, errs.ErrInvalidPayload)
		assert.Contains(t, err.Error(), "missing transaction")
	})

	t.Run("Signature sources in priority order", func(t *testing.T) {
		raw := `{"signature": "body", "transaction": {"uid": "sp-1", "signature": "nested"}}`

		env, err := provider.Parse(decode(t, raw), "header")
		require.NoError(t, err)
		assert.Equal(t, "header", env.Signature)

		env, err = provider.Parse(decode(t, raw), "")
		require.NoError(t, err)
		assert.Equal(t, "body", env.Signature)

		env, err = provider.Parse(decode(t, `{"transaction": {"uid": "sp-1", "signature": "nested"}}`), "")
		require.NoError(t, err)
		assert.Equal(t, "nested", env.Signature)
	})

	t.Run("Maps transaction fields", func(t *testing.T) {
		body := decode(t, `{"transaction": {
			"uid": "sp-2", "tracking_id": "user_9", "status": "pending", "amount": 19.99,
			"payment_method_type": "credit_card", "paid_at": "2025-02-01T00:00:00Z"
		}}`)

		env, err := provider.Parse(body, "")
		require.NoError(t, err)

		n := env.Notification
		assert.Equal(t, "sp-2", n.TransactionID)
		assert.Equal(t, "user_9", n.UserID())
		assert.Equal(t, int64(1999), *n.Amount)
		assert.Equal(t, "credit_card", n.PaymentMethodType)
		assert.Equal(t, "sp-2:pending:2025-02-01T00:00:00Z", n.EventID())
		assert.False(t, n.Test)
	})
}

func TestDecodeBody(t *testing.T) {
	_, err := decodeBody([]byte(`not json`))
	assert.ErrorIs(t, err, errs.ErrInvalidPayload)

	_, err = decodeBody([]byte(`null`))
	assert.ErrorIs(t, err, errs.ErrInvalidPayload)

	body, err := decodeBody([]byte(`{"amount": 12.50}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12.50"), body["amount"])
}
