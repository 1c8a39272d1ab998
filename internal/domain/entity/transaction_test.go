package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	testCases := []struct {
		raw      string
		expected TransactionStatus
		ok       bool
	}{
		{"success", StatusSuccessful, true},
		{"successful", StatusSuccessful, true},
		{"completed", StatusSuccessful, true},
		{"Successful", StatusSuccessful, true},
		{"failed", StatusFailed, true},
		{"pending", StatusPending, true},
		{"canceled", StatusCanceled, true},
		{"cancelled", StatusCanceled, true},
		{"refunded", StatusRefunded, true},
		{"chargeback", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			status, ok := ParseStatus(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, status)
		})
	}
}

func TestTransactionMergeFrom(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Minute)
	amount := int64(1999)

	existing := &Transaction{
		Status:      StatusPending,
		Currency:    "EUR",
		Description: "Token Top-up (100 Tokens)",
		Message:     "Payment pending",
		UpdatedAt:   created,
	}

	existing.MergeFrom(&Transaction{
		Amount:    &amount,
		Message:   "Payment successful",
		UpdatedAt: updated,
	})

	assert.Equal(t, &amount, existing.Amount)
	assert.Equal(t, "EUR", existing.Currency)
	assert.Equal(t, "Token Top-up (100 Tokens)", existing.Description)
	assert.Equal(t, "Payment successful", existing.Message)
	assert.Equal(t, updated, existing.UpdatedAt)
	assert.Equal(t, StatusPending, existing.Status)
}

func TestTransactionMergeFromStatus(t *testing.T) {
	declined := "Payment failed"

	t.Run("Successful update clears a failure reason", func(t *testing.T) {
		existing := &Transaction{Status: StatusFailed, Reason: &declined}
		existing.MergeFrom(&Transaction{Status: StatusSuccessful})

		assert.Equal(t, StatusSuccessful, existing.Status)
		assert.Nil(t, existing.Reason)
	})

	t.Run("Successful update keeps an explicit reason", func(t *testing.T) {
		missing := ReasonUserMissing
		existing := &Transaction{Status: StatusPending}
		existing.MergeFrom(&Transaction{Status: StatusSuccessful, Reason: &missing})

		require.NotNil(t, existing.Reason)
		assert.Equal(t, ReasonUserMissing, *existing.Reason)
	})

	t.Run("Non-successful update without reason keeps the old one", func(t *testing.T) {
		existing := &Transaction{Status: StatusFailed, Reason: &declined}
		existing.MergeFrom(&Transaction{Status: StatusCanceled})

		assert.Equal(t, StatusCanceled, existing.Status)
		require.NotNil(t, existing.Reason)
		assert.Equal(t, declined, *existing.Reason)
	})
}

func TestTransactionStateHelpers(t *testing.T) {
	missing := ReasonUserMissing
	reconciled := ReasonReconciled

	assert.True(t, (&Transaction{Status: StatusSuccessful, Reason: &missing}).AwaitingReconciliation())
	assert.False(t, (&Transaction{Status: StatusSuccessful, Reason: &reconciled}).AwaitingReconciliation())
	assert.False(t, (&Transaction{Status: StatusFailed, Reason: &missing}).AwaitingReconciliation())

	assert.True(t, (&Transaction{Status: StatusRefunded}).IsSettled())
	assert.True(t, (&Transaction{Status: StatusRefunded}).IsRefunded())
	assert.False(t, (&Transaction{Status: StatusSuccessful}).IsRefunded())
	assert.False(t, (&Transaction{Status: StatusPending}).IsSettled())
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "tx-1:successful:2025-01-01T00:00:00Z", EventKey("tx-1", "successful", "2025-01-01T00:00:00Z"))
	assert.Equal(t, "tx-1:unknown:", EventKey("tx-1", "", ""))
	assert.NotEqual(t, EventKey("tx-1", "pending", ""), EventKey("tx-1", "successful", ""))
}
