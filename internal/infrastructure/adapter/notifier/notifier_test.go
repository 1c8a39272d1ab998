package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	mockcore "github.com/nerbixa/payment-reconciler/mocks/port/core"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var paidAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleReceipt() entity.Receipt {
	amount := int64(1250)
	return entity.Receipt{
		TransactionID: "uid-42",
		UserID:        "user_abc",
		Email:         "payer@example.com",
		Tokens:        100,
		Amount:        &amount,
		Currency:      "USD",
		Description:   "Starter pack (100 tokens)",
		PaidAt:        paidAt,
		NewBalance:    115,
	}
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaNotifier_SendReceipt(t *testing.T) {
	tp := mockcore.NewMockTimeProvider(t).Frozen(paidAt.Add(time.Second))
	writer := &fakeWriter{}
	n := NewKafkaNotifier(writer, "", tp)

	require.NoError(t, n.SendReceipt(context.Background(), sampleReceipt()))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, TopicPaymentCredited, msg.Topic)
	assert.Equal(t, "user_abc", string(msg.Key))

	var env struct {
		EventType   string              `json:"eventType"`
		AggregateID string              `json:"aggregateId"`
		Data        PaymentCreditedData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "PaymentCredited", env.EventType)
	assert.Equal(t, "uid-42", env.AggregateID)
	assert.Equal(t, 100, env.Data.Tokens)
	assert.Equal(t, int64(1250), *env.Data.Amount)
	assert.Equal(t, 115, env.Data.NewBalance)
}

func TestKafkaNotifier_WriteFailure(t *testing.T) {
	tp := mockcore.NewMockTimeProvider(t).Frozen(paidAt)
	n := NewKafkaNotifier(&fakeWriter{err: errors.New("leader not available")}, "receipts", tp)

	err := n.SendReceipt(context.Background(), sampleReceipt())
	assert.ErrorContains(t, err, "publish receipts")
}

func TestSMTPNotifier_SendReceipt(t *testing.T) {
	log := mockcore.NewMockLogger(t).AllowAll()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.local", Port: 1025, From: "receipts@nerbixa.com"}, log).
		WithSendMail(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		})

	require.NoError(t, n.SendReceipt(context.Background(), sampleReceipt()))

	assert.Equal(t, "mail.local:1025", gotAddr)
	assert.Equal(t, "receipts@nerbixa.com", gotFrom)
	assert.Equal(t, []string{"payer@example.com"}, gotTo)
	body := string(gotMsg)
	assert.True(t, strings.HasPrefix(body, "From: receipts@nerbixa.com\r\nTo: payer@example.com\r\n"))
	assert.Contains(t, body, "12.50 USD")
	assert.Contains(t, body, "100 generations")
	assert.Contains(t, body, "Starter pack (100 tokens)")
}

func TestSMTPNotifier_SkipsWithoutEmail(t *testing.T) {
	log := mockcore.NewMockLogger(t).AllowAll()
	called := false
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.local", Port: 25}, log).
		WithSendMail(func(string, smtp.Auth, string, []string, []byte) error {
			called = true
			return nil
		})

	receipt := sampleReceipt()
	receipt.Email = ""
	require.NoError(t, n.SendReceipt(context.Background(), receipt))
	assert.False(t, called)
}

func TestSMTPNotifier_HonorsDeadline(t *testing.T) {
	log := mockcore.NewMockLogger(t).AllowAll()
	release := make(chan struct{})
	defer close(release)

	n := NewSMTPNotifier(SMTPConfig{Host: "mail.local", Port: 25}, log).
		WithSendMail(func(string, smtp.Auth, string, []string, []byte) error {
			<-release
			return nil
		})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := n.SendReceipt(ctx, sampleReceipt())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRenderReceipt_EscapesDescription(t *testing.T) {
	receipt := sampleReceipt()
	receipt.Description = `<script>alert(1)</script> (5 tokens)`

	body, err := RenderReceipt(receipt)
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestLogNotifier_SendReceipt(t *testing.T) {
	log := mockcore.NewMockLogger(t)
	log.On("Info", "receipt.issued", mock.MatchedBy(func(f map[string]any) bool {
		return f["transaction_id"] == "uid-42" && f["amount"] == "12.50 USD" && f["email_present"] == true
	})).Return().Once()

	require.NoError(t, NewLogNotifier(log).SendReceipt(context.Background(), sampleReceipt()))
}

func TestMultiNotifier_SwallowsChannelFailure(t *testing.T) {
	log := mockcore.NewMockLogger(t).AllowAll()

	failing := mockcore.NewMockReceiptNotifier(t)
	failing.On("SendReceipt", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	healthy := mockcore.NewMockReceiptNotifier(t)
	healthy.On("SendReceipt", mock.Anything, mock.Anything).Return(nil).Once()

	multi := NewMultiNotifier(log, Channel{Name: "smtp", Notifier: failing}, Channel{Name: "log", Notifier: healthy})
	assert.Equal(t, 2, multi.Len())

	err := multi.SendReceipt(context.Background(), sampleReceipt())
	assert.ErrorContains(t, err, "smtp: smtp down")
}
