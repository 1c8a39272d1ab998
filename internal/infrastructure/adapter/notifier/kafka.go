package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/segmentio/kafka-go"
)

const (
	// TopicPaymentCredited is the default topic for credited payments
	TopicPaymentCredited = "payment.credited"

	eventTypePaymentCredited = "PaymentCredited"
	eventVersion             = "1"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope is the event schema published on the bus
type Envelope struct {
	EventType    string    `json:"eventType"`
	EventVersion string    `json:"eventVersion"`
	OccurredAt   time.Time `json:"occurredAt"`
	AggregateID  string    `json:"aggregateId"`
	Data         any       `json:"data"`
}

// PaymentCreditedData is the body of a PaymentCredited event
type PaymentCreditedData struct {
	TransactionID string     `json:"transactionId"`
	UserID        string     `json:"userId"`
	Tokens        int        `json:"tokens"`
	Amount        *int64     `json:"amount,omitempty"`
	Currency      string     `json:"currency"`
	Description   string     `json:"description"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	NewBalance    int        `json:"newBalance"`
}

// KafkaNotifier publishes a PaymentCredited event for every credited payment
type KafkaNotifier struct {
	writer       MessageWriter
	topic        string
	timeProvider coreport.TimeProvider
}

// NewKafkaWriter builds a writer that partitions by message key, so events for
// one user stay ordered
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaNotifier creates a Kafka receipt publisher
func NewKafkaNotifier(writer MessageWriter, topic string, timeProvider coreport.TimeProvider) *KafkaNotifier {
	if topic == "" {
		topic = TopicPaymentCredited
	}
	return &KafkaNotifier{
		writer:       writer,
		topic:        topic,
		timeProvider: timeProvider,
	}
}

// SendReceipt publishes the receipt keyed by user id
func (n *KafkaNotifier) SendReceipt(ctx context.Context, receipt entity.Receipt) error {
	data := PaymentCreditedData{
		TransactionID: receipt.TransactionID,
		UserID:        receipt.UserID,
		Tokens:        receipt.Tokens,
		Amount:        receipt.Amount,
		Currency:      receipt.Currency,
		Description:   receipt.Description,
		NewBalance:    receipt.NewBalance,
	}
	if !receipt.PaidAt.IsZero() {
		paidAt := receipt.PaidAt
		data.PaidAt = &paidAt
	}

	val, err := json.Marshal(Envelope{
		EventType:    eventTypePaymentCredited,
		EventVersion: eventVersion,
		OccurredAt:   n.timeProvider.Now(),
		AggregateID:  receipt.TransactionID,
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventTypePaymentCredited, err)
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Topic: n.topic,
		Key:   []byte(receipt.UserID),
		Value: val,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", n.topic, err)
	}
	return nil
}

// Close flushes and closes the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

var _ coreport.ReceiptNotifier = (*KafkaNotifier)(nil)
