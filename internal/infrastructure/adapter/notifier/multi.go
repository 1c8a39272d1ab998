package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
)

// Channel is a named receipt notifier
type Channel struct {
	Name     string
	Notifier coreport.ReceiptNotifier
}

// MultiNotifier fans a receipt out to every channel in parallel.
// A failing channel never blocks the others.
type MultiNotifier struct {
	channels []Channel
	logger   coreport.Logger
}

// NewMultiNotifier creates a fan-out notifier
func NewMultiNotifier(logger coreport.Logger, channels ...Channel) *MultiNotifier {
	return &MultiNotifier{channels: channels, logger: logger}
}

// Len reports how many channels are wired
func (m *MultiNotifier) Len() int {
	return len(m.channels)
}

// SendReceipt delivers to all channels and joins their errors
func (m *MultiNotifier) SendReceipt(ctx context.Context, receipt entity.Receipt) error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []error
	)

	for _, ch := range m.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			if err := ch.Notifier.SendReceipt(ctx, receipt); err != nil {
				m.logger.Warn("receipt.channel_failed", map[string]any{
					"channel":        ch.Name,
					"transaction_id": receipt.TransactionID,
					"error":          err.Error(),
				})
				mu.Lock()
				failed = append(failed, fmt.Errorf("%s: %w", ch.Name, err))
				mu.Unlock()
			}
		}(ch)
	}
	wg.Wait()

	return errors.Join(failed...)
}

var _ coreport.ReceiptNotifier = (*MultiNotifier)(nil)
