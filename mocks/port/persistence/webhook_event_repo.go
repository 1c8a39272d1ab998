package persistence

import (
	"context"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockWebhookEventRepository is a testify mock for persistence.WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) InsertIfNew(ctx context.Context, event *entity.WebhookEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookEventRepository) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	args := m.Called(ctx, eventID, at)
	return args.Error(0)
}
