package persistence

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository is a testify mock for persistence.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) GetByWebhookEventIDForUpdate(ctx context.Context, webhookEventID string) (*entity.Transaction, error) {
	args := m.Called(ctx, webhookEventID)
	txn, _ := args.Get(0).(*entity.Transaction)
	return txn, args.Error(1)
}

func (m *MockTransactionRepository) InsertIfNew(ctx context.Context, transaction *entity.Transaction) (bool, error) {
	args := m.Called(ctx, transaction)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) Update(ctx context.Context, transaction *entity.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindSuccessfulForUser(ctx context.Context, userID, trackingID string) (*entity.Transaction, error) {
	args := m.Called(ctx, userID, trackingID)
	txn, _ := args.Get(0).(*entity.Transaction)
	return txn, args.Error(1)
}

func (m *MockTransactionRepository) ListAwaitingReconciliation(ctx context.Context, limit int) ([]*entity.Transaction, error) {
	args := m.Called(ctx, limit)
	txns, _ := args.Get(0).([]*entity.Transaction)
	return txns, args.Error(1)
}
