package persistence

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/port/persistence"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a testify mock for persistence.UnitOfWork.
// WithinTransaction runs fn directly unless an expectation overrides its result.
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	txCtx, _ := args.Get(0).(context.Context)
	return txCtx, args.Error(1)
}

func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

func (m *MockUnitOfWork) GetUserRepository(ctx context.Context) persistence.UserRepository {
	args := m.Called(ctx)
	return args.Get(0).(persistence.UserRepository)
}

func (m *MockUnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	args := m.Called(ctx)
	return args.Get(0).(persistence.TransactionRepository)
}

func (m *MockUnitOfWork) GetWebhookEventRepository(ctx context.Context) persistence.WebhookEventRepository {
	args := m.Called(ctx)
	return args.Get(0).(persistence.WebhookEventRepository)
}
