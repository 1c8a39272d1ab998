package core

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockReceiptNotifier is a testify mock for core.ReceiptNotifier
type MockReceiptNotifier struct {
	mock.Mock
}

// NewMockReceiptNotifier creates a MockReceiptNotifier that asserts its expectations on cleanup
func NewMockReceiptNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockReceiptNotifier {
	m := &MockReceiptNotifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockReceiptNotifier) SendReceipt(ctx context.Context, receipt entity.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}
