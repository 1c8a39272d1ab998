package core

import (
	"context"
	"time"

	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/stretchr/testify/mock"
)

// MockTimeProvider is a testify mock for core.TimeProvider
type MockTimeProvider struct {
	mock.Mock
}

// NewMockTimeProvider creates a MockTimeProvider that asserts its expectations on cleanup
func NewMockTimeProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTimeProvider {
	m := &MockTimeProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Frozen makes Now return at and WithTimeout delegate to the real context package
func (m *MockTimeProvider) Frozen(at time.Time) *MockTimeProvider {
	m.On("Now").Return(at).Maybe()
	m.On("WithTimeout", mock.Anything, mock.Anything).Maybe()
	return m
}

func (m *MockTimeProvider) Now() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}

func (m *MockTimeProvider) Since(t time.Time) coreport.Duration {
	args := m.Called(t)
	return args.Get(0).(coreport.Duration)
}

func (m *MockTimeProvider) Sleep(d coreport.Duration) {
	m.Called(d)
}

// WithTimeout records the call and returns a real timeout context
func (m *MockTimeProvider) WithTimeout(ctx context.Context, timeout coreport.Duration) (context.Context, context.CancelFunc) {
	m.Called(ctx, timeout)
	return context.WithTimeout(ctx, timeout.Std())
}
