package balance

import (
	"context"
	"testing"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
	mcore "github.com/nerbixa/payment-reconciler/mocks/port/core"
	mpers "github.com/nerbixa/payment-reconciler/mocks/port/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVerifyBalance(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	paidAt := now.Add(-time.Minute)
	amount := int64(1999)
	owner := "user_1"
	landed := &entity.Transaction{ID: "row-1", TrackingID: "tx-1", UserID: &owner, Status: entity.StatusSuccessful, Amount: &amount, PaidAt: &paidAt}

	tests := []struct {
		name             string
		query            usecase.BalanceQuery
		available        int
		setupTxns        func(*mpers.MockTransactionRepository)
		expectedUpdated  bool
		expectedMin      *int64
		expectTransaction bool
	}{
		{
			name:      "Landed transaction",
			query:     usecase.BalanceQuery{UserID: owner, TransactionID: "tx-1"},
			available: 120,
			setupTxns: func(txns *mpers.MockTransactionRepository) {
				txns.On("FindSuccessfulForUser", mock.Anything, owner, "tx-1").Return(landed, nil)
			},
			expectedUpdated:  true,
			expectTransaction: true,
		},
		{
			name:      "Unknown transaction",
			query:     usecase.BalanceQuery{UserID: owner, TransactionID: "tx-404"},
			available: 20,
			setupTxns: func(txns *mpers.MockTransactionRepository) {
				txns.On("FindSuccessfulForUser", mock.Anything, owner, "tx-404").Return(nil, errs.ErrTransactionNotFound)
			},
		},
		{
			name:            "Threshold met",
			query:           usecase.BalanceQuery{UserID: owner, ExpectedMinBalance: "100"},
			available:       150,
			expectedUpdated: true,
			expectedMin:     ptr(int64(100)),
		},
		{
			name:        "Threshold not met",
			query:       usecase.BalanceQuery{UserID: owner, ExpectedMinBalance: "100"},
			available:   50,
			expectedMin: ptr(int64(100)),
		},
		{
			name:      "Non numeric threshold fails closed",
			query:     usecase.BalanceQuery{UserID: owner, ExpectedMinBalance: "abc"},
			available: 150,
		},
		{
			name:      "Bare read",
			query:     usecase.BalanceQuery{UserID: owner},
			available: 150,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			uow := new(mpers.MockUnitOfWork)
			users := new(mpers.MockUserRepository)
			txns := new(mpers.MockTransactionRepository)
			clock := mcore.NewMockTimeProvider(t).Frozen(now)
			logger := mcore.NewMockLogger(t).AllowAll()

			uow.On("GetUserRepository", mock.Anything).Return(users)
			uow.On("GetTransactionRepository", mock.Anything).Return(txns).Maybe()
			users.On("GetByID", mock.Anything, owner).Return(&entity.User{ID: owner, AvailableGenerations: tt.available, UsedGenerations: 3}, nil)
			if tt.setupTxns != nil {
				tt.setupTxns(txns)
			}

			// Act
			result, err := NewVerifyBalanceUseCase(uow, clock, logger).VerifyBalance(context.Background(), tt.query)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.available, result.CurrentBalance)
			assert.Equal(t, tt.expectedUpdated, result.BalanceUpdated)
			assert.Equal(t, tt.expectedMin, result.ExpectedMinBalance)
			assert.Equal(t, tt.expectTransaction, result.Transaction != nil)
			assert.Equal(t, now, result.CheckedAt)
			txns.AssertExpectations(t)
		})
	}
}

func TestVerifyBalanceErrors(t *testing.T) {
	t.Run("Missing identity", func(t *testing.T) {
		uc := NewVerifyBalanceUseCase(new(mpers.MockUnitOfWork), new(mcore.MockTimeProvider), new(mcore.MockLogger))
		_, err := uc.VerifyBalance(context.Background(), usecase.BalanceQuery{})
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})

	t.Run("Unknown user", func(t *testing.T) {
		uow := new(mpers.MockUnitOfWork)
		users := new(mpers.MockUserRepository)
		uow.On("GetUserRepository", mock.Anything).Return(users)
		users.On("GetByID", mock.Anything, "user_x").Return(nil, errs.ErrUserNotFound)

		uc := NewVerifyBalanceUseCase(uow, new(mcore.MockTimeProvider), new(mcore.MockLogger))
		_, err := uc.VerifyBalance(context.Background(), usecase.BalanceQuery{UserID: "user_x"})
		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})

	t.Run("Datastore failure on transaction lookup", func(t *testing.T) {
		uow := new(mpers.MockUnitOfWork)
		users := new(mpers.MockUserRepository)
		txns := new(mpers.MockTransactionRepository)
		uow.On("GetUserRepository", mock.Anything).Return(users)
		uow.On("GetTransactionRepository", mock.Anything).Return(txns)
		users.On("GetByID", mock.Anything, "user_1").Return(&entity.User{ID: "user_1"}, nil)
		txns.On("FindSuccessfulForUser", mock.Anything, "user_1", "tx-1").Return(nil, errs.ErrDatabaseConnection)

		clock := mcore.NewMockTimeProvider(t).Frozen(time.Now())
		uc := NewVerifyBalanceUseCase(uow, clock, new(mcore.MockLogger))
		_, err := uc.VerifyBalance(context.Background(), usecase.BalanceQuery{UserID: "user_1", TransactionID: "tx-1"})
		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
	})
}

func ptr[T any](v T) *T {
	return &v
}
