package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) ProvisionUser(ctx context.Context, id, email string) (*entity.User, error) {
	args := m.Called(ctx, id, email)
	if u := args.Get(0); u != nil {
		return u.(*entity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) GetUser(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*entity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOrphans struct{ mock.Mock }

func (m *mockOrphans) ListOrphans(ctx context.Context, limit int) ([]*entity.Transaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*entity.Transaction), args.Error(1)
}

func (m *mockOrphans) CreditOrphan(ctx context.Context, transactionID string) (*usecase.ReconciliationResult, error) {
	args := m.Called(ctx, transactionID)
	if r := args.Get(0); r != nil {
		return r.(*usecase.ReconciliationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type harness struct {
	users    *mockUsers
	orphans  *mockOrphans
	migrated bool
	closed   int
	quiet    bool
}

func (h *harness) open(quiet bool) (*services, func(), error) {
	h.quiet = quiet
	return &services{
		Users:   h.users,
		Orphans: h.orphans,
		Migrate: func(context.Context) error {
			h.migrated = true
			return nil
		},
	}, func() { h.closed++ }, nil
}

func run(t *testing.T, h *harness, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(h.open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newHarness() *harness {
	return &harness{users: &mockUsers{}, orphans: &mockOrphans{}}
}

func TestMigrateCmd(t *testing.T) {
	h := newHarness()
	out, err := run(t, h, "migrate", "--quiet")

	require.NoError(t, err)
	assert.True(t, h.migrated)
	assert.True(t, h.quiet)
	assert.Equal(t, 1, h.closed)
	assert.Contains(t, out, "schema up to date")
}

func TestUsersCreateCmd(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		h := newHarness()
		h.users.On("ProvisionUser", mock.Anything, "user_1", "a@example.com").
			Return(&entity.User{ID: "user_1", Email: "a@example.com", AvailableGenerations: 20}, nil)

		out, err := run(t, h, "users", "create", "--id", "user_1", "--email", "a@example.com")

		require.NoError(t, err)
		assert.Contains(t, out, "created user_1 (a@example.com) available=20 used=0")
		h.users.AssertExpectations(t)
	})

	t.Run("MissingFlag", func(t *testing.T) {
		h := newHarness()
		_, err := run(t, h, "users", "create", "--id", "user_1")

		require.Error(t, err)
		assert.Equal(t, 0, h.closed)
	})

	t.Run("Duplicate", func(t *testing.T) {
		h := newHarness()
		h.users.On("ProvisionUser", mock.Anything, "user_1", "a@example.com").Return(nil, errs.ErrDuplicateUser)

		_, err := run(t, h, "users", "create", "--id", "user_1", "--email", "a@example.com")

		assert.ErrorIs(t, err, errs.ErrDuplicateUser)
	})
}

func TestOrphansListCmd(t *testing.T) {
	amount := int64(1250)
	userID := "user_9"
	paidAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	h := newHarness()
	h.orphans.On("ListOrphans", mock.Anything, 5).Return([]*entity.Transaction{{
		WebhookEventID: "tx-1",
		UserID:         &userID,
		Amount:         &amount,
		Currency:       "USD",
		Description:    "Pack (50 tokens)",
		PaidAt:         &paidAt,
	}}, nil)

	out, err := run(t, h, "orphans", "list", "-n", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "tx-1")
	assert.Contains(t, out, "user_9")
	assert.Contains(t, out, "12.50 USD")
	assert.Contains(t, out, "2024-03-01 10:00:00")
}

func TestOrphansListCmd_Empty(t *testing.T) {
	h := newHarness()
	h.orphans.On("ListOrphans", mock.Anything, 50).Return([]*entity.Transaction{}, nil)

	out, err := run(t, h, "orphans", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "no payments awaiting reconciliation")
}

func TestOrphansCreditCmd(t *testing.T) {
	t.Run("Credited", func(t *testing.T) {
		h := newHarness()
		h.orphans.On("CreditOrphan", mock.Anything, "tx-1").Return(&usecase.ReconciliationResult{
			TransactionID: "tx-1", UserID: "user_9", Tokens: 50, NewBalance: 70,
		}, nil)

		out, err := run(t, h, "orphans", "credit", "tx-1")

		require.NoError(t, err)
		assert.Contains(t, out, "credited 50 tokens to user_9, balance now 70")
	})

	t.Run("NotReconcilable", func(t *testing.T) {
		h := newHarness()
		h.orphans.On("CreditOrphan", mock.Anything, "tx-1").Return(nil, errs.ErrNotReconcilable)

		_, err := run(t, h, "orphans", "credit", "tx-1")

		assert.True(t, errors.Is(err, errs.ErrNotReconcilable))
	})

	t.Run("NeedsArgument", func(t *testing.T) {
		_, err := run(t, newHarness(), "orphans", "credit")
		assert.Error(t, err)
	})
}
