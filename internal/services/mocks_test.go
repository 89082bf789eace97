package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/harisalimughal/GoSeller-sub002/internal/models"
)

type MockWalletStore struct {
	mock.Mock
}

func (m *MockWalletStore) FindOrCreate(ctx context.Context, ownerID, role string, tier models.SellerTier) (*models.Wallet, error) {
	args := m.Called(ctx, ownerID, role, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletStore) ApplyDelta(ctx context.Context, walletID, slot string, delta int64) (*models.Wallet, error) {
	args := m.Called(ctx, walletID, slot, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Record(ctx context.Context, entry models.Transaction) (*models.Transaction, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedger) MarkCompleted(ctx context.Context, id, actor string) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockLedger) MarkFailed(ctx context.Context, id, actor, reason string) error {
	args := m.Called(ctx, id, actor, reason)
	return args.Error(0)
}

func (m *MockLedger) HasCompletedLeg(ctx context.Context, orderID, legRole string) (bool, error) {
	args := m.Called(ctx, orderID, legRole)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) HasCompletedFineLeg(ctx context.Context, complaintID, legRole string) (bool, error) {
	args := m.Called(ctx, complaintID, legRole)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) OrderDistributionTotal(ctx context.Context, orderID string) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}
