package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionStatus(t *testing.T) {
	assert.True(t, CanTransitionStatus(TransactionStatusPending, TransactionStatusCompleted))
	assert.True(t, CanTransitionStatus(TransactionStatusPending, TransactionStatusFailed))
	assert.True(t, CanTransitionStatus(TransactionStatusCompleted, TransactionStatusReversed))

	assert.False(t, CanTransitionStatus(TransactionStatusCompleted, TransactionStatusPending))
	assert.False(t, CanTransitionStatus(TransactionStatusFailed, TransactionStatusCompleted))
	assert.False(t, CanTransitionStatus(TransactionStatusReversed, TransactionStatusCompleted))
}

func TestDistributionPlan_PercentageTotal(t *testing.T) {
	plan := DistributionPlan{
		OrderAmount: 1000,
		Legs: []DistributionLeg{
			{Role: RoleSeller, Amount: 850, Type: TransactionTypeWalletDistribution},
			{Role: RoleCompany, Amount: 150, Type: TransactionTypeWalletDistribution},
			{Role: RoleRider, Amount: 50, Type: TransactionTypeRiderFee},
		},
	}
	assert.Equal(t, int64(1000), plan.PercentageTotal(), "rider fee is excluded")
}

func TestDistributionResult_FailedLegs(t *testing.T) {
	result := DistributionResult{
		Legs: []LegResult{
			{Role: RoleSeller, Status: LegStatusCompleted},
			{Role: RoleSubFranchise, Status: LegStatusFailed},
			{Role: RoleCompany, Status: LegStatusSkipped},
		},
	}
	failed := result.FailedLegs()
	assert.Len(t, failed, 1)
	assert.Equal(t, RoleSubFranchise, failed[0].Role)
}

func TestTrustyRequirement(t *testing.T) {
	assert.Equal(t, int64(0), TrustyRequirement(TierFree))
	assert.Equal(t, int64(500_000), TrustyRequirement(TierBasic))
	assert.Equal(t, int64(5_000_000), TrustyRequirement(TierVIP))
}

func TestSellerBonusPercent(t *testing.T) {
	assert.Equal(t, int64(0), SellerBonusPercent(TierFree))
	assert.Equal(t, int64(0), SellerBonusPercent(TierBasic))
	assert.Equal(t, int64(1), SellerBonusPercent(TierNormal))
	assert.Equal(t, int64(3), SellerBonusPercent(TierHigh))
	assert.Equal(t, int64(5), SellerBonusPercent(TierVIP))
}
