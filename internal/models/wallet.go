package models

import (
	"time"
)

// Stakeholder roles. A wallet is keyed by (owner_id, owner_role) so the same
// identity can hold e.g. a seller wallet and a customer wallet.
const (
	RoleSeller             = "SELLER"
	RoleSubFranchise       = "SUB_FRANCHISE"
	RoleMasterFranchise    = "MASTER_FRANCHISE"
	RoleCorporateFranchise = "CORPORATE_FRANCHISE"
	RoleCompany            = "COMPANY"
	RoleRider              = "RIDER"
	RoleCustomer           = "CUSTOMER"
)

// CompanyOwnerID identifies the singleton platform wallet.
const CompanyOwnerID = "company"

const (
	WalletStatusActive    = "ACTIVE"
	WalletStatusSuspended = "SUSPENDED"
	WalletStatusLocked    = "LOCKED"
)

// Balance slots. Slot names map to fixed columns; they are never interpolated
// from request input.
const (
	SlotMain     = "MAIN"
	SlotTrusty   = "TRUSTY"
	SlotShopping = "SHOPPING"
)

// SellerTier is the seller's trust/quality level. It drives both the
// distribution split and the required trusty-wallet minimum.
type SellerTier string

const (
	TierFree   SellerTier = "FREE"
	TierBasic  SellerTier = "BASIC"
	TierNormal SellerTier = "NORMAL"
	TierHigh   SellerTier = "HIGH"
	TierVIP    SellerTier = "VIP"
)

// ValidTier reports whether t is a known seller tier.
func ValidTier(t SellerTier) bool {
	switch t {
	case TierFree, TierBasic, TierNormal, TierHigh, TierVIP:
		return true
	}
	return false
}

// TrustyRequirement returns the minimum trusty balance (minor units) a wallet
// of the given tier must hold before withdrawals are uncapped.
func TrustyRequirement(tier SellerTier) int64 {
	switch tier {
	case TierBasic:
		return 500_000
	case TierNormal:
		return 1_000_000
	case TierHigh:
		return 2_500_000
	case TierVIP:
		return 5_000_000
	default:
		return 0
	}
}

// SellerBonusPercent returns the percentage points shifted from the company
// leg to the seller leg for the given tier.
func SellerBonusPercent(tier SellerTier) int64 {
	switch tier {
	case TierNormal:
		return 1
	case TierHigh:
		return 3
	case TierVIP:
		return 5
	default:
		return 0
	}
}

// Wallet holds one stakeholder's balances, in minor currency units.
// Balances only move through WalletService.ApplyDelta; the version column is
// bumped on every mutation for optimistic-lock style auditing.
type Wallet struct {
	ID              string     `json:"id" db:"id"`
	OwnerID         string     `json:"owner_id" db:"owner_id"`
	OwnerRole       string     `json:"owner_role" db:"owner_role"`
	MainBalance     int64      `json:"main_balance" db:"main_balance"`
	TrustyBalance   int64      `json:"trusty_balance" db:"trusty_balance"`
	ShoppingBalance int64      `json:"shopping_balance" db:"shopping_balance"`
	Tier            SellerTier `json:"tier" db:"tier"`
	Status          string     `json:"status" db:"status"`
	Version         int        `json:"version" db:"version"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// BalanceSnapshot is the read-only view returned to the admin/API layer.
type BalanceSnapshot struct {
	OwnerID       string   `json:"owner_id"`
	Wallets       []Wallet `json:"wallets"`
	TotalMain     int64    `json:"total_main"`
	TotalTrusty   int64    `json:"total_trusty"`
	TotalShopping int64    `json:"total_shopping"`
}
