package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypeOrderPayment       = "ORDER_PAYMENT"
	TransactionTypeWalletDistribution = "WALLET_DISTRIBUTION"
	TransactionTypeRiderFee           = "RIDER_FEE"
	TransactionTypeCommission         = "COMMISSION"
	TransactionTypeFineDistribution   = "FINE_DISTRIBUTION"
	TransactionTypeWithdrawal         = "WITHDRAWAL"
	TransactionTypeRefund             = "REFUND"
)

// Transaction statuses
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
	TransactionStatusReversed  = "REVERSED"
)

// ValidTransactionTransitions lists the forward-only status moves. A completed
// transaction's amount and parties are immutable; only REVERSED may follow.
var ValidTransactionTransitions = map[string][]string{
	TransactionStatusPending:   {TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusCompleted: {TransactionStatusReversed},
}

// CanTransitionStatus reports whether a ledger entry may move from current to
// target status.
func CanTransitionStatus(current, target string) bool {
	for _, s := range ValidTransactionTransitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// Transaction is an immutable ledger entry. It is written PENDING before the
// wallet mutation it describes, so a crash between the two leaves an auditable
// pending record rather than a silent balance change.
type Transaction struct {
	ID             string    `json:"id" db:"id"`
	OrderID        string    `json:"order_id,omitempty" db:"order_id"`
	ComplaintID    string    `json:"complaint_id,omitempty" db:"complaint_id"`
	LegRole        string    `json:"leg_role,omitempty" db:"leg_role"`
	Type           string    `json:"type" db:"type"`
	Amount         int64     `json:"amount" db:"amount"` // minor units
	Currency       string    `json:"currency" db:"currency"`
	WalletSlot     string    `json:"wallet_slot" db:"wallet_slot"`
	SourceWalletID string    `json:"source_wallet_id,omitempty" db:"source_wallet_id"`
	DestWalletID   string    `json:"dest_wallet_id,omitempty" db:"dest_wallet_id"`
	Status         string    `json:"status" db:"status"`
	Breakdown      string    `json:"breakdown,omitempty" db:"breakdown"` // JSON, denormalized for audit
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// TransactionAudit is one append-only entry in a transaction's state history.
type TransactionAudit struct {
	ID            int       `json:"id" db:"id"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	FromStatus    string    `json:"from_status" db:"from_status"`
	ToStatus      string    `json:"to_status" db:"to_status"`
	Actor         string    `json:"actor" db:"actor"`
	Reason        string    `json:"reason,omitempty" db:"reason"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// DistributionLeg is one stakeholder's share of a single order's payment.
type DistributionLeg struct {
	Role    string `json:"role"`
	OwnerID string `json:"owner_id"`
	Percent int64  `json:"percent"` // 0 for the fixed rider fee
	Amount  int64  `json:"amount"`
	Slot    string `json:"slot"`
	Type    string `json:"type"`
}

// DistributionPlan is the computed split for one order. The percentage legs
// sum to exactly OrderAmount; the rider fee is a fixed amount on top.
type DistributionPlan struct {
	OrderID     string            `json:"order_id"`
	OrderAmount int64             `json:"order_amount"`
	SellerTier  SellerTier        `json:"seller_tier"`
	Currency    string            `json:"currency"`
	Legs        []DistributionLeg `json:"legs"`
	RiderFee    int64             `json:"rider_fee"`
}

// PercentageTotal sums the percentage legs only (excludes the rider fee leg).
func (p *DistributionPlan) PercentageTotal() int64 {
	var total int64
	for _, leg := range p.Legs {
		if leg.Type == TransactionTypeWalletDistribution {
			total += leg.Amount
		}
	}
	return total
}

// Leg statuses within a DistributionResult.
const (
	LegStatusCompleted = "COMPLETED"
	LegStatusFailed    = "FAILED"
	LegStatusSkipped   = "SKIPPED" // already completed by an earlier delivery
)

// LegResult reports one leg's outcome. Legs succeed or fail independently;
// the caller retries only failed legs.
type LegResult struct {
	Role          string `json:"role"`
	OwnerID       string `json:"owner_id"`
	Amount        int64  `json:"amount"`
	Slot          string `json:"slot"`
	TransactionID string `json:"transaction_id,omitempty"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// DistributionResult is the structured partial-success report for one
// distribution attempt.
type DistributionResult struct {
	OrderID            string      `json:"order_id"`
	AlreadyDistributed bool        `json:"already_distributed"`
	Legs               []LegResult `json:"legs"`
}

// FailedLegs returns the legs whose wallet mutation failed.
func (r *DistributionResult) FailedLegs() []LegResult {
	var failed []LegResult
	for _, leg := range r.Legs {
		if leg.Status == LegStatusFailed {
			failed = append(failed, leg)
		}
	}
	return failed
}
