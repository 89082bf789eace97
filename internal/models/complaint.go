package models

import (
	"time"
)

// Complaint statuses
const (
	ComplaintStatusPending    = "PENDING"
	ComplaintStatusInProgress = "IN_PROGRESS"
	ComplaintStatusResolved   = "RESOLVED"
	ComplaintStatusEscalated  = "ESCALATED"
	ComplaintStatusClosed     = "CLOSED"
)

// EscalationLevel is the organizational tier currently responsible for an
// unresolved complaint. Levels only ever increase.
type EscalationLevel int

const (
	LevelSubFranchise    EscalationLevel = 1
	LevelMasterFranchise EscalationLevel = 2
	LevelCorporate       EscalationLevel = 3
)

func (l EscalationLevel) String() string {
	switch l {
	case LevelSubFranchise:
		return "SUB_FRANCHISE"
	case LevelMasterFranchise:
		return "MASTER_FRANCHISE"
	case LevelCorporate:
		return "CORPORATE"
	default:
		return "UNKNOWN"
	}
}

// ValidLevel reports whether l is a known escalation level.
func ValidLevel(l EscalationLevel) bool {
	return l >= LevelSubFranchise && l <= LevelCorporate
}

// FinePercentFor is the pure mapping from escalation level to fine percentage.
// It is recomputed on every level change and never set independently.
func FinePercentFor(level EscalationLevel) int64 {
	switch level {
	case LevelMasterFranchise:
		return 3
	case LevelCorporate:
		return 5
	default:
		return 2
	}
}

// Fine statuses
const (
	FineStatusPending    = "PENDING"
	FineStatusCalculated = "CALCULATED"
	FineStatusCharged    = "CHARGED"
	FineStatusRefunded   = "REFUNDED"
)

// Complaint tracks one customer dispute tied to an order.
type Complaint struct {
	ID              string          `json:"id" db:"id"`
	OrderID         string          `json:"order_id" db:"order_id"`
	BuyerID         string          `json:"buyer_id" db:"buyer_id"`
	SellerID        string          `json:"seller_id" db:"seller_id"`
	FranchiseID     string          `json:"franchise_id" db:"franchise_id"`
	ComplaintType   string          `json:"complaint_type" db:"complaint_type"`
	Priority        string          `json:"priority" db:"priority"`
	Description     string          `json:"description" db:"description"`
	Status          string          `json:"status" db:"status"`
	EscalationLevel EscalationLevel `json:"escalation_level" db:"escalation_level"`
	FinePercentage  int64           `json:"fine_percentage" db:"fine_percentage"`
	FineAmount      int64           `json:"fine_amount" db:"fine_amount"`
	FineStatus      string          `json:"fine_status" db:"fine_status"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	FirstResponseAt *time.Time      `json:"first_response_at,omitempty" db:"first_response_at"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether the complaint is out of the scheduler's reach.
func (c *Complaint) Terminal() bool {
	return c.Status == ComplaintStatusResolved || c.Status == ComplaintStatusClosed
}

// EscalationEntry is one row of a complaint's ordered escalation history.
type EscalationEntry struct {
	ComplaintID string          `json:"complaint_id" db:"complaint_id"`
	Level       EscalationLevel `json:"level" db:"level"`
	Actor       string          `json:"actor" db:"actor"`
	Reason      string          `json:"reason" db:"reason"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// EscalationAction is one pending level transition found by a scan pass.
type EscalationAction struct {
	ComplaintID string          `json:"complaint_id"`
	NewLevel    EscalationLevel `json:"new_level"`
	Reason      string          `json:"reason"`
}

// FineResult reports the outcome of one fine charge attempt.
type FineResult struct {
	ComplaintID   string      `json:"complaint_id"`
	OrderAmount   int64       `json:"order_amount"`
	FinePercent   int64       `json:"fine_percent"`
	FineAmount    int64       `json:"fine_amount"`
	CustomerShare int64       `json:"customer_share"`
	CompanyShare  int64       `json:"company_share"`
	Charged       bool        `json:"charged"`
	Legs          []LegResult `json:"legs"`
}
