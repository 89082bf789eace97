package models

// OrderCompletionEvent is raised by the order/payment subsystem after payment
// capture. Delivery is at-least-once; distribution is idempotent per order.
// The franchise chain and rider are resolved by the caller because the catalog
// that maps sellers to franchises lives outside this service.
type OrderCompletionEvent struct {
	OrderID              string     `json:"orderId" validate:"required"`
	TotalAmount          int64      `json:"totalAmount" validate:"required,gt=0"` // minor units
	SellerID             string     `json:"sellerId" validate:"required"`
	SellerTier           SellerTier `json:"sellerTier" validate:"required,oneof=FREE BASIC NORMAL HIGH VIP"`
	BuyerID              string     `json:"buyerId" validate:"required"`
	SubFranchiseID       string     `json:"subFranchiseId" validate:"required"`
	MasterFranchiseID    string     `json:"masterFranchiseId" validate:"required"`
	CorporateFranchiseID string     `json:"corporateFranchiseId" validate:"required"`
	RiderID              string     `json:"riderId,omitempty"`
}

// ComplaintCreationEvent is raised by the support/complaint-intake subsystem.
type ComplaintCreationEvent struct {
	OrderID       string `json:"orderId" validate:"required"`
	BuyerID       string `json:"buyerId" validate:"required"`
	SellerID      string `json:"sellerId" validate:"required"`
	FranchiseID   string `json:"franchiseId" validate:"required"`
	ComplaintType string `json:"complaintType" validate:"required"`
	Priority      string `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	Description   string `json:"description" validate:"max=2000"`
}
