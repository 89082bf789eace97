package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/harisalimughal/GoSeller-sub002/internal/audit"
	"github.com/harisalimughal/GoSeller-sub002/internal/config"
	"github.com/harisalimughal/GoSeller-sub002/internal/lock"
	"github.com/harisalimughal/GoSeller-sub002/internal/models"
)

// Base percentages of the order amount. The seller-tier bonus moves points
// from the company leg to the seller leg and touches nothing else.
const (
	basePercentSeller    = 80
	basePercentSub       = 5
	basePercentMaster    = 2
	basePercentCorporate = 1
	basePercentCompany   = 10
)

// WalletStore is the slice of WalletService the engines depend on.
type WalletStore interface {
	FindOrCreate(ctx context.Context, ownerID, role string, tier models.SellerTier) (*models.Wallet, error)
	ApplyDelta(ctx context.Context, walletID, slot string, delta int64) (*models.Wallet, error)
}

// Ledger is the slice of LedgerService the engines depend on.
type Ledger interface {
	Record(ctx context.Context, entry models.Transaction) (*models.Transaction, error)
	MarkCompleted(ctx context.Context, id, actor string) error
	MarkFailed(ctx context.Context, id, actor, reason string) error
	HasCompletedLeg(ctx context.Context, orderID, legRole string) (bool, error)
	HasCompletedFineLeg(ctx context.Context, complaintID, legRole string) (bool, error)
	OrderDistributionTotal(ctx context.Context, orderID string) (int64, error)
}

// DistributionService decomposes one order's payment into stakeholder legs
// and applies them durably. Atomicity is per leg, never per distribution:
// a failed leg is recorded as failed and retried later, completed siblings
// are left alone.
type DistributionService struct {
	wallets WalletStore
	ledger  Ledger
	redis   *redis.Client
	audit   *audit.Logger
	cfg     *config.SettlementConfig
}

func NewDistributionService(wallets WalletStore, ledger Ledger, redisClient *redis.Client, cfg *config.SettlementConfig) *DistributionService {
	return &DistributionService{
		wallets: wallets,
		ledger:  ledger,
		redis:   redisClient,
		audit:   audit.NewLogger(),
		cfg:     cfg,
	}
}

// CalculateDistribution computes the split for one order amount. The five
// percentage legs sum to exactly orderAmount: each leg is floored to the
// minor unit and the remainder lands on the company leg. The company leg is
// clamped at zero: a tier bonus can shrink it but never drive it negative.
// The rider fee is a fixed amount on top, not a percentage of the order.
func (ds *DistributionService) CalculateDistribution(orderAmount int64, tier models.SellerTier) (*models.DistributionPlan, error) {
	if orderAmount <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %d", orderAmount)
	}
	if !models.ValidTier(tier) {
		return nil, fmt.Errorf("unknown seller tier %q", tier)
	}

	bonus := models.SellerBonusPercent(tier)
	if bonus > basePercentCompany {
		bonus = basePercentCompany
	}
	sellerPercent := int64(basePercentSeller) + bonus
	companyPercent := int64(basePercentCompany) - bonus

	sellerAmount := orderAmount * sellerPercent / 100
	subAmount := orderAmount * basePercentSub / 100
	masterAmount := orderAmount * basePercentMaster / 100
	corporateAmount := orderAmount * basePercentCorporate / 100
	// Remainder from flooring the other legs is assigned here, so the legs
	// sum to orderAmount exactly.
	companyAmount := orderAmount - sellerAmount - subAmount - masterAmount - corporateAmount

	plan := &models.DistributionPlan{
		OrderAmount: orderAmount,
		SellerTier:  tier,
		Currency:    ds.cfg.Currency,
		RiderFee:    ds.cfg.RiderFee,
		Legs: []models.DistributionLeg{
			{Role: models.RoleSeller, Percent: sellerPercent, Amount: sellerAmount, Slot: models.SlotMain, Type: models.TransactionTypeWalletDistribution},
			{Role: models.RoleSubFranchise, Percent: basePercentSub, Amount: subAmount, Slot: models.SlotMain, Type: models.TransactionTypeWalletDistribution},
			{Role: models.RoleMasterFranchise, Percent: basePercentMaster, Amount: masterAmount, Slot: models.SlotMain, Type: models.TransactionTypeWalletDistribution},
			{Role: models.RoleCorporateFranchise, Percent: basePercentCorporate, Amount: corporateAmount, Slot: models.SlotMain, Type: models.TransactionTypeWalletDistribution},
			{Role: models.RoleCompany, Percent: companyPercent, Amount: companyAmount, Slot: models.SlotMain, Type: models.TransactionTypeWalletDistribution},
			{Role: models.RoleRider, Percent: 0, Amount: ds.cfg.RiderFee, Slot: models.SlotMain, Type: models.TransactionTypeRiderFee},
		},
	}
	return plan, nil
}

// DistributeOrderPayment resolves the stakeholder wallets, computes the plan,
// and applies it leg by leg: ledger entry first (PENDING), wallet credit
// second, COMPLETED last. Redelivered events are no-ops, since every leg
// checks the ledger for an already-completed transaction before re-applying,
// and a redis per-order lock keeps concurrent deliveries from racing.
func (ds *DistributionService) DistributeOrderPayment(ctx context.Context, event models.OrderCompletionEvent) (*models.DistributionResult, error) {
	if ds.redis != nil {
		orderLock := lock.NewOrderLock(ds.redis, event.OrderID, uuid.NewString())
		acquired, err := orderLock.TryLock(ctx)
		if err != nil {
			log.Printf("[DISTRIBUTION] Lock error for order %s, proceeding on ledger guards: %v", event.OrderID, err)
		} else if !acquired {
			return nil, ErrDistributionBusy
		} else {
			defer orderLock.Unlock(ctx)
		}
	}

	plan, err := ds.CalculateDistribution(event.TotalAmount, event.SellerTier)
	if err != nil {
		return nil, err
	}
	plan.OrderID = event.OrderID

	if err := ds.resolveOwners(ctx, plan, event); err != nil {
		return nil, err
	}

	breakdown, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}

	result := &models.DistributionResult{OrderID: event.OrderID}
	skipped := 0

	for _, leg := range plan.Legs {
		if leg.OwnerID == "" {
			// No rider on this order; the fixed fee leg is simply absent.
			continue
		}

		legResult := ds.applyLeg(ctx, event.OrderID, leg, string(breakdown))
		if legResult.Status == models.LegStatusSkipped {
			skipped++
		}
		result.Legs = append(result.Legs, legResult)
	}

	if skipped == len(result.Legs) && skipped > 0 {
		result.AlreadyDistributed = true
		log.Printf("[DISTRIBUTION] Order %s already distributed, no-op", event.OrderID)
		return result, ErrAlreadyDistributed
	}

	if failed := result.FailedLegs(); len(failed) > 0 {
		log.Printf("[DISTRIBUTION] Order %s: %d of %d legs failed", event.OrderID, len(failed), len(result.Legs))
	}
	return result, nil
}

// applyLeg runs one leg end to end. Ledger-write-before-wallet-mutate is
// mandatory: a crash in between leaves a PENDING entry, never an unrecorded
// balance change.
func (ds *DistributionService) applyLeg(ctx context.Context, orderID string, leg models.DistributionLeg, breakdown string) models.LegResult {
	legResult := models.LegResult{
		Role:    leg.Role,
		OwnerID: leg.OwnerID,
		Amount:  leg.Amount,
		Slot:    leg.Slot,
	}

	done, err := ds.ledger.HasCompletedLeg(ctx, orderID, leg.Role)
	if err != nil {
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}
	if done {
		legResult.Status = models.LegStatusSkipped
		return legResult
	}

	// The seller wallet was created with its tier in resolveOwners; for
	// everyone else the default tier is correct.
	wallet, err := ds.wallets.FindOrCreate(ctx, leg.OwnerID, leg.Role, models.TierFree)
	if err != nil {
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}

	entry, err := ds.ledger.Record(ctx, models.Transaction{
		OrderID:      orderID,
		LegRole:      leg.Role,
		Type:         leg.Type,
		Amount:       leg.Amount,
		Currency:     ds.cfg.Currency,
		WalletSlot:   leg.Slot,
		DestWalletID: wallet.ID,
		Breakdown:    breakdown,
	})
	if err != nil {
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}
	legResult.TransactionID = entry.ID

	if _, err := ds.wallets.ApplyDelta(ctx, wallet.ID, leg.Slot, leg.Amount); err != nil {
		if markErr := ds.ledger.MarkFailed(ctx, entry.ID, ds.cfg.SystemActor, err.Error()); markErr != nil {
			log.Printf("[DISTRIBUTION] Failed to mark leg failed: tx=%s err=%v", entry.ID, markErr)
		}
		ds.audit.LogDistributionLeg(orderID, entry.ID, leg.Role, wallet.ID, leg.Amount, "FAILED")
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}

	if err := ds.ledger.MarkCompleted(ctx, entry.ID, ds.cfg.SystemActor); err != nil {
		// The wallet moved but the entry is still PENDING; the next re-run
		// re-applies this leg, so this must be visible in the logs.
		log.Printf("[DISTRIBUTION] Leg applied but not marked completed: tx=%s err=%v", entry.ID, err)
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}

	ds.audit.LogDistributionLeg(orderID, entry.ID, leg.Role, wallet.ID, leg.Amount, "COMPLETED")
	legResult.Status = models.LegStatusCompleted
	return legResult
}

// resolveOwners binds the plan's role legs to the identities named in the
// event. The rider leg stays unbound when the order had no rider.
func (ds *DistributionService) resolveOwners(ctx context.Context, plan *models.DistributionPlan, event models.OrderCompletionEvent) error {
	owners := map[string]string{
		models.RoleSeller:             event.SellerID,
		models.RoleSubFranchise:       event.SubFranchiseID,
		models.RoleMasterFranchise:    event.MasterFranchiseID,
		models.RoleCorporateFranchise: event.CorporateFranchiseID,
		models.RoleCompany:            models.CompanyOwnerID,
		models.RoleRider:              event.RiderID,
	}

	for i := range plan.Legs {
		plan.Legs[i].OwnerID = owners[plan.Legs[i].Role]
		if plan.Legs[i].OwnerID == "" && plan.Legs[i].Role != models.RoleRider {
			return fmt.Errorf("missing stakeholder id for role %s", plan.Legs[i].Role)
		}
	}

	// The seller wallet is created eagerly with its tier so the trusty
	// requirement is right from the first credit.
	if _, err := ds.wallets.FindOrCreate(ctx, event.SellerID, models.RoleSeller, event.SellerTier); err != nil {
		return err
	}
	return nil
}

// IsNoOp reports whether a distribution error is the idempotency guard
// rather than a real failure.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrAlreadyDistributed) || errors.Is(err, ErrAlreadyCharged)
}
