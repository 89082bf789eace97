package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/harisalimughal/GoSeller-sub002/internal/audit"
	"github.com/harisalimughal/GoSeller-sub002/internal/config"
	"github.com/harisalimughal/GoSeller-sub002/internal/models"
)

// Of every fine, this share is paid out to the affected customer's shopping
// wallet; the rest is retained against the company wallet.
const fineCustomerSharePercent = 80

// FineService converts an overdue complaint into a real money movement: a
// debit against the company wallet's main balance paid into the customer's
// shopping wallet, with the retained share recorded for audit.
type FineService struct {
	db      *sql.DB
	wallets WalletStore
	ledger  Ledger
	audit   *audit.Logger
	cfg     *config.SettlementConfig
}

func NewFineService(db *sql.DB, wallets WalletStore, ledger Ledger, cfg *config.SettlementConfig) *FineService {
	return &FineService{
		db:      db,
		wallets: wallets,
		ledger:  ledger,
		audit:   audit.NewLogger(),
		cfg:     cfg,
	}
}

// CalculateAndApplyFine charges the fine for one overdue complaint. The
// fine_status guard is the idempotency boundary: the sweep may pass over the
// same complaint many times, but CHARGED is set exactly once, and only after
// both legs completed. A partial failure leaves CALCULATED so the next sweep
// retries only the missing leg.
func (fs *FineService) CalculateAndApplyFine(ctx context.Context, complaint *models.Complaint) (*models.FineResult, error) {
	if complaint.FineStatus == models.FineStatusCharged {
		return nil, ErrAlreadyCharged
	}

	orderAmount, err := fs.ledger.OrderDistributionTotal(ctx, complaint.OrderID)
	if err != nil {
		return nil, err
	}
	if orderAmount <= 0 {
		return nil, fmt.Errorf("no completed distribution for order %s, cannot fine", complaint.OrderID)
	}

	fineAmount := orderAmount * complaint.FinePercentage / 100
	customerShare := fineAmount * fineCustomerSharePercent / 100
	companyShare := fineAmount - customerShare

	if err := fs.markCalculated(ctx, complaint.ID, fineAmount); err != nil {
		return nil, err
	}

	companyWallet, err := fs.wallets.FindOrCreate(ctx, models.CompanyOwnerID, models.RoleCompany, models.TierFree)
	if err != nil {
		return nil, err
	}
	customerWallet, err := fs.wallets.FindOrCreate(ctx, complaint.BuyerID, models.RoleCustomer, models.TierFree)
	if err != nil {
		return nil, err
	}

	result := &models.FineResult{
		ComplaintID:   complaint.ID,
		OrderAmount:   orderAmount,
		FinePercent:   complaint.FinePercentage,
		FineAmount:    fineAmount,
		CustomerShare: customerShare,
		CompanyShare:  companyShare,
	}

	customerLeg := fs.applyCustomerLeg(ctx, complaint, companyWallet, customerWallet, customerShare)
	result.Legs = append(result.Legs, customerLeg)

	companyLeg := fs.applyCompanyLeg(ctx, complaint, companyWallet, companyShare)
	result.Legs = append(result.Legs, companyLeg)

	for _, leg := range result.Legs {
		if leg.Status == models.LegStatusFailed {
			log.Printf("[FINE] Complaint %s: leg %s failed, fine stays CALCULATED", complaint.ID, leg.Role)
			return result, nil
		}
	}

	if err := fs.markCharged(ctx, complaint.ID); err != nil {
		return result, err
	}
	complaint.FineStatus = models.FineStatusCharged
	complaint.FineAmount = fineAmount
	result.Charged = true
	fs.audit.LogFine(complaint.ID, "", fineAmount, "CHARGED")
	return result, nil
}

// applyCustomerLeg moves the customer share from the company main balance to
// the customer's shopping wallet, ledger entry first.
func (fs *FineService) applyCustomerLeg(ctx context.Context, complaint *models.Complaint, company, customer *models.Wallet, amount int64) models.LegResult {
	legResult := models.LegResult{
		Role:    models.RoleCustomer,
		OwnerID: complaint.BuyerID,
		Amount:  amount,
		Slot:    models.SlotShopping,
	}

	done, err := fs.ledger.HasCompletedFineLeg(ctx, complaint.ID, models.RoleCustomer)
	if err != nil {
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}
	if done {
		legResult.Status = models.LegStatusSkipped
		return legResult
	}

	entry, err := fs.ledger.Record(ctx, models.Transaction{
		OrderID:        complaint.OrderID,
		ComplaintID:    complaint.ID,
		LegRole:        models.RoleCustomer,
		Type:           models.TransactionTypeFineDistribution,
		Amount:         amount,
		Currency:       fs.cfg.Currency,
		WalletSlot:     models.SlotShopping,
		SourceWalletID: company.ID,
		DestWalletID:   customer.ID,
	})
	if err != nil {
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}
	legResult.TransactionID = entry.ID

	if _, err := fs.wallets.ApplyDelta(ctx, company.ID, models.SlotMain, -amount); err != nil {
		fs.failLeg(ctx, entry.ID, err)
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}

	if _, err := fs.wallets.ApplyDelta(ctx, customer.ID, models.SlotShopping, amount); err != nil {
		// Give the debited amount back so the company balance stays honest.
		if _, compErr := fs.wallets.ApplyDelta(ctx, company.ID, models.SlotMain, amount); compErr != nil {
			log.Printf("[FINE] Compensating credit failed: complaint=%s err=%v", complaint.ID, compErr)
		}
		fs.failLeg(ctx, entry.ID, err)
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}

	if err := fs.ledger.MarkCompleted(ctx, entry.ID, fs.cfg.SystemActor); err != nil {
		log.Printf("[FINE] Leg applied but not marked completed: tx=%s err=%v", entry.ID, err)
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}

	fs.audit.LogFine(complaint.ID, entry.ID, amount, "COMPLETED")
	legResult.Status = models.LegStatusCompleted
	return legResult
}

// applyCompanyLeg records the retained share. It is a self-leg on the company
// wallet with no net balance change, kept so the full fine amount is visible
// in the ledger per complaint.
func (fs *FineService) applyCompanyLeg(ctx context.Context, complaint *models.Complaint, company *models.Wallet, amount int64) models.LegResult {
	legResult := models.LegResult{
		Role:    models.RoleCompany,
		OwnerID: models.CompanyOwnerID,
		Amount:  amount,
		Slot:    models.SlotMain,
	}

	done, err := fs.ledger.HasCompletedFineLeg(ctx, complaint.ID, models.RoleCompany)
	if err != nil {
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}
	if done {
		legResult.Status = models.LegStatusSkipped
		return legResult
	}

	entry, err := fs.ledger.Record(ctx, models.Transaction{
		OrderID:        complaint.OrderID,
		ComplaintID:    complaint.ID,
		LegRole:        models.RoleCompany,
		Type:           models.TransactionTypeFineDistribution,
		Amount:         amount,
		Currency:       fs.cfg.Currency,
		WalletSlot:     models.SlotMain,
		SourceWalletID: company.ID,
		DestWalletID:   company.ID,
	})
	if err != nil {
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}
	legResult.TransactionID = entry.ID

	if err := fs.ledger.MarkCompleted(ctx, entry.ID, fs.cfg.SystemActor); err != nil {
		legResult.Status = models.LegStatusFailed
		legResult.Error = err.Error()
		return legResult
	}

	fs.audit.LogFine(complaint.ID, entry.ID, amount, "COMPLETED")
	legResult.Status = models.LegStatusCompleted
	return legResult
}

func (fs *FineService) failLeg(ctx context.Context, transactionID string, cause error) {
	if err := fs.ledger.MarkFailed(ctx, transactionID, fs.cfg.SystemActor, cause.Error()); err != nil {
		log.Printf("[FINE] Failed to mark leg failed: tx=%s err=%v", transactionID, err)
	}
}

// markCalculated persists the computed amount. The guard re-checks CHARGED so
// a racing sweep cannot recalculate a fine that was just charged.
func (fs *FineService) markCalculated(ctx context.Context, complaintID string, fineAmount int64) error {
	result, err := fs.db.ExecContext(ctx, `
		UPDATE complaints
		SET fine_amount = $1, fine_status = $2, updated_at = NOW()
		WHERE id = $3 AND fine_status != $4
	`, fineAmount, models.FineStatusCalculated, complaintID, models.FineStatusCharged)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAlreadyCharged
	}
	return nil
}

func (fs *FineService) markCharged(ctx context.Context, complaintID string) error {
	result, err := fs.db.ExecContext(ctx, `
		UPDATE complaints
		SET fine_status = $1, updated_at = NOW()
		WHERE id = $2 AND fine_status = $3
	`, models.FineStatusCharged, complaintID, models.FineStatusCalculated)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Another sweep won the race; both legs are idempotent so the money
		// moved exactly once either way.
		return ErrAlreadyCharged
	}
	return nil
}
