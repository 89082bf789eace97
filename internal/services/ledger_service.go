package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harisalimughal/GoSeller-sub002/internal/audit"
	"github.com/harisalimughal/GoSeller-sub002/internal/models"
)

// walletMutator is the slice of WalletService the ledger needs for
// compensating deltas on reversal.
type walletMutator interface {
	ApplyDelta(ctx context.Context, walletID, slot string, delta int64) (*models.Wallet, error)
}

// LedgerService is the durable, append-only record of money movement. It is
// deliberately independent of wallet mutation: entries are written PENDING
// first, the wallet moves second, and only then is the entry marked
// COMPLETED. A wallet failure marks the entry FAILED instead of deleting it.
type LedgerService struct {
	db      *sql.DB
	wallets walletMutator
	audit   *audit.Logger
}

func NewLedgerService(db *sql.DB, wallets walletMutator) *LedgerService {
	return &LedgerService{
		db:      db,
		wallets: wallets,
		audit:   audit.NewLogger(),
	}
}

// Record creates a ledger entry with status PENDING.
func (ls *LedgerService) Record(ctx context.Context, entry models.Transaction) (*models.Transaction, error) {
	entry.ID = uuid.NewString()
	entry.Status = models.TransactionStatusPending
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt

	_, err := ls.db.ExecContext(ctx, `
		INSERT INTO transactions
		(id, order_id, complaint_id, leg_role, type, amount, currency, wallet_slot,
		 source_wallet_id, dest_wallet_id, status, breakdown, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, entry.ID, entry.OrderID, entry.ComplaintID, entry.LegRole, entry.Type,
		entry.Amount, entry.Currency, entry.WalletSlot,
		entry.SourceWalletID, entry.DestWalletID, entry.Status, entry.Breakdown,
		entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ledger record failed: %w", err)
	}

	return &entry, nil
}

// MarkCompleted moves a PENDING entry to COMPLETED.
func (ls *LedgerService) MarkCompleted(ctx context.Context, id, actor string) error {
	return ls.transition(ctx, id, models.TransactionStatusPending, models.TransactionStatusCompleted, actor, "")
}

// MarkFailed moves a PENDING entry to FAILED. Failed entries are kept; they
// are the audit trail for legs the caller may retry.
func (ls *LedgerService) MarkFailed(ctx context.Context, id, actor, reason string) error {
	return ls.transition(ctx, id, models.TransactionStatusPending, models.TransactionStatusFailed, actor, reason)
}

// Reverse moves a COMPLETED entry to REVERSED after applying the compensating
// wallet deltas: the destination gives the amount back, and the source, if
// the entry had one, is credited again on its main balance.
func (ls *LedgerService) Reverse(ctx context.Context, id, actor, reason string) error {
	entry, err := ls.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.Status != models.TransactionStatusCompleted {
		return ErrInvalidStatusTransition
	}

	if entry.DestWalletID != "" {
		if _, err := ls.wallets.ApplyDelta(ctx, entry.DestWalletID, entry.WalletSlot, -entry.Amount); err != nil {
			return fmt.Errorf("reversal debit failed: %w", err)
		}
	}
	if entry.SourceWalletID != "" {
		// Sources always fund from their main balance.
		if _, err := ls.wallets.ApplyDelta(ctx, entry.SourceWalletID, models.SlotMain, entry.Amount); err != nil {
			return fmt.Errorf("reversal credit failed: %w", err)
		}
	}

	if err := ls.transition(ctx, id, models.TransactionStatusCompleted, models.TransactionStatusReversed, actor, reason); err != nil {
		return err
	}

	ls.audit.LogReversal(id, actor, reason)
	return nil
}

// transition performs a forward-only status move. The expected current status
// sits in the UPDATE's WHERE clause so concurrent transitions cannot both
// win, and every applied move appends a transaction_audit row.
func (ls *LedgerService) transition(ctx context.Context, id, from, to, actor, reason string) error {
	if !models.CanTransitionStatus(from, to) {
		return ErrInvalidStatusTransition
	}

	tx, err := ls.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		var current string
		err := ls.db.QueryRowContext(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&current)
		if err == sql.ErrNoRows {
			return ErrTransactionNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s -> %s (current %s)", ErrInvalidStatusTransition, from, to, current)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transaction_audit (transaction_id, from_status, to_status, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, id, from, to, actor, reason)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID fetches a single ledger entry.
func (ls *LedgerService) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	entry, err := scanTransaction(ls.db.QueryRowContext(ctx, transactionSelect+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	return entry, err
}

// HasCompletedLeg reports whether a completed distribution leg already exists
// for (orderID, legRole). This is the per-leg idempotency check that makes
// redelivered order-completion events and operator re-runs safe.
func (ls *LedgerService) HasCompletedLeg(ctx context.Context, orderID, legRole string) (bool, error) {
	var exists bool
	err := ls.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM transactions
			WHERE order_id = $1 AND leg_role = $2
			  AND type IN ($3, $4) AND status = $5
		)
	`, orderID, legRole,
		models.TransactionTypeWalletDistribution, models.TransactionTypeRiderFee,
		models.TransactionStatusCompleted).Scan(&exists)
	return exists, err
}

// HasCompletedFineLeg is the fine-side counterpart, keyed by complaint.
func (ls *LedgerService) HasCompletedFineLeg(ctx context.Context, complaintID, legRole string) (bool, error) {
	var exists bool
	err := ls.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM transactions
			WHERE complaint_id = $1 AND leg_role = $2 AND type = $3 AND status = $4
		)
	`, complaintID, legRole,
		models.TransactionTypeFineDistribution, models.TransactionStatusCompleted).Scan(&exists)
	return exists, err
}

// OrderDistributionTotal sums the completed percentage legs for an order. By
// the sum invariant this equals the original order amount, which is what fine
// computation is based on.
func (ls *LedgerService) OrderDistributionTotal(ctx context.Context, orderID string) (int64, error) {
	var total int64
	err := ls.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE order_id = $1 AND type = $2 AND status = $3
	`, orderID, models.TransactionTypeWalletDistribution, models.TransactionStatusCompleted).Scan(&total)
	return total, err
}

// FindByOrder returns all legs recorded for an order, oldest first.
func (ls *LedgerService) FindByOrder(ctx context.Context, orderID string) ([]models.Transaction, error) {
	return ls.query(ctx, transactionSelect+` WHERE order_id = $1 ORDER BY created_at`, orderID)
}

// FindByWallet returns entries touching a wallet as source or destination.
func (ls *LedgerService) FindByWallet(ctx context.Context, walletID string, limit int) ([]models.Transaction, error) {
	return ls.query(ctx, transactionSelect+`
		WHERE source_wallet_id = $1 OR dest_wallet_id = $1
		ORDER BY created_at DESC LIMIT $2`, walletID, limit)
}

// FindByOwner returns entries touching any of the owner's wallets.
func (ls *LedgerService) FindByOwner(ctx context.Context, ownerID string, limit int) ([]models.Transaction, error) {
	return ls.query(ctx, transactionSelect+`
		WHERE source_wallet_id IN (SELECT id FROM wallets WHERE owner_id = $1)
		   OR dest_wallet_id IN (SELECT id FROM wallets WHERE owner_id = $1)
		ORDER BY created_at DESC LIMIT $2`, ownerID, limit)
}

// FindByDay returns entries created on the given calendar day (UTC).
func (ls *LedgerService) FindByDay(ctx context.Context, day time.Time) ([]models.Transaction, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	return ls.query(ctx, transactionSelect+`
		WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`, start, end)
}

// AuditTrail returns the ordered status history of one entry.
func (ls *LedgerService) AuditTrail(ctx context.Context, transactionID string) ([]models.TransactionAudit, error) {
	rows, err := ls.db.QueryContext(ctx, `
		SELECT id, transaction_id, from_status, to_status, actor, reason, created_at
		FROM transaction_audit WHERE transaction_id = $1 ORDER BY created_at
	`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trail := []models.TransactionAudit{}
	for rows.Next() {
		entry := models.TransactionAudit{}
		err := rows.Scan(&entry.ID, &entry.TransactionID, &entry.FromStatus,
			&entry.ToStatus, &entry.Actor, &entry.Reason, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		trail = append(trail, entry)
	}
	return trail, rows.Err()
}

const transactionSelect = `
	SELECT id, order_id, complaint_id, leg_role, type, amount, currency, wallet_slot,
	       source_wallet_id, dest_wallet_id, status, breakdown, created_at, updated_at
	FROM transactions`

func (ls *LedgerService) query(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := ls.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.Transaction{}
	for rows.Next() {
		entry, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	entry := &models.Transaction{}
	err := row.Scan(
		&entry.ID, &entry.OrderID, &entry.ComplaintID, &entry.LegRole, &entry.Type,
		&entry.Amount, &entry.Currency, &entry.WalletSlot,
		&entry.SourceWalletID, &entry.DestWalletID, &entry.Status, &entry.Breakdown,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
