package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/harisalimughal/GoSeller-sub002/internal/models"
)

// slotColumns whitelists balance slots to fixed column names. Slot input that
// is not in this map is rejected before any SQL is built.
var slotColumns = map[string]string{
	models.SlotMain:     "main_balance",
	models.SlotTrusty:   "trusty_balance",
	models.SlotShopping: "shopping_balance",
}

const balanceCacheTTL = 30 * time.Second

// WalletService is the single source of truth for balances. It is the only
// component permitted to mutate a wallet, and every mutation is a single
// atomic guarded UPDATE keyed by wallet id.
type WalletService struct {
	db    *sql.DB
	redis *redis.Client
}

func NewWalletService(db *sql.DB, redisClient *redis.Client) *WalletService {
	return &WalletService{
		db:    db,
		redis: redisClient,
	}
}

// FindOrCreate returns the wallet for (ownerID, role), creating it with zero
// balances if it does not exist. Safe under concurrent first references: the
// insert is ON CONFLICT DO NOTHING and the subsequent read wins either way.
func (ws *WalletService) FindOrCreate(ctx context.Context, ownerID, role string, tier models.SellerTier) (*models.Wallet, error) {
	if !models.ValidTier(tier) {
		tier = models.TierFree
	}

	_, err := ws.db.ExecContext(ctx, `
		INSERT INTO wallets (id, owner_id, owner_role, tier, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (owner_id, owner_role) DO NOTHING
	`, uuid.NewString(), ownerID, role, tier, models.WalletStatusActive)
	if err != nil {
		return nil, fmt.Errorf("wallet find-or-create failed: %w", err)
	}

	return ws.getByOwner(ctx, ownerID, role)
}

// ApplyDelta adds delta (positive or negative) to the named balance slot.
// The balance guard lives in the UPDATE's WHERE clause, so two concurrent
// deductions against the same wallet cannot both pass a stale read: exactly
// one row update wins, the other sees zero rows affected.
func (ws *WalletService) ApplyDelta(ctx context.Context, walletID, slot string, delta int64) (*models.Wallet, error) {
	column, ok := slotColumns[slot]
	if !ok {
		return nil, fmt.Errorf("unknown wallet slot %q", slot)
	}

	query := fmt.Sprintf(`
		UPDATE wallets
		SET %s = %s + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND %s + $1 >= 0
	`, column, column, column)

	result, err := ws.db.ExecContext(ctx, query, delta, walletID, models.WalletStatusActive)
	if err != nil {
		return nil, fmt.Errorf("wallet delta failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		wallet, err := ws.GetByID(ctx, walletID)
		if err != nil {
			return nil, err
		}
		if wallet.Status != models.WalletStatusActive {
			return nil, ErrWalletInactive
		}
		log.Printf("[WALLET] Delta rejected: wallet=%s slot=%s delta=%d", walletID, slot, delta)
		return nil, ErrInsufficientBalance
	}

	wallet, err := ws.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	ws.invalidateSnapshot(ctx, wallet.OwnerID)
	return wallet, nil
}

// CheckTrustyRequirement reports whether the wallet's trusty balance meets
// its tier-derived minimum. Falling short caps withdrawals; it is advisory,
// never a hard error.
func (ws *WalletService) CheckTrustyRequirement(ctx context.Context, walletID string) (bool, error) {
	wallet, err := ws.GetByID(ctx, walletID)
	if err != nil {
		return false, err
	}
	return wallet.TrustyBalance >= models.TrustyRequirement(wallet.Tier), nil
}

// SetStatus deactivates or reactivates a wallet. Wallets are never deleted.
func (ws *WalletService) SetStatus(ctx context.Context, walletID, status string) error {
	result, err := ws.db.ExecContext(ctx, `
		UPDATE wallets SET status = $1, version = version + 1, updated_at = NOW() WHERE id = $2
	`, status, walletID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrWalletNotFound
	}

	log.Printf("[WALLET] Status changed: wallet=%s status=%s", walletID, status)
	return nil
}

// GetByID fetches a single wallet.
func (ws *WalletService) GetByID(ctx context.Context, walletID string) (*models.Wallet, error) {
	return ws.scanWallet(ws.db.QueryRowContext(ctx, walletSelect+` WHERE id = $1`, walletID))
}

func (ws *WalletService) getByOwner(ctx context.Context, ownerID, role string) (*models.Wallet, error) {
	return ws.scanWallet(ws.db.QueryRowContext(ctx, walletSelect+` WHERE owner_id = $1 AND owner_role = $2`, ownerID, role))
}

// GetTotalBalance returns the owner's balance snapshot across all role
// wallets. Snapshots are cached briefly in redis; the cache is dropped on
// every delta against one of the owner's wallets.
func (ws *WalletService) GetTotalBalance(ctx context.Context, ownerID string) (*models.BalanceSnapshot, error) {
	if snapshot := ws.cachedSnapshot(ctx, ownerID); snapshot != nil {
		return snapshot, nil
	}

	rows, err := ws.db.QueryContext(ctx, walletSelect+` WHERE owner_id = $1 ORDER BY owner_role`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := &models.BalanceSnapshot{OwnerID: ownerID}
	for rows.Next() {
		wallet, err := scanWalletRow(rows)
		if err != nil {
			return nil, err
		}
		snapshot.Wallets = append(snapshot.Wallets, *wallet)
		snapshot.TotalMain += wallet.MainBalance
		snapshot.TotalTrusty += wallet.TrustyBalance
		snapshot.TotalShopping += wallet.ShoppingBalance
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(snapshot.Wallets) == 0 {
		return nil, ErrWalletNotFound
	}

	ws.cacheSnapshot(ctx, snapshot)
	return snapshot, nil
}

const walletSelect = `
	SELECT id, owner_id, owner_role, main_balance, trusty_balance, shopping_balance,
	       tier, status, version, created_at, updated_at
	FROM wallets`

type rowScanner interface {
	Scan(dest ...any) error
}

func (ws *WalletService) scanWallet(row rowScanner) (*models.Wallet, error) {
	wallet, err := scanWalletRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	return wallet, err
}

func scanWalletRow(row rowScanner) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	err := row.Scan(
		&wallet.ID, &wallet.OwnerID, &wallet.OwnerRole,
		&wallet.MainBalance, &wallet.TrustyBalance, &wallet.ShoppingBalance,
		&wallet.Tier, &wallet.Status, &wallet.Version,
		&wallet.CreatedAt, &wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Redis snapshot cache helpers. The service keeps working when redis is down.

func balanceCacheKey(ownerID string) string {
	return "wallet:snapshot:" + ownerID
}

func (ws *WalletService) cachedSnapshot(ctx context.Context, ownerID string) *models.BalanceSnapshot {
	if ws.redis == nil {
		return nil
	}
	data, err := ws.redis.Get(ctx, balanceCacheKey(ownerID)).Bytes()
	if err != nil {
		return nil
	}
	snapshot := &models.BalanceSnapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil
	}
	return snapshot
}

func (ws *WalletService) cacheSnapshot(ctx context.Context, snapshot *models.BalanceSnapshot) {
	if ws.redis == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := ws.redis.Set(ctx, balanceCacheKey(snapshot.OwnerID), data, balanceCacheTTL).Err(); err != nil {
		log.Printf("[WALLET] Snapshot cache write failed: %v", err)
	}
}

func (ws *WalletService) invalidateSnapshot(ctx context.Context, ownerID string) {
	if ws.redis == nil {
		return
	}
	if err := ws.redis.Del(ctx, balanceCacheKey(ownerID)).Err(); err != nil {
		log.Printf("[WALLET] Snapshot cache invalidation failed: %v", err)
	}
}
