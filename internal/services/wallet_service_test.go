package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/harisalimughal/GoSeller-sub002/internal/models"
)

var walletColumns = []string{
	"id", "owner_id", "owner_role", "main_balance", "trusty_balance", "shopping_balance",
	"tier", "status", "version", "created_at", "updated_at",
}

func walletRow(mockRows *sqlmock.Rows, id, ownerID, role string, main int64, status string) *sqlmock.Rows {
	now := time.Now()
	return mockRows.AddRow(id, ownerID, role, main, int64(0), int64(0), "FREE", status, 1, now, now)
}

func TestWalletService_ApplyDelta(t *testing.T) {
	ctx := context.Background()

	t.Run("successful credit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewWalletService(db, nil)

		mock.ExpectExec(`UPDATE wallets`).
			WithArgs(int64(500), "wallet-1", models.WalletStatusActive).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM wallets WHERE id = \$1`).
			WithArgs("wallet-1").
			WillReturnRows(walletRow(sqlmock.NewRows(walletColumns), "wallet-1", "seller-1", models.RoleSeller, 500, models.WalletStatusActive))

		wallet, err := service.ApplyDelta(ctx, "wallet-1", models.SlotMain, 500)
		assert.NoError(t, err)
		assert.Equal(t, int64(500), wallet.MainBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewWalletService(db, nil)

		mock.ExpectExec(`UPDATE wallets`).
			WithArgs(int64(-100), "wallet-1", models.WalletStatusActive).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM wallets WHERE id = \$1`).
			WithArgs("wallet-1").
			WillReturnRows(walletRow(sqlmock.NewRows(walletColumns), "wallet-1", "seller-1", models.RoleSeller, 50, models.WalletStatusActive))

		_, err = service.ApplyDelta(ctx, "wallet-1", models.SlotMain, -100)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("suspended wallet", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewWalletService(db, nil)

		mock.ExpectExec(`UPDATE wallets`).
			WithArgs(int64(100), "wallet-1", models.WalletStatusActive).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM wallets WHERE id = \$1`).
			WithArgs("wallet-1").
			WillReturnRows(walletRow(sqlmock.NewRows(walletColumns), "wallet-1", "seller-1", models.RoleSeller, 500, models.WalletStatusSuspended))

		_, err = service.ApplyDelta(ctx, "wallet-1", models.SlotMain, 100)
		assert.ErrorIs(t, err, ErrWalletInactive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown slot rejected", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewWalletService(db, nil)

		_, err = service.ApplyDelta(ctx, "wallet-1", "main; DROP TABLE wallets", 100)
		assert.Error(t, err)
	})
}

func TestWalletService_FindOrCreate(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db, nil)

	t.Run("creates then reads", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO wallets`).
			WithArgs(sqlmock.AnyArg(), "seller-1", models.RoleSeller, models.TierVIP, models.WalletStatusActive).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM wallets WHERE owner_id = \$1 AND owner_role = \$2`).
			WithArgs("seller-1", models.RoleSeller).
			WillReturnRows(walletRow(sqlmock.NewRows(walletColumns), "wallet-1", "seller-1", models.RoleSeller, 0, models.WalletStatusActive))

		wallet, err := service.FindOrCreate(ctx, "seller-1", models.RoleSeller, models.TierVIP)
		assert.NoError(t, err)
		assert.Equal(t, "seller-1", wallet.OwnerID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown tier falls back to FREE", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO wallets`).
			WithArgs(sqlmock.AnyArg(), "seller-2", models.RoleSeller, models.TierFree, models.WalletStatusActive).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM wallets WHERE owner_id = \$1 AND owner_role = \$2`).
			WithArgs("seller-2", models.RoleSeller).
			WillReturnRows(walletRow(sqlmock.NewRows(walletColumns), "wallet-2", "seller-2", models.RoleSeller, 0, models.WalletStatusActive))

		_, err := service.FindOrCreate(ctx, "seller-2", models.RoleSeller, models.SellerTier("PLATINUM"))
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletService_CheckTrustyRequirement(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db, nil)

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM wallets WHERE id = \$1`).
		WithArgs("wallet-1").
		WillReturnRows(sqlmock.NewRows(walletColumns).
			AddRow("wallet-1", "seller-1", models.RoleSeller, int64(0), int64(400_000), int64(0), "BASIC", models.WalletStatusActive, 1, now, now))

	met, err := service.CheckTrustyRequirement(ctx, "wallet-1")
	assert.NoError(t, err)
	assert.False(t, met, "BASIC tier requires 500_000 in trusty")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletService_GetTotalBalance(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewWalletService(db, nil)

	t.Run("sums across role wallets", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM wallets WHERE owner_id = \$1 ORDER BY owner_role`).
			WithArgs("owner-1").
			WillReturnRows(sqlmock.NewRows(walletColumns).
				AddRow("w1", "owner-1", models.RoleCustomer, int64(100), int64(0), int64(250), "FREE", models.WalletStatusActive, 1, now, now).
				AddRow("w2", "owner-1", models.RoleSeller, int64(900), int64(500), int64(0), "NORMAL", models.WalletStatusActive, 1, now, now))

		snapshot, err := service.GetTotalBalance(ctx, "owner-1")
		assert.NoError(t, err)
		assert.Equal(t, int64(1000), snapshot.TotalMain)
		assert.Equal(t, int64(500), snapshot.TotalTrusty)
		assert.Equal(t, int64(250), snapshot.TotalShopping)
		assert.Len(t, snapshot.Wallets, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no wallets", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM wallets WHERE owner_id = \$1 ORDER BY owner_role`).
			WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows(walletColumns))

		_, err := service.GetTotalBalance(ctx, "nobody")
		assert.ErrorIs(t, err, ErrWalletNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
