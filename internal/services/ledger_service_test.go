package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/harisalimughal/GoSeller-sub002/internal/models"
)

var transactionColumns = []string{
	"id", "order_id", "complaint_id", "leg_role", "type", "amount", "currency", "wallet_slot",
	"source_wallet_id", "dest_wallet_id", "status", "breakdown", "created_at", "updated_at",
}

func TestLedgerService_Record(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db, &MockWalletStore{})

	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(sqlmock.AnyArg(), "order-1", "", models.RoleSeller, models.TransactionTypeWalletDistribution,
			int64(850), "PKR", models.SlotMain, "", "wallet-1", models.TransactionStatusPending,
			"", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry, err := service.Record(ctx, models.Transaction{
		OrderID:      "order-1",
		LegRole:      models.RoleSeller,
		Type:         models.TransactionTypeWalletDistribution,
		Amount:       850,
		Currency:     "PKR",
		WalletSlot:   models.SlotMain,
		DestWalletID: "wallet-1",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.TransactionStatusPending, entry.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_MarkCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to completed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewLedgerService(db, &MockWalletStore{})

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE transactions SET status`).
			WithArgs(models.TransactionStatusCompleted, "tx-1", models.TransactionStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO transaction_audit`).
			WithArgs("tx-1", models.TransactionStatusPending, models.TransactionStatusCompleted, "settlement-core", "").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err = service.MarkCompleted(ctx, "tx-1", "settlement-core")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already completed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewLedgerService(db, &MockWalletStore{})

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE transactions SET status`).
			WithArgs(models.TransactionStatusCompleted, "tx-1", models.TransactionStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT status FROM transactions`).
			WithArgs("tx-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.TransactionStatusCompleted))
		mock.ExpectRollback()

		err = service.MarkCompleted(ctx, "tx-1", "settlement-core")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing entry", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewLedgerService(db, &MockWalletStore{})

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE transactions SET status`).
			WithArgs(models.TransactionStatusCompleted, "tx-missing", models.TransactionStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT status FROM transactions`).
			WithArgs("tx-missing").
			WillReturnRows(sqlmock.NewRows([]string{"status"}))
		mock.ExpectRollback()

		err = service.MarkCompleted(ctx, "tx-missing", "settlement-core")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_Transition_Invalid(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db, &MockWalletStore{})

	// FAILED is terminal; no transition out of it is defined.
	err = service.transition(context.Background(), "tx-1",
		models.TransactionStatusFailed, models.TransactionStatusCompleted, "actor", "")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestLedgerService_Reverse(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("compensates both wallets", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		wallets := &MockWalletStore{}
		service := NewLedgerService(db, wallets)

		mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE id = \$1`).
			WithArgs("tx-1").
			WillReturnRows(sqlmock.NewRows(transactionColumns).
				AddRow("tx-1", "order-1", "complaint-1", models.RoleCustomer, models.TransactionTypeFineDistribution,
					int64(160), "PKR", models.SlotShopping, "company-wallet", "customer-wallet",
					models.TransactionStatusCompleted, "", now, now))

		wallets.On("ApplyDelta", ctx, "customer-wallet", models.SlotShopping, int64(-160)).
			Return(&models.Wallet{ID: "customer-wallet"}, nil)
		wallets.On("ApplyDelta", ctx, "company-wallet", models.SlotMain, int64(160)).
			Return(&models.Wallet{ID: "company-wallet"}, nil)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE transactions SET status`).
			WithArgs(models.TransactionStatusReversed, "tx-1", models.TransactionStatusCompleted).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO transaction_audit`).
			WithArgs("tx-1", models.TransactionStatusCompleted, models.TransactionStatusReversed, "ops", "chargeback").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err = service.Reverse(ctx, "tx-1", "ops", "chargeback")
		assert.NoError(t, err)
		wallets.AssertExpectations(t)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-completed entry", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewLedgerService(db, &MockWalletStore{})

		mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE id = \$1`).
			WithArgs("tx-2").
			WillReturnRows(sqlmock.NewRows(transactionColumns).
				AddRow("tx-2", "order-1", "", models.RoleSeller, models.TransactionTypeWalletDistribution,
					int64(850), "PKR", models.SlotMain, "", "wallet-1",
					models.TransactionStatusPending, "", now, now))

		err = service.Reverse(ctx, "tx-2", "ops", "mistake")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})
}

func TestLedgerService_HasCompletedLeg(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db, &MockWalletStore{})

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("order-1", models.RoleSeller,
			models.TransactionTypeWalletDistribution, models.TransactionTypeRiderFee,
			models.TransactionStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	done, err := service.HasCompletedLeg(ctx, "order-1", models.RoleSeller)
	assert.NoError(t, err)
	assert.True(t, done)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_OrderDistributionTotal(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db, &MockWalletStore{})

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions`).
		WithArgs("order-1", models.TransactionTypeWalletDistribution, models.TransactionStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(1000)))

	total, err := service.OrderDistributionTotal(ctx, "order-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
