package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Schema statements are idempotent so startup can run them unconditionally.
// Migrations beyond additive DDL are handled out of band.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		id               UUID PRIMARY KEY,
		owner_id         TEXT NOT NULL,
		owner_role       TEXT NOT NULL,
		main_balance     BIGINT NOT NULL DEFAULT 0,
		trusty_balance   BIGINT NOT NULL DEFAULT 0,
		shopping_balance BIGINT NOT NULL DEFAULT 0,
		tier             TEXT NOT NULL DEFAULT 'FREE',
		status           TEXT NOT NULL DEFAULT 'ACTIVE',
		version          BIGINT NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (owner_id, owner_role),
		CHECK (main_balance >= 0),
		CHECK (trusty_balance >= 0),
		CHECK (shopping_balance >= 0)
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id               UUID PRIMARY KEY,
		order_id         TEXT NOT NULL DEFAULT '',
		complaint_id     TEXT NOT NULL DEFAULT '',
		leg_role         TEXT NOT NULL DEFAULT '',
		type             TEXT NOT NULL,
		amount           BIGINT NOT NULL,
		currency         TEXT NOT NULL,
		wallet_slot      TEXT NOT NULL DEFAULT '',
		source_wallet_id TEXT NOT NULL DEFAULT '',
		dest_wallet_id   TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		breakdown        TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transactions_order ON transactions (order_id, leg_role)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_complaint ON transactions (complaint_id, leg_role)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_dest_wallet ON transactions (dest_wallet_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_source_wallet ON transactions (source_wallet_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS transaction_audit (
		id             BIGSERIAL PRIMARY KEY,
		transaction_id UUID NOT NULL,
		from_status    TEXT NOT NULL,
		to_status      TEXT NOT NULL,
		actor          TEXT NOT NULL,
		reason         TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transaction_audit_tx ON transaction_audit (transaction_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS complaints (
		id                UUID PRIMARY KEY,
		order_id          TEXT NOT NULL,
		buyer_id          TEXT NOT NULL,
		seller_id         TEXT NOT NULL,
		franchise_id      TEXT NOT NULL DEFAULT '',
		complaint_type    TEXT NOT NULL,
		priority          TEXT NOT NULL,
		description       TEXT NOT NULL,
		status            TEXT NOT NULL,
		escalation_level  INT NOT NULL DEFAULT 1,
		fine_percentage   BIGINT NOT NULL DEFAULT 2,
		fine_amount       BIGINT NOT NULL DEFAULT 0,
		fine_status       TEXT NOT NULL DEFAULT 'PENDING',
		is_active         BOOLEAN NOT NULL DEFAULT TRUE,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		first_response_at TIMESTAMPTZ,
		resolved_at       TIMESTAMPTZ,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_complaints_open ON complaints (status, escalation_level, created_at) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS complaint_escalations (
		id           BIGSERIAL PRIMARY KEY,
		complaint_id UUID NOT NULL,
		level        INT NOT NULL,
		actor        TEXT NOT NULL,
		reason       TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (complaint_id, level)
	)`,
}

// EnsureSchema creates the settlement tables if they are missing.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	log.Println("Database schema ensured")
	return nil
}
