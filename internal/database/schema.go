package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		role VARCHAR(32) NOT NULL DEFAULT 'customer',
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		phone_number VARCHAR(32) NOT NULL DEFAULT '',
		auto_invest BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(18,2) NOT NULL,
		stock_count INT NOT NULL DEFAULT 0,
		cashback_rate DECIMAL(5,2) NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		CONSTRAINT chk_products_stock CHECK (stock_count >= 0)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		status VARCHAR(32) NOT NULL,
		payment_method VARCHAR(32) NOT NULL,
		payment_status VARCHAR(32) NOT NULL,
		delivery_address TEXT NOT NULL,
		total_amount DECIMAL(18,2) NOT NULL,
		total_cashback DECIMAL(18,2) NOT NULL,
		idempotency_key VARCHAR(128) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_orders_idempotency (user_id, idempotency_key),
		KEY idx_orders_user (user_id, created_at),
		CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(18,2) NOT NULL,
		cashback DECIMAL(18,2) NOT NULL,
		position INT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_order_items_order (order_id, position),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (id),
		CONSTRAINT chk_order_items_qty CHECK (quantity > 0)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS wallet_accounts (
		user_id BIGINT PRIMARY KEY,
		balance DECIMAL(18,2) NOT NULL DEFAULT 0,
		updated_at DATETIME(6) NOT NULL,
		CONSTRAINT chk_wallet_balance CHECK (balance >= 0)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		type VARCHAR(32) NOT NULL,
		amount DECIMAL(18,2) NOT NULL,
		balance_before DECIMAL(18,2) NOT NULL,
		balance_after DECIMAL(18,2) NOT NULL,
		reference VARCHAR(128) NOT NULL DEFAULT '',
		description VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME(6) NOT NULL,
		KEY idx_wallet_tx_user_time (user_id, created_at)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS cashback_records (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		transaction_id BIGINT NOT NULL,
		amount DECIMAL(18,2) NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_cashback_order (order_id),
		UNIQUE KEY uq_cashback_tx (transaction_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS investment_plans (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		slug VARCHAR(128) NOT NULL,
		name VARCHAR(255) NOT NULL,
		min_amount DECIMAL(18,2) NOT NULL,
		duration_days INT NOT NULL,
		return_rate DECIMAL(6,2) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_plans_slug (slug)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS investments (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		plan_id BIGINT NOT NULL,
		order_id BIGINT NOT NULL,
		principal DECIMAL(18,2) NOT NULL,
		current_value DECIMAL(18,2) NOT NULL,
		expected_return DECIMAL(18,2) NOT NULL,
		maturity_date DATETIME(6) NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_investments_user (user_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS referral_codes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		code VARCHAR(32) NOT NULL,
		total_earnings DECIMAL(18,2) NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_referral_owner (user_id),
		UNIQUE KEY uq_referral_code (code)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS referral_uses (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		referral_code_id BIGINT NOT NULL,
		order_id BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_referral_use (user_id, referral_code_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS referral_commissions (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		referral_code_id BIGINT NOT NULL,
		referrer_id BIGINT NOT NULL,
		buyer_id BIGINT NOT NULL,
		order_id BIGINT NOT NULL,
		amount DECIMAL(18,2) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_commissions_code (referral_code_id)
	) ENGINE=InnoDB`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
