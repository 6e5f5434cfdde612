package database

import (
	"context"
	"database/sql"
)

// migrations are idempotent CREATE TABLE statements executed in order at
// startup.  Foreign keys encode the ownership rules: items die with their
// case (CASCADE), customers referenced by cases cannot be dropped out from
// under them (RESTRICT), and audit rows outlive the case they mention
// (SET NULL).
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id   TINYINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(32) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_roles_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS permissions (
		id   SMALLINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(64) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_permissions_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS role_grants (
		role_id       TINYINT UNSIGNED NOT NULL,
		permission_id SMALLINT UNSIGNED NOT NULL,
		PRIMARY KEY (role_id, permission_id),
		CONSTRAINT fk_grants_role FOREIGN KEY (role_id) REFERENCES roles (id) ON DELETE CASCADE,
		CONSTRAINT fk_grants_perm FOREIGN KEY (permission_id) REFERENCES permissions (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email          VARCHAR(254) NOT NULL,
		password_hash  VARCHAR(100) NOT NULL DEFAULT '',
		role           VARCHAR(32) NOT NULL,
		first_name     VARCHAR(50) NOT NULL DEFAULT '',
		last_name      VARCHAR(50) NOT NULL DEFAULT '',
		is_active      BOOLEAN NOT NULL DEFAULT FALSE,
		notify_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		invite_hash    CHAR(64) NULL,
		invite_expiry  DATETIME NULL,
		last_login     DATETIME NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email),
		KEY idx_users_invite (invite_hash)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS customers (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name           VARCHAR(100) NOT NULL,
		representative VARCHAR(100) NOT NULL DEFAULT '',
		contact_info   VARCHAR(100) NOT NULL DEFAULT '',
		address        TEXT NOT NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_customers_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS product_models (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name         VARCHAR(100) NOT NULL,
		product_type VARCHAR(32) NOT NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_products_name_type (name, product_type)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS cases (
		id                     BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		workflow_status        VARCHAR(32) NOT NULL DEFAULT 'DELIVERED',
		customer_id            BIGINT UNSIGNED NULL,
		arrival_date           DATE NULL,
		receipt_method         VARCHAR(32) NULL,
		notes                  TEXT NOT NULL,
		parts_cost_cents       BIGINT NULL,
		maintenance_cost_cents BIGINT NULL,
		labor_cost_cents       BIGINT NULL,
		performed_service      TEXT NOT NULL,
		payment_status         VARCHAR(32) NULL,
		shipping_info          VARCHAR(255) NOT NULL DEFAULT '',
		tracking_number        VARCHAR(100) NOT NULL DEFAULT '',
		shipping_date          DATE NULL,
		created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_cases_status (workflow_status),
		KEY idx_cases_customer (customer_id),
		CONSTRAINT fk_cases_customer FOREIGN KEY (customer_id) REFERENCES customers (id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS case_items (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		case_id           BIGINT UNSIGNED NOT NULL,
		product_model_id  BIGINT UNSIGNED NOT NULL,
		quantity          INT UNSIGNED NOT NULL DEFAULT 1,
		production_period CHAR(7) NOT NULL DEFAULT '',
		warranty_status   VARCHAR(32) NOT NULL DEFAULT '',
		fault_source      VARCHAR(32) NOT NULL DEFAULT '',
		resolution        VARCHAR(32) NOT NULL DEFAULT '',
		has_control_unit  BOOLEAN NOT NULL DEFAULT FALSE,
		cable_checked     BOOLEAN NOT NULL DEFAULT FALSE,
		profile_checked   BOOLEAN NOT NULL DEFAULT FALSE,
		packaged          BOOLEAN NOT NULL DEFAULT FALSE,
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_items_case (case_id),
		KEY idx_items_product (product_model_id),
		CONSTRAINT fk_items_case FOREIGN KEY (case_id) REFERENCES cases (id) ON DELETE CASCADE,
		CONSTRAINT fk_items_product FOREIGN KEY (product_model_id) REFERENCES product_models (id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS action_logs (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_email VARCHAR(255) NOT NULL,
		case_id    BIGINT UNSIGNED NULL,
		action     VARCHAR(48) NOT NULL,
		detail     VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_logs_created (created_at),
		KEY idx_logs_case (case_id),
		CONSTRAINT fk_logs_case FOREIGN KEY (case_id) REFERENCES cases (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
