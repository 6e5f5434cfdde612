package database

import (
	"context"
	"database/sql"
	"log"

	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/rbac"
	"github.com/centa/return-tracker/internal/repository"
	"github.com/centa/return-tracker/internal/utils"
)

// Seed writes the bootstrap data: the closed role and permission catalogs,
// the default grant table (only when no grants have been persisted yet, so
// admin changes survive restarts), the initial active admin account and a
// small product/customer starter set.  Every step is idempotent.
func Seed(ctx context.Context, db *sql.DB, adminEmail, adminPassword string, bcryptCost int) error {
	grants := repository.NewGrantRepo(db)
	if err := grants.EnsureCatalogs(ctx); err != nil {
		return err
	}
	empty, err := grants.Empty(ctx)
	if err != nil {
		return err
	}
	if empty {
		if err := grants.SeedDefaults(ctx, rbac.DefaultGrants); err != nil {
			return err
		}
		log.Printf("seed: default role grants written")
	}

	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(ctx, db, adminEmail, adminPassword, bcryptCost); err != nil {
			return err
		}
	}

	if err := seedProducts(ctx, db); err != nil {
		return err
	}
	return seedCustomers(ctx, db)
}

func seedAdmin(ctx context.Context, db *sql.DB, email, password string, cost int) error {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, email).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, role, first_name, last_name, is_active)
		 VALUES (?, ?, ?, 'System', 'Admin', TRUE)`,
		email, hash, string(model.RoleAdmin))
	if err != nil {
		return err
	}
	log.Printf("seed: admin account %s created", email)
	return nil
}

func seedProducts(ctx context.Context, db *sql.DB) error {
	products := []struct {
		name  string
		ptype model.ProductType
	}{
		{"DT42", model.ProductDoorDetector},
		{"DT45", model.ProductDoorDetector},
		{"L1", model.ProductControlUnit},
		{"Redstar", model.ProductOverload},
		{"Bluestar", model.ProductOverload},
	}
	for _, p := range products {
		if _, err := db.ExecContext(ctx,
			`INSERT IGNORE INTO product_models (name, product_type) VALUES (?, ?)`,
			p.name, string(p.ptype)); err != nil {
			return err
		}
	}
	return nil
}

func seedCustomers(ctx context.Context, db *sql.DB) error {
	customers := []struct {
		name, rep, contact, address string
	}{
		{"Hasan Elevators", "Hasan Demir", "hasan@hasanelevators.example", "Istanbul"},
		{"Kilic Elevators", "Ayse Kilic", "ayse@kilicelevators.example", "Ankara"},
		{"Derya Elevators", "Derya Toprak", "derya@deryaelevators.example", "Izmir"},
	}
	for _, c := range customers {
		if _, err := db.ExecContext(ctx,
			`INSERT IGNORE INTO customers (name, representative, contact_info, address) VALUES (?, ?, ?, ?)`,
			c.name, c.rep, c.contact, c.address); err != nil {
			return err
		}
	}
	return nil
}
