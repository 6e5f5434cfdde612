package repository

import (
	"context"
	"database/sql"

	"github.com/centa/return-tracker/internal/model"
)

// GrantRepo persists the role and permission catalogs and the role_grants
// assignment between them.  The catalogs are written once at bootstrap and
// never change; role_grants is the only mutable relationship and is mirrored
// into the in-memory rbac.Table after every change.
type GrantRepo struct {
	db *sql.DB
}

// NewGrantRepo returns a GrantRepo bound to the given database.
func NewGrantRepo(db *sql.DB) *GrantRepo { return &GrantRepo{db: db} }

// EnsureCatalogs inserts any missing roles and permissions.  Existing rows
// are left untouched, so re-running at every startup is safe.
func (r *GrantRepo) EnsureCatalogs(ctx context.Context) error {
	for _, role := range model.Roles() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT IGNORE INTO roles (name) VALUES (?)`, string(role)); err != nil {
			return err
		}
	}
	for _, perm := range model.Permissions() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT IGNORE INTO permissions (name) VALUES (?)`, string(perm)); err != nil {
			return err
		}
	}
	return nil
}

// SeedDefaults writes the given grant assignment, skipping pairs that
// already exist.
func (r *GrantRepo) SeedDefaults(ctx context.Context, grants map[model.Role][]model.Permission) error {
	for role, perms := range grants {
		for _, perm := range perms {
			if err := r.Grant(ctx, role, perm); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads the full persisted assignment as role -> permissions.
func (r *GrantRepo) Load(ctx context.Context) (map[model.Role][]model.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ro.name, pe.name
		 FROM role_grants rg
		 JOIN roles ro ON ro.id = rg.role_id
		 JOIN permissions pe ON pe.id = rg.permission_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.Role][]model.Permission)
	for rows.Next() {
		var roleName, permName string
		if err := rows.Scan(&roleName, &permName); err != nil {
			return nil, err
		}
		role := model.Role(roleName)
		out[role] = append(out[role], model.Permission(permName))
	}
	return out, rows.Err()
}

// Grant persists a (role, permission) pair.  Granting an existing pair is a
// no-op.
func (r *GrantRepo) Grant(ctx context.Context, role model.Role, perm model.Permission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO role_grants (role_id, permission_id)
		 SELECT ro.id, pe.id FROM roles ro, permissions pe
		 WHERE ro.name = ? AND pe.name = ?`,
		string(role), string(perm))
	return err
}

// Revoke removes a persisted (role, permission) pair.
func (r *GrantRepo) Revoke(ctx context.Context, role model.Role, perm model.Permission) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE rg FROM role_grants rg
		 JOIN roles ro ON ro.id = rg.role_id
		 JOIN permissions pe ON pe.id = rg.permission_id
		 WHERE ro.name = ? AND pe.name = ?`,
		string(role), string(perm))
	return err
}

// Empty reports whether no grants have been persisted yet, used to decide
// whether the bootstrap seed should run.
func (r *GrantRepo) Empty(ctx context.Context) (bool, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM role_grants`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}
