// Package rbac holds the role/permission grant table and the authorization
// check used in front of every sensitive operation.  The table is an
// in-memory set seeded at startup from DefaultGrants (and from the database
// when admin changes have been persisted); admin grant/revoke mutates it in
// place so checks reflect changes immediately.
package rbac

import (
	"sort"
	"sync"

	"github.com/centa/return-tracker/internal/model"
)

// DefaultGrants is the fixed bootstrap assignment of permissions to roles.
// Each department holds exactly the edit and complete rights for the stage
// it owns; no role inherits from another.
var DefaultGrants = map[model.Role][]model.Permission{
	model.RoleAdmin: {
		model.PermPageAdmin,
		model.PermPageCustomerList,
		model.PermPageProductList,
		model.PermPageCaseTracking,
		model.PermPageStatistics,
		model.PermCaseGet,
		model.PermCaseCompleteCompleted,
		model.PermCustomerCreate,
		model.PermCustomerGet,
		model.PermCustomerEdit,
		model.PermCustomerDelete,
		model.PermProductCreate,
		model.PermProductGet,
		model.PermProductEdit,
		model.PermProductDelete,
	},
	model.RoleManager: {
		model.PermPageProductList,
		model.PermPageCaseTracking,
		model.PermPageStatistics,
		model.PermCaseGet,
		model.PermCaseCompleteCompleted,
	},
	model.RoleSupport: {
		model.PermPageCaseTracking,
		model.PermCaseCreate,
		model.PermCaseGet,
		model.PermCaseDelete,
		model.PermCustomerGet,
		model.PermCaseEditDelivered,
		model.PermCaseCompleteDelivered,
	},
	model.RoleTechnician: {
		model.PermPageCaseTracking,
		model.PermCaseGet,
		model.PermProductGet,
		model.PermCaseEditTechnicalReview,
		model.PermCaseCompleteTechnicalReview,
	},
	model.RoleSales: {
		model.PermPageCustomerList,
		model.PermPageCaseTracking,
		model.PermCaseGet,
		model.PermCustomerCreate,
		model.PermCustomerGet,
		model.PermCustomerEdit,
		model.PermCustomerDelete,
		model.PermCaseEditPaymentCollection,
		model.PermCaseCompletePaymentCollection,
	},
	model.RoleLogistics: {
		model.PermPageCaseTracking,
		model.PermCaseGet,
		model.PermCaseEditShipping,
		model.PermCaseCompleteShipping,
	},
}

// Table answers "may this role do this?" by plain set membership.  A role
// with no grants (or an unknown role) always denies; there is no implicit
// inheritance between roles.  The table is safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	grants map[model.Role]map[model.Permission]struct{}
}

// NewTable returns an empty table.  Every check against it denies until
// grants are loaded.
func NewTable() *Table {
	return &Table{grants: make(map[model.Role]map[model.Permission]struct{})}
}

// Defaults returns a table populated from DefaultGrants.
func Defaults() *Table {
	t := NewTable()
	for role, perms := range DefaultGrants {
		for _, p := range perms {
			t.Grant(role, p)
		}
	}
	return t
}

// Allowed reports whether role holds perm.
func (t *Table) Allowed(role model.Role, perm model.Permission) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set, ok := t.grants[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// Grant adds a (role, permission) pair to the table.
func (t *Table) Grant(role model.Role, perm model.Permission) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.grants[role]
	if !ok {
		set = make(map[model.Permission]struct{})
		t.grants[role] = set
	}
	set[perm] = struct{}{}
}

// Revoke removes a (role, permission) pair.  Revoking a pair that was never
// granted is a no-op.
func (t *Table) Revoke(role model.Role, perm model.Permission) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.grants[role]; ok {
		delete(set, perm)
	}
}

// PermissionsFor returns the sorted permission set held by role.  The slice
// is a copy; mutating it does not affect the table.
func (t *Table) PermissionsFor(role model.Role) []model.Permission {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.grants[role]
	out := make([]model.Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Replace swaps the entire grant set, used when reloading from the
// persisted role_grants table.
func (t *Table) Replace(grants map[model.Role][]model.Permission) {
	fresh := make(map[model.Role]map[model.Permission]struct{}, len(grants))
	for role, perms := range grants {
		set := make(map[model.Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		fresh[role] = set
	}
	t.mu.Lock()
	t.grants = fresh
	t.mu.Unlock()
}
