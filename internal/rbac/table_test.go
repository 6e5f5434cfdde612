package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/rbac"
)

func TestDefaultsStageOwnership(t *testing.T) {
	table := rbac.Defaults()

	// Each department holds exactly its own stage's edit and complete
	// rights and nobody else's.
	owners := map[model.Stage]model.Role{
		model.StageDelivered:         model.RoleSupport,
		model.StageTechnicalReview:   model.RoleTechnician,
		model.StagePaymentCollection: model.RoleSales,
		model.StageShipping:          model.RoleLogistics,
	}
	departments := []model.Role{model.RoleSupport, model.RoleTechnician, model.RoleSales, model.RoleLogistics}

	for stage, owner := range owners {
		edit, ok := model.EditPermission(stage)
		require.True(t, ok)
		complete, ok := model.CompletePermission(stage)
		require.True(t, ok)

		for _, role := range departments {
			if role == owner {
				assert.True(t, table.Allowed(role, edit), "%s should edit %s", role, stage)
				assert.True(t, table.Allowed(role, complete), "%s should complete %s", role, stage)
			} else {
				assert.False(t, table.Allowed(role, edit), "%s should not edit %s", role, stage)
				assert.False(t, table.Allowed(role, complete), "%s should not complete %s", role, stage)
			}
		}
	}
}

func TestDefaultsManagementRights(t *testing.T) {
	table := rbac.Defaults()

	assert.True(t, table.Allowed(model.RoleAdmin, model.PermPageAdmin))
	assert.False(t, table.Allowed(model.RoleManager, model.PermPageAdmin))

	// Terminal-stage completion exists as a grant even though the engine
	// always refuses it; only management holds it.
	assert.True(t, table.Allowed(model.RoleManager, model.PermCaseCompleteCompleted))
	assert.True(t, table.Allowed(model.RoleAdmin, model.PermCaseCompleteCompleted))
	assert.False(t, table.Allowed(model.RoleSupport, model.PermCaseCompleteCompleted))

	assert.True(t, table.Allowed(model.RoleSupport, model.PermCaseCreate))
	assert.False(t, table.Allowed(model.RoleManager, model.PermCaseCreate))
	assert.True(t, table.Allowed(model.RoleSupport, model.PermCaseDelete))
}

func TestEmptyTableDeniesEverything(t *testing.T) {
	table := rbac.NewTable()
	for _, role := range model.Roles() {
		for _, perm := range model.Permissions() {
			if table.Allowed(role, perm) {
				t.Fatalf("empty table allowed %s for %s", perm, role)
			}
		}
	}
}

func TestUnknownRoleDenies(t *testing.T) {
	table := rbac.Defaults()
	assert.False(t, table.Allowed(model.Role("INTERN"), model.PermCaseGet))
}

func TestGrantRevoke(t *testing.T) {
	table := rbac.Defaults()

	require.False(t, table.Allowed(model.RoleManager, model.PermCaseCreate))
	table.Grant(model.RoleManager, model.PermCaseCreate)
	assert.True(t, table.Allowed(model.RoleManager, model.PermCaseCreate))

	table.Revoke(model.RoleManager, model.PermCaseCreate)
	assert.False(t, table.Allowed(model.RoleManager, model.PermCaseCreate))

	// Revoking a grant that is not there is a no-op.
	table.Revoke(model.RoleManager, model.PermCaseCreate)
	assert.False(t, table.Allowed(model.RoleManager, model.PermCaseCreate))
}

func TestPermissionsForIsSorted(t *testing.T) {
	table := rbac.Defaults()
	perms := table.PermissionsFor(model.RoleSales)
	require.NotEmpty(t, perms)
	for i := 1; i < len(perms); i++ {
		assert.LessOrEqual(t, string(perms[i-1]), string(perms[i]))
	}
}

func TestReplaceSwapsAssignment(t *testing.T) {
	table := rbac.Defaults()
	table.Replace(map[model.Role][]model.Permission{
		model.RoleSupport: {model.PermCaseGet},
	})

	assert.True(t, table.Allowed(model.RoleSupport, model.PermCaseGet))
	assert.False(t, table.Allowed(model.RoleSupport, model.PermCaseCreate))
	assert.False(t, table.Allowed(model.RoleAdmin, model.PermPageAdmin), "replace drops roles not in the new assignment")
}
