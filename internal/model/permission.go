package model

// Role is one of the fixed organizational roles.  Roles are created once at
// bootstrap and are effectively immutable afterward; what changes over time
// is the set of permissions granted to a role, never the catalog itself.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleSupport    Role = "SUPPORT"
	RoleTechnician Role = "TECHNICIAN"
	RoleSales      Role = "SALES"
	RoleLogistics  Role = "LOGISTICS"
)

// Roles returns the full role catalog.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleSupport, RoleTechnician, RoleSales, RoleLogistics}
}

// ParseRole maps a canonical key to a Role.  Anything else, including an
// empty claim from an unauthenticated caller, returns false and must be
// treated as "no role".
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleSupport, RoleTechnician, RoleSales, RoleLogistics:
		return Role(s), true
	}
	return "", false
}

// Permission is a single fine-grained capability.  The catalog is closed:
// page views, case lifecycle operations, per-stage edit and complete
// rights, and customer/product CRUD.
type Permission string

const (
	// Page views.
	PermPageAdmin        Permission = "PAGE_VIEW_ADMIN"
	PermPageCustomerList Permission = "PAGE_VIEW_CUSTOMER_LIST"
	PermPageProductList  Permission = "PAGE_VIEW_PRODUCT_LIST"
	PermPageCaseTracking Permission = "PAGE_VIEW_CASE_TRACKING"
	PermPageStatistics   Permission = "PAGE_VIEW_STATISTICS"

	// Case lifecycle.
	PermCaseCreate Permission = "CASE_CREATE"
	PermCaseGet    Permission = "CASE_GET"
	PermCaseDelete Permission = "CASE_DELETE"

	// Per-stage edit rights.
	PermCaseEditDelivered         Permission = "CASE_EDIT_DELIVERED"
	PermCaseEditTechnicalReview   Permission = "CASE_EDIT_TECHNICAL_REVIEW"
	PermCaseEditPaymentCollection Permission = "CASE_EDIT_PAYMENT_COLLECTION"
	PermCaseEditShipping          Permission = "CASE_EDIT_SHIPPING"

	// Per-stage completion rights.
	PermCaseCompleteDelivered         Permission = "CASE_COMPLETE_DELIVERED"
	PermCaseCompleteTechnicalReview   Permission = "CASE_COMPLETE_TECHNICAL_REVIEW"
	PermCaseCompletePaymentCollection Permission = "CASE_COMPLETE_PAYMENT_COLLECTION"
	PermCaseCompleteShipping          Permission = "CASE_COMPLETE_SHIPPING"
	PermCaseCompleteCompleted         Permission = "CASE_COMPLETE_COMPLETED"

	// Customer catalog.
	PermCustomerCreate Permission = "CUSTOMER_CREATE"
	PermCustomerGet    Permission = "CUSTOMER_GET"
	PermCustomerEdit   Permission = "CUSTOMER_EDIT"
	PermCustomerDelete Permission = "CUSTOMER_DELETE"

	// Product catalog.
	PermProductCreate Permission = "PRODUCT_CREATE"
	PermProductGet    Permission = "PRODUCT_GET"
	PermProductEdit   Permission = "PRODUCT_EDIT"
	PermProductDelete Permission = "PRODUCT_DELETE"
)

// Permissions returns the full permission catalog.
func Permissions() []Permission {
	return []Permission{
		PermPageAdmin, PermPageCustomerList, PermPageProductList, PermPageCaseTracking, PermPageStatistics,
		PermCaseCreate, PermCaseGet, PermCaseDelete,
		PermCaseEditDelivered, PermCaseEditTechnicalReview, PermCaseEditPaymentCollection, PermCaseEditShipping,
		PermCaseCompleteDelivered, PermCaseCompleteTechnicalReview, PermCaseCompletePaymentCollection,
		PermCaseCompleteShipping, PermCaseCompleteCompleted,
		PermCustomerCreate, PermCustomerGet, PermCustomerEdit, PermCustomerDelete,
		PermProductCreate, PermProductGet, PermProductEdit, PermProductDelete,
	}
}

// ParsePermission maps a canonical key to a Permission.
func ParsePermission(s string) (Permission, bool) {
	for _, p := range Permissions() {
		if Permission(s) == p {
			return p, true
		}
	}
	return "", false
}

// stageEditPerms maps each editable stage to its edit permission.  COMPLETED
// has no entry: the terminal stage cannot be edited.
var stageEditPerms = map[Stage]Permission{
	StageDelivered:         PermCaseEditDelivered,
	StageTechnicalReview:   PermCaseEditTechnicalReview,
	StagePaymentCollection: PermCaseEditPaymentCollection,
	StageShipping:          PermCaseEditShipping,
}

var stageCompletePerms = map[Stage]Permission{
	StageDelivered:         PermCaseCompleteDelivered,
	StageTechnicalReview:   PermCaseCompleteTechnicalReview,
	StagePaymentCollection: PermCaseCompletePaymentCollection,
	StageShipping:          PermCaseCompleteShipping,
	StageCompleted:         PermCaseCompleteCompleted,
}

// EditPermission returns the permission required to edit the given stage.
func EditPermission(s Stage) (Permission, bool) {
	p, ok := stageEditPerms[s]
	return p, ok
}

// CompletePermission returns the permission required to complete the given
// stage.  Every stage has one, including COMPLETED, whose completion call
// always fails on the state check rather than on authorization.
func CompletePermission(s Stage) (Permission, bool) {
	p, ok := stageCompletePerms[s]
	return p, ok
}
