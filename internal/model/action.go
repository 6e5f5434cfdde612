package model

// Action classifies an audit log entry.  Case actions carry the case id;
// catalog actions leave it empty and name the affected record in the
// detail text instead.
type Action string

const (
	ActionCaseCreated     Action = "CASE_CREATED"
	ActionCaseDeleted     Action = "CASE_DELETED"
	ActionStageCompleted  Action = "STAGE_COMPLETED"
	ActionCustomerCreated Action = "CUSTOMER_CREATED"
	ActionCustomerDeleted Action = "CUSTOMER_DELETED"
	ActionProductCreated  Action = "PRODUCT_CREATED"
	ActionProductDeleted  Action = "PRODUCT_DELETED"
)
