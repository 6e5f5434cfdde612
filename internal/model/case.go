package model

import "time"

// ReceiptMethod records how a returned unit arrived at intake.
type ReceiptMethod string

const (
	ReceiptShipped       ReceiptMethod = "SHIPPED"
	ReceiptHandDelivered ReceiptMethod = "HAND_DELIVERED"
)

// ParseReceiptMethod maps a canonical key to a ReceiptMethod.
func ParseReceiptMethod(s string) (ReceiptMethod, bool) {
	switch ReceiptMethod(s) {
	case ReceiptShipped, ReceiptHandDelivered:
		return ReceiptMethod(s), true
	}
	return "", false
}

// PaymentStatus is the collection outcome recorded by sales.  UNPAID is a
// valid saved value but blocks completion of the payment stage.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "PAID"
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentWaived PaymentStatus = "WAIVED"
)

// ParsePaymentStatus maps a canonical key to a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentPaid, PaymentUnpaid, PaymentWaived:
		return PaymentStatus(s), true
	}
	return "", false
}

// Case represents one returned-unit intake moving through the repair and
// reimbursement workflow.  Field groups are owned by exactly one stage: a
// stage's edit endpoint may touch only its own group, and the gate for that
// stage checks only its own group before the case advances.
//
// Pointer fields are nullable columns: nil means the department has not
// recorded the value yet.  Costs are stored in cents to avoid float drift;
// the total is derived, never stored.
type Case struct {
	ID             uint64
	WorkflowStatus Stage

	// Intake fields (owned by DELIVERED).
	CustomerID    uint64 // 0 until a customer is assigned
	ArrivalDate   *time.Time
	ReceiptMethod ReceiptMethod // "" until set
	Notes         string

	// Review fields (owned by TECHNICAL_REVIEW).  Items live in their own
	// table and are loaded separately; see Item.
	PartsCostCents       *int64
	MaintenanceCostCents *int64
	LaborCostCents       *int64
	PerformedService     string

	// Collection fields (owned by PAYMENT_COLLECTION).
	PaymentStatus PaymentStatus // "" until set

	// Shipping fields (owned by SHIPPING).
	ShippingInfo   string
	TrackingNumber string
	ShippingDate   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalCostCents returns the sum of the three cost components.  The second
// return value is false until all three have been recorded.
func (c *Case) TotalCostCents() (int64, bool) {
	if c.PartsCostCents == nil || c.MaintenanceCostCents == nil || c.LaborCostCents == nil {
		return 0, false
	}
	return *c.PartsCostCents + *c.MaintenanceCostCents + *c.LaborCostCents, true
}
