package model

// Display labels for the canonical enum keys.  The UI renders these; the
// API and the database only ever see the canonical keys, and nothing in the
// business logic parses a label back into a key.

// StageLabels maps workflow stages to human-readable names.
var StageLabels = map[Stage]string{
	StageDelivered:         "Delivered",
	StageTechnicalReview:   "Technical Review",
	StagePaymentCollection: "Payment Collection",
	StageShipping:          "Shipping",
	StageCompleted:         "Completed",
}

// ReceiptMethodLabels maps receipt methods to human-readable names.
var ReceiptMethodLabels = map[ReceiptMethod]string{
	ReceiptShipped:       "Shipped",
	ReceiptHandDelivered: "Hand Delivered",
}

// PaymentStatusLabels maps payment statuses to human-readable names.
var PaymentStatusLabels = map[PaymentStatus]string{
	PaymentPaid:   "Paid",
	PaymentUnpaid: "Unpaid",
	PaymentWaived: "Waived",
}

// WarrantyStatusLabels maps warranty statuses to human-readable names.
var WarrantyStatusLabels = map[WarrantyStatus]string{
	WarrantyIn:      "In Warranty",
	WarrantyOut:     "Out of Warranty",
	WarrantyUnknown: "Unknown",
}

// FaultSourceLabels maps fault sources to human-readable names.
var FaultSourceLabels = map[FaultSource]string{
	FaultUser:      "User Caused",
	FaultTechnical: "Technical",
	FaultMixed:     "Mixed",
	FaultUnknown:   "Unknown",
}

// ResolutionMethodLabels maps resolution methods to human-readable names.
var ResolutionMethodLabels = map[ResolutionMethod]string{
	ResolutionRepair:        "Repair",
	ResolutionReplacement:   "Free Replacement",
	ResolutionNoneAvailable: "None Available",
	ResolutionUnknown:       "Unknown",
}

// RoleLabels maps roles to human-readable names.
var RoleLabels = map[Role]string{
	RoleAdmin:      "Admin",
	RoleManager:    "Manager",
	RoleSupport:    "Support",
	RoleTechnician: "Technician",
	RoleSales:      "Sales",
	RoleLogistics:  "Logistics",
}
