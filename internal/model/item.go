package model

import "time"

// WarrantyStatus is the technician's warranty verdict for one item.
type WarrantyStatus string

const (
	WarrantyIn      WarrantyStatus = "IN_WARRANTY"
	WarrantyOut     WarrantyStatus = "OUT_OF_WARRANTY"
	WarrantyUnknown WarrantyStatus = "UNKNOWN"
)

// ParseWarrantyStatus maps a canonical key to a WarrantyStatus.
func ParseWarrantyStatus(s string) (WarrantyStatus, bool) {
	switch WarrantyStatus(s) {
	case WarrantyIn, WarrantyOut, WarrantyUnknown:
		return WarrantyStatus(s), true
	}
	return "", false
}

// FaultSource records who or what caused the defect.
type FaultSource string

const (
	FaultUser      FaultSource = "USER_CAUSED"
	FaultTechnical FaultSource = "TECHNICAL"
	FaultMixed     FaultSource = "MIXED"
	FaultUnknown   FaultSource = "UNKNOWN"
)

// ParseFaultSource maps a canonical key to a FaultSource.
func ParseFaultSource(s string) (FaultSource, bool) {
	switch FaultSource(s) {
	case FaultUser, FaultTechnical, FaultMixed, FaultUnknown:
		return FaultSource(s), true
	}
	return "", false
}

// ResolutionMethod is how the technician resolved the item.
type ResolutionMethod string

const (
	ResolutionRepair        ResolutionMethod = "REPAIR"
	ResolutionReplacement   ResolutionMethod = "FREE_REPLACEMENT"
	ResolutionNoneAvailable ResolutionMethod = "NONE_AVAILABLE"
	ResolutionUnknown       ResolutionMethod = "UNKNOWN"
)

// ParseResolutionMethod maps a canonical key to a ResolutionMethod.
func ParseResolutionMethod(s string) (ResolutionMethod, bool) {
	switch ResolutionMethod(s) {
	case ResolutionRepair, ResolutionReplacement, ResolutionNoneAvailable, ResolutionUnknown:
		return ResolutionMethod(s), true
	}
	return "", false
}

// Item is one physical unit inside a return case.  Items exist only while
// their case does (cascade delete) and are only written while the case sits
// in TECHNICAL_REVIEW.  Review edits replace the whole item list rather
// than patching rows, so Item carries no update semantics of its own.
//
// ProductionPeriod is the year-month the unit was manufactured, stored as
// "2006-01"; the review gate rejects periods after the current month.
type Item struct {
	ID               uint64
	CaseID           uint64
	ProductModelID   uint64
	Quantity         uint32
	ProductionPeriod string
	WarrantyStatus   WarrantyStatus
	FaultSource      FaultSource
	Resolution       ResolutionMethod
	HasControlUnit   bool
	CableChecked     bool
	ProfileChecked   bool
	Packaged         bool
	CreatedAt        time.Time
}

// ProductionPeriodLayout is the time.Parse layout for Item.ProductionPeriod.
const ProductionPeriodLayout = "2006-01"
