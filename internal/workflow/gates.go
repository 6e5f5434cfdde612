package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/centa/return-tracker/internal/model"
)

// CanComplete runs the completeness gate for the given stage.  It is a pure
// function of the case, its items and the supplied clock: the same inputs
// always produce the same verdict.  When ok is false, missing names every
// field the stage still needs before the case may advance.
//
// Validation happens only here, at the transition boundary.  Stage edits
// save partial data freely; the gate guarantees the next department never
// receives incomplete work.
func CanComplete(c *model.Case, items []model.Item, stage model.Stage, now time.Time) (ok bool, missing []string) {
	switch stage {
	case model.StageDelivered:
		missing = gateDelivered(c)
	case model.StageTechnicalReview:
		missing = gateTechnicalReview(c, items, now)
	case model.StagePaymentCollection:
		missing = gatePaymentCollection(c)
	case model.StageShipping:
		missing = gateShipping(c)
	default:
		// COMPLETED is terminal and unknown stages never validate; the
		// engine rejects both before reaching the gate.
		return false, []string{"stage has no completion gate"}
	}
	return len(missing) == 0, missing
}

func gateDelivered(c *model.Case) []string {
	var missing []string
	if c.CustomerID == 0 {
		missing = append(missing, "customer")
	}
	if c.ArrivalDate == nil {
		missing = append(missing, "arrival_date")
	}
	if c.ReceiptMethod == "" {
		missing = append(missing, "receipt_method")
	}
	return missing
}

func gateTechnicalReview(c *model.Case, items []model.Item, now time.Time) []string {
	var missing []string
	if len(items) == 0 {
		missing = append(missing, "at least one item required")
	}
	for i, it := range items {
		missing = append(missing, itemMissing(&it, i, now)...)
	}
	if strings.TrimSpace(c.PerformedService) == "" {
		missing = append(missing, "performed_service")
	}
	missing = append(missing, costMissing("parts_cost", c.PartsCostCents)...)
	missing = append(missing, costMissing("maintenance_cost", c.MaintenanceCostCents)...)
	missing = append(missing, costMissing("labor_cost", c.LaborCostCents)...)
	return missing
}

// itemMissing checks a single reviewed item.  The production period must
// parse as year-month and may not lie in the future; the three physical
// checks must all be confirmed before the case can leave review.
func itemMissing(it *model.Item, idx int, now time.Time) []string {
	var missing []string
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", idx, name) }

	if it.ProductModelID == 0 {
		missing = append(missing, field("product_model"))
	}
	if it.Quantity == 0 {
		missing = append(missing, field("quantity"))
	}
	if per, err := time.Parse(model.ProductionPeriodLayout, it.ProductionPeriod); err != nil {
		missing = append(missing, field("production_period"))
	} else {
		cur := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		if per.After(cur) {
			missing = append(missing, field("production_period"))
		}
	}
	if it.WarrantyStatus == "" {
		missing = append(missing, field("warranty_status"))
	}
	if it.FaultSource == "" {
		missing = append(missing, field("fault_source"))
	}
	if it.Resolution == "" {
		missing = append(missing, field("resolution"))
	}
	if !it.CableChecked {
		missing = append(missing, field("cable_checked"))
	}
	if !it.ProfileChecked {
		missing = append(missing, field("profile_checked"))
	}
	if !it.Packaged {
		missing = append(missing, field("packaged"))
	}
	return missing
}

func costMissing(name string, cents *int64) []string {
	if cents == nil || *cents < 0 {
		return []string{name}
	}
	return nil
}

func gatePaymentCollection(c *model.Case) []string {
	switch c.PaymentStatus {
	case model.PaymentPaid, model.PaymentWaived:
		return nil
	case model.PaymentUnpaid:
		// An explicit UNPAID is a recorded value, but it blocks completion
		// until payment is collected or waived.
		return []string{"payment_status: unpaid blocks completion"}
	default:
		return []string{"payment_status"}
	}
}

func gateShipping(c *model.Case) []string {
	var missing []string
	if strings.TrimSpace(c.ShippingInfo) == "" {
		missing = append(missing, "shipping_info")
	}
	if strings.TrimSpace(c.TrackingNumber) == "" {
		missing = append(missing, "tracking_number")
	}
	if c.ShippingDate == nil {
		missing = append(missing, "shipping_date")
	}
	return missing
}
