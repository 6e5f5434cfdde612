package workflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/workflow"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func ptrI64(v int64) *int64          { return &v }
func ptrTime(t time.Time) *time.Time { return &t }

// intakeComplete returns a case whose intake fields are fully recorded.
func intakeComplete() *model.Case {
	return &model.Case{
		WorkflowStatus: model.StageDelivered,
		CustomerID:     7,
		ArrivalDate:    ptrTime(testNow.AddDate(0, 0, -3)),
		ReceiptMethod:  model.ReceiptShipped,
	}
}

// reviewComplete returns a case and item list that pass the review gate.
func reviewComplete() (*model.Case, []model.Item) {
	c := intakeComplete()
	c.WorkflowStatus = model.StageTechnicalReview
	c.PartsCostCents = ptrI64(12000)
	c.MaintenanceCostCents = ptrI64(3000)
	c.LaborCostCents = ptrI64(8000)
	c.PerformedService = "replaced door detector lens, recalibrated"
	return c, []model.Item{reviewedItem()}
}

func reviewedItem() model.Item {
	return model.Item{
		ProductModelID:   3,
		Quantity:         2,
		ProductionPeriod: "2024-11",
		WarrantyStatus:   model.WarrantyIn,
		FaultSource:      model.FaultTechnical,
		Resolution:       model.ResolutionRepair,
		CableChecked:     true,
		ProfileChecked:   true,
		Packaged:         true,
	}
}

func TestGateDelivered(t *testing.T) {
	t.Run("complete intake passes", func(t *testing.T) {
		ok, missing := workflow.CanComplete(intakeComplete(), nil, model.StageDelivered, testNow)
		assert.True(t, ok)
		assert.Empty(t, missing)
	})

	t.Run("empty case reports every intake field", func(t *testing.T) {
		ok, missing := workflow.CanComplete(&model.Case{WorkflowStatus: model.StageDelivered}, nil, model.StageDelivered, testNow)
		require.False(t, ok)
		assert.ElementsMatch(t, []string{"customer", "arrival_date", "receipt_method"}, missing)
	})

	t.Run("missing arrival date only", func(t *testing.T) {
		c := intakeComplete()
		c.ArrivalDate = nil
		ok, missing := workflow.CanComplete(c, nil, model.StageDelivered, testNow)
		require.False(t, ok)
		assert.Equal(t, []string{"arrival_date"}, missing)
	})
}

func TestGateTechnicalReview(t *testing.T) {
	t.Run("fully reviewed case passes", func(t *testing.T) {
		c, items := reviewComplete()
		ok, missing := workflow.CanComplete(c, items, model.StageTechnicalReview, testNow)
		assert.True(t, ok, "unexpected missing fields: %v", missing)
	})

	t.Run("no items blocks completion", func(t *testing.T) {
		c, _ := reviewComplete()
		ok, missing := workflow.CanComplete(c, nil, model.StageTechnicalReview, testNow)
		require.False(t, ok)
		assert.Contains(t, missing, "at least one item required")
	})

	t.Run("missing costs are reported individually", func(t *testing.T) {
		c, items := reviewComplete()
		c.MaintenanceCostCents = nil
		c.LaborCostCents = nil
		ok, missing := workflow.CanComplete(c, items, model.StageTechnicalReview, testNow)
		require.False(t, ok)
		assert.Contains(t, missing, "maintenance_cost")
		assert.Contains(t, missing, "labor_cost")
		assert.NotContains(t, missing, "parts_cost")
	})

	t.Run("zero cost is a recorded value", func(t *testing.T) {
		c, items := reviewComplete()
		c.PartsCostCents = ptrI64(0)
		ok, _ := workflow.CanComplete(c, items, model.StageTechnicalReview, testNow)
		assert.True(t, ok)
	})

	t.Run("future production period is rejected", func(t *testing.T) {
		c, items := reviewComplete()
		items[0].ProductionPeriod = "2025-07" // one month after testNow
		ok, missing := workflow.CanComplete(c, items, model.StageTechnicalReview, testNow)
		require.False(t, ok)
		assert.Contains(t, missing, "items[0].production_period")
	})

	t.Run("current month production period is accepted", func(t *testing.T) {
		c, items := reviewComplete()
		items[0].ProductionPeriod = "2025-06"
		ok, _ := workflow.CanComplete(c, items, model.StageTechnicalReview, testNow)
		assert.True(t, ok)
	})

	t.Run("unchecked physical checks are named per item", func(t *testing.T) {
		c, items := reviewComplete()
		second := reviewedItem()
		second.CableChecked = false
		second.Packaged = false
		items = append(items, second)
		ok, missing := workflow.CanComplete(c, items, model.StageTechnicalReview, testNow)
		require.False(t, ok)
		assert.Contains(t, missing, "items[1].cable_checked")
		assert.Contains(t, missing, "items[1].packaged")
		assert.NotContains(t, missing, "items[0].cable_checked")
	})

	t.Run("blank performed service blocks", func(t *testing.T) {
		c, items := reviewComplete()
		c.PerformedService = "   "
		ok, missing := workflow.CanComplete(c, items, model.StageTechnicalReview, testNow)
		require.False(t, ok)
		assert.Contains(t, missing, "performed_service")
	})
}

func TestGatePaymentCollection(t *testing.T) {
	cases := []struct {
		name   string
		status model.PaymentStatus
		ok     bool
	}{
		{"paid passes", model.PaymentPaid, true},
		{"waived passes", model.PaymentWaived, true},
		{"unpaid blocks", model.PaymentUnpaid, false},
		{"unset blocks", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &model.Case{WorkflowStatus: model.StagePaymentCollection, PaymentStatus: tc.status}
			ok, _ := workflow.CanComplete(c, nil, model.StagePaymentCollection, testNow)
			assert.Equal(t, tc.ok, ok)
		})
	}

	t.Run("unpaid carries an explanatory message", func(t *testing.T) {
		c := &model.Case{PaymentStatus: model.PaymentUnpaid}
		_, missing := workflow.CanComplete(c, nil, model.StagePaymentCollection, testNow)
		assert.Equal(t, []string{"payment_status: unpaid blocks completion"}, missing)
	})
}

func TestGateShipping(t *testing.T) {
	t.Run("complete shipping data passes", func(t *testing.T) {
		c := &model.Case{
			ShippingInfo:   "DHL Express, insured",
			TrackingNumber: "JD014600003828",
			ShippingDate:   ptrTime(testNow),
		}
		ok, _ := workflow.CanComplete(c, nil, model.StageShipping, testNow)
		assert.True(t, ok)
	})

	t.Run("blank fields are reported", func(t *testing.T) {
		c := &model.Case{ShippingInfo: " "}
		ok, missing := workflow.CanComplete(c, nil, model.StageShipping, testNow)
		require.False(t, ok)
		assert.ElementsMatch(t, []string{"shipping_info", "tracking_number", "shipping_date"}, missing)
	})
}

func TestGateCompletedStage(t *testing.T) {
	ok, missing := workflow.CanComplete(&model.Case{}, nil, model.StageCompleted, testNow)
	assert.False(t, ok)
	assert.NotEmpty(t, missing)
}
