package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centa/return-tracker/internal/model"
)

func TestStageOrdering(t *testing.T) {
	stages := model.Stages()
	require.Equal(t, []model.Stage{
		model.StageDelivered,
		model.StageTechnicalReview,
		model.StagePaymentCollection,
		model.StageShipping,
		model.StageCompleted,
	}, stages)

	// Next walks the chain forward and stops at the terminal stage.
	for i := 0; i < len(stages)-1; i++ {
		next, ok := stages[i].Next()
		require.True(t, ok)
		assert.Equal(t, stages[i+1], next)
	}
	_, ok := model.StageCompleted.Next()
	assert.False(t, ok)
	assert.True(t, model.StageCompleted.Terminal())
	assert.False(t, model.StageShipping.Terminal())
}

func TestStageAfter(t *testing.T) {
	assert.True(t, model.StageShipping.After(model.StageDelivered))
	assert.False(t, model.StageDelivered.After(model.StageDelivered))
	assert.False(t, model.StageDelivered.After(model.StageShipping))
	assert.False(t, model.Stage("BOGUS").After(model.StageDelivered))
}

func TestParseStage(t *testing.T) {
	st, ok := model.ParseStage("PAYMENT_COLLECTION")
	require.True(t, ok)
	assert.Equal(t, model.StagePaymentCollection, st)

	// Lowercase and labels are not canonical keys.
	_, ok = model.ParseStage("payment_collection")
	assert.False(t, ok)
	_, ok = model.ParseStage("Payment Collection")
	assert.False(t, ok)
	_, ok = model.ParseStage("")
	assert.False(t, ok)
}

func TestParsePermissionRoundTrip(t *testing.T) {
	for _, p := range model.Permissions() {
		got, ok := model.ParsePermission(string(p))
		require.True(t, ok, "permission %s should parse", p)
		assert.Equal(t, p, got)
	}
	_, ok := model.ParsePermission("CASE_FLY")
	assert.False(t, ok)
}

func TestEveryStageHasCompletionPermission(t *testing.T) {
	for _, s := range model.Stages() {
		_, ok := model.CompletePermission(s)
		assert.True(t, ok, "stage %s", s)
	}
	// Only the four non-terminal stages are editable.
	_, ok := model.EditPermission(model.StageCompleted)
	assert.False(t, ok)
}

func TestTotalCost(t *testing.T) {
	c := &model.Case{}
	_, ok := c.TotalCostCents()
	assert.False(t, ok)

	one, two, three := int64(100), int64(250), int64(0)
	c.PartsCostCents = &one
	c.MaintenanceCostCents = &two
	_, ok = c.TotalCostCents()
	assert.False(t, ok, "total needs all three components")

	c.LaborCostCents = &three
	total, ok := c.TotalCostCents()
	require.True(t, ok)
	assert.Equal(t, int64(350), total)
}
