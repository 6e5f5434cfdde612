package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/repository"
	"github.com/centa/return-tracker/internal/workflow"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWriteWorkflowError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"denied is 403", workflow.ErrDenied, http.StatusForbidden},
		{"not found is 404", workflow.ErrNotFound, http.StatusNotFound},
		{"state conflict is 409", workflow.ErrStateConflict, http.StatusConflict},
		{"gate failure is 422", &workflow.ValidationError{Stage: "SHIPPING", Missing: []string{"tracking_number"}}, http.StatusUnprocessableEntity},
		{"anything else is 500", assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			require.NoError(t, writeWorkflowError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestWriteWorkflowErrorGateBody(t *testing.T) {
	c, rec := newTestContext(t)
	err := &workflow.ValidationError{Stage: "TECHNICAL_REVIEW", Missing: []string{"performed_service", "items[0].packaged"}}
	require.NoError(t, writeWorkflowError(c, err))

	var body struct {
		Stage   string   `json:"stage"`
		Missing []string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TECHNICAL_REVIEW", body.Stage)
	assert.Equal(t, []string{"performed_service", "items[0].packaged"}, body.Missing)
}

func TestNewCaseView(t *testing.T) {
	arrival := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	parts, maint, labor := int64(1000), int64(500), int64(250)
	cs := &model.Case{
		ID:                   42,
		WorkflowStatus:       model.StagePaymentCollection,
		CustomerID:           7,
		ArrivalDate:          &arrival,
		ReceiptMethod:        model.ReceiptShipped,
		PartsCostCents:       &parts,
		MaintenanceCostCents: &maint,
		LaborCostCents:       &labor,
		PaymentStatus:        model.PaymentUnpaid,
	}
	v := newCaseView(cs, []model.Item{{ID: 1, ProductModelID: 3, Quantity: 2, WarrantyStatus: model.WarrantyIn}})

	assert.Equal(t, "PAYMENT_COLLECTION", v.WorkflowStatus)
	assert.Equal(t, model.StageLabels[model.StagePaymentCollection], v.StageLabel)
	require.NotNil(t, v.ArrivalDate)
	assert.Equal(t, "2025-03-04", *v.ArrivalDate)
	require.NotNil(t, v.TotalCostCents)
	assert.Equal(t, int64(1750), *v.TotalCostCents)
	require.NotNil(t, v.PaymentStatus)
	assert.Equal(t, "UNPAID", *v.PaymentStatus)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "IN_WARRANTY", v.Items[0].WarrantyStatus)
}

func TestNewCaseViewEmptyCase(t *testing.T) {
	v := newCaseView(&model.Case{ID: 1, WorkflowStatus: model.StageDelivered}, nil)
	assert.Nil(t, v.ArrivalDate)
	assert.Nil(t, v.ReceiptMethod)
	assert.Nil(t, v.TotalCostCents)
	assert.Nil(t, v.PaymentStatus)
	assert.NotNil(t, v.Items, "items serializes as [] not null")
}

func TestIntakeReqToPatch(t *testing.T) {
	bad := "2025-13-40"
	_, msg := intakeReq{ArrivalDate: &bad}.toPatch()
	assert.NotEmpty(t, msg)

	method := "shipped"
	_, msg = intakeReq{ReceiptMethod: &method}.toPatch()
	assert.Empty(t, msg, "receipt method is upcased before parsing")

	unknown := "CARRIER_PIGEON"
	_, msg = intakeReq{ReceiptMethod: &unknown}.toPatch()
	assert.NotEmpty(t, msg)
}

func TestPageCount(t *testing.T) {
	cases := []struct {
		name  string
		total int
		size  int
		want  int
	}{
		{"exact multiple", 100, 20, 5},
		{"one row spills onto a new page", 101, 20, 6},
		{"partial single page", 7, 20, 1},
		{"no rows, no pages", 0, 20, 0},
		{"degenerate page size", 50, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pageCount(tc.total, tc.size))
		})
	}
}

// captureRecorder collects audit entries and can be told to fail.
type captureRecorder struct {
	entries []repository.ActionLog
	fail    bool
}

func (r *captureRecorder) Record(_ context.Context, e repository.ActionLog) error {
	if r.fail {
		return assert.AnError
	}
	r.entries = append(r.entries, e)
	return nil
}

func TestRecordAction(t *testing.T) {
	id := uint64(42)

	t.Run("records the caller and target", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set("email", "tech@centa.example")
		rec := &captureRecorder{}
		recordAction(c, rec, model.ActionStageCompleted, &id, "TECHNICAL_REVIEW")
		require.Len(t, rec.entries, 1)
		e := rec.entries[0]
		assert.Equal(t, "tech@centa.example", e.UserEmail)
		assert.Equal(t, model.ActionStageCompleted, e.Action)
		require.NotNil(t, e.CaseID)
		assert.Equal(t, id, *e.CaseID)
		assert.Equal(t, "TECHNICAL_REVIEW", e.Detail)
	})

	t.Run("no email claim, no entry", func(t *testing.T) {
		c, _ := newTestContext(t)
		rec := &captureRecorder{}
		recordAction(c, rec, model.ActionCaseCreated, &id, "")
		assert.Empty(t, rec.entries)
	})

	t.Run("recorder failure is swallowed", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set("email", "tech@centa.example")
		assert.NotPanics(t, func() {
			recordAction(c, &captureRecorder{fail: true}, model.ActionCaseCreated, &id, "")
		})
	})

	t.Run("nil recorder is a no-op", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set("email", "tech@centa.example")
		assert.NotPanics(t, func() {
			recordAction(c, nil, model.ActionCaseCreated, nil, "")
		})
	})
}
