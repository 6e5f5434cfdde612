package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centa/return-tracker/internal/middleware"
	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/repository"
	"github.com/centa/return-tracker/internal/workflow"
)

// dbTimeout bounds every handler-initiated database call.
const dbTimeout = 5 * time.Second

// dateLayout is the wire format for calendar dates (arrival, shipping).
const dateLayout = "2006-01-02"

// getUserID extracts the user_id claim from echo.Context and converts it to
// uint64.  JWT numeric claims arrive as float64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// ActionRecorder appends entries to the audit trail.  *repository.LogRepo
// satisfies it.
type ActionRecorder interface {
	Record(ctx context.Context, entry repository.ActionLog) error
}

// recordAction writes an audit entry on behalf of the authenticated caller.
// Audit writes are best effort: a failure is logged and never fails the
// request that triggered it.
func recordAction(c echo.Context, rec ActionRecorder, action model.Action, caseID *uint64, detail string) {
	if rec == nil {
		return
	}
	email, ok := middleware.CallerEmail(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	err := rec.Record(ctx, repository.ActionLog{
		UserEmail: email,
		CaseID:    caseID,
		Action:    action,
		Detail:    detail,
	})
	if err != nil {
		c.Logger().Warnf("audit entry %s failed: %v", action, err)
	}
}

// pageCount converts a total row count into the number of pages at the
// given page size, rounding up. Zero rows means zero pages.
func pageCount(total, size int) int {
	if size < 1 {
		return 0
	}
	return (total + size - 1) / size
}

// writeWorkflowError maps the workflow error taxonomy onto HTTP responses.
// Denials are a bare 403 so the client never learns which permission was
// missing; gate failures carry the full list of missing fields so the form
// can highlight them.
func writeWorkflowError(c echo.Context, err error) error {
	var ve *workflow.ValidationError
	switch {
	case errors.Is(err, workflow.ErrDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, workflow.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "case not found"})
	case errors.Is(err, workflow.ErrStateConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "case is not in the required stage"})
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":   "stage requirements not met",
			"stage":   ve.Stage,
			"missing": ve.Missing,
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// ----- case serialization -----

type itemView struct {
	ID               uint64 `json:"id"`
	ProductModelID   uint64 `json:"product_model_id"`
	Quantity         uint32 `json:"quantity"`
	ProductionPeriod string `json:"production_period"`
	WarrantyStatus   string `json:"warranty_status"`
	FaultSource      string `json:"fault_source"`
	Resolution       string `json:"resolution"`
	HasControlUnit   bool   `json:"has_control_unit"`
	CableChecked     bool   `json:"cable_checked"`
	ProfileChecked   bool   `json:"profile_checked"`
	Packaged         bool   `json:"packaged"`
}

type caseView struct {
	ID             uint64 `json:"id"`
	WorkflowStatus string `json:"workflow_status"`
	StageLabel     string `json:"stage_label"`

	CustomerID    uint64  `json:"customer_id,omitempty"`
	ArrivalDate   *string `json:"arrival_date"`
	ReceiptMethod *string `json:"receipt_method"`
	Notes         string  `json:"notes,omitempty"`

	Items                []itemView `json:"items"`
	PartsCostCents       *int64     `json:"parts_cost_cents"`
	MaintenanceCostCents *int64     `json:"maintenance_cost_cents"`
	LaborCostCents       *int64     `json:"labor_cost_cents"`
	TotalCostCents       *int64     `json:"total_cost_cents"`
	PerformedService     string     `json:"performed_service,omitempty"`

	PaymentStatus *string `json:"payment_status"`

	ShippingInfo   string  `json:"shipping_info,omitempty"`
	TrackingNumber string  `json:"tracking_number,omitempty"`
	ShippingDate   *string `json:"shipping_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCaseView(cs *model.Case, items []model.Item) caseView {
	v := caseView{
		ID:                   cs.ID,
		WorkflowStatus:       string(cs.WorkflowStatus),
		StageLabel:           model.StageLabels[cs.WorkflowStatus],
		CustomerID:           cs.CustomerID,
		Notes:                cs.Notes,
		Items:                make([]itemView, 0, len(items)),
		PartsCostCents:       cs.PartsCostCents,
		MaintenanceCostCents: cs.MaintenanceCostCents,
		LaborCostCents:       cs.LaborCostCents,
		PerformedService:     cs.PerformedService,
		ShippingInfo:         cs.ShippingInfo,
		TrackingNumber:       cs.TrackingNumber,
		CreatedAt:            cs.CreatedAt,
		UpdatedAt:            cs.UpdatedAt,
	}
	if cs.ArrivalDate != nil {
		s := cs.ArrivalDate.Format(dateLayout)
		v.ArrivalDate = &s
	}
	if cs.ReceiptMethod != "" {
		s := string(cs.ReceiptMethod)
		v.ReceiptMethod = &s
	}
	if total, ok := cs.TotalCostCents(); ok {
		v.TotalCostCents = &total
	}
	if cs.PaymentStatus != "" {
		s := string(cs.PaymentStatus)
		v.PaymentStatus = &s
	}
	if cs.ShippingDate != nil {
		s := cs.ShippingDate.Format(dateLayout)
		v.ShippingDate = &s
	}
	for _, it := range items {
		v.Items = append(v.Items, itemView{
			ID:               it.ID,
			ProductModelID:   it.ProductModelID,
			Quantity:         it.Quantity,
			ProductionPeriod: it.ProductionPeriod,
			WarrantyStatus:   string(it.WarrantyStatus),
			FaultSource:      string(it.FaultSource),
			Resolution:       string(it.Resolution),
			HasControlUnit:   it.HasControlUnit,
			CableChecked:     it.CableChecked,
			ProfileChecked:   it.ProfileChecked,
			Packaged:         it.Packaged,
		})
	}
	return v
}
