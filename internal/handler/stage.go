package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centa/return-tracker/internal/middleware"
	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/workflow"
)

// ----- stage edit DTOs -----

type itemReq struct {
	ProductModelID   uint64 `json:"product_model_id"`
	Quantity         uint32 `json:"quantity"`
	ProductionPeriod string `json:"production_period"` // YYYY-MM
	WarrantyStatus   string `json:"warranty_status"`
	FaultSource      string `json:"fault_source"`
	Resolution       string `json:"resolution"`
	HasControlUnit   bool   `json:"has_control_unit"`
	CableChecked     bool   `json:"cable_checked"`
	ProfileChecked   bool   `json:"profile_checked"`
	Packaged         bool   `json:"packaged"`
}

func (r itemReq) toItem() (model.Item, string) {
	it := model.Item{
		ProductModelID:   r.ProductModelID,
		Quantity:         r.Quantity,
		ProductionPeriod: strings.TrimSpace(r.ProductionPeriod),
		HasControlUnit:   r.HasControlUnit,
		CableChecked:     r.CableChecked,
		ProfileChecked:   r.ProfileChecked,
		Packaged:         r.Packaged,
	}
	if r.WarrantyStatus != "" {
		w, ok := model.ParseWarrantyStatus(strings.ToUpper(r.WarrantyStatus))
		if !ok {
			return it, "invalid warranty_status"
		}
		it.WarrantyStatus = w
	}
	if r.FaultSource != "" {
		f, ok := model.ParseFaultSource(strings.ToUpper(r.FaultSource))
		if !ok {
			return it, "invalid fault_source"
		}
		it.FaultSource = f
	}
	if r.Resolution != "" {
		m, ok := model.ParseResolutionMethod(strings.ToUpper(r.Resolution))
		if !ok {
			return it, "invalid resolution"
		}
		it.Resolution = m
	}
	return it, ""
}

// reviewReq carries the technical review fields.  A non-nil items array
// replaces the case's whole item list, matching the replace-not-patch
// semantics of the engine.
type reviewReq struct {
	Items                *[]itemReq `json:"items"`
	PartsCostCents       *int64     `json:"parts_cost_cents"`
	MaintenanceCostCents *int64     `json:"maintenance_cost_cents"`
	LaborCostCents       *int64     `json:"labor_cost_cents"`
	PerformedService     *string    `json:"performed_service"`
}

type collectionReq struct {
	PaymentStatus *string `json:"payment_status"`
}

type shippingReq struct {
	ShippingInfo   *string `json:"shipping_info"`
	TrackingNumber *string `json:"tracking_number"`
	ShippingDate   *string `json:"shipping_date"` // YYYY-MM-DD
}

// EditStage dispatches a stage-scoped edit to the engine.  The stage in the
// path selects which request shape is accepted; the engine rejects the edit
// when the case is not currently in that stage.
// PUT /v1/cases/:id/stages/:stage
func (h *CaseHandler) EditStage(c echo.Context) error {
	role, ok := middleware.CallerRole(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid case id"})
	}
	stage, ok := model.ParseStage(strings.ToUpper(c.Param("stage")))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown stage"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	var (
		cs  *model.Case
		err error
	)
	switch stage {
	case model.StageDelivered:
		var req intakeReq
		if bindErr := c.Bind(&req); bindErr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		patch, msg := req.toPatch()
		if msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
		cs, err = h.Engine.EditDelivered(ctx, role, id, patch)

	case model.StageTechnicalReview:
		var req reviewReq
		if bindErr := c.Bind(&req); bindErr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		patch := workflow.ReviewPatch{
			PartsCostCents:       req.PartsCostCents,
			MaintenanceCostCents: req.MaintenanceCostCents,
			LaborCostCents:       req.LaborCostCents,
			PerformedService:     req.PerformedService,
		}
		if req.Items != nil {
			items := make([]model.Item, 0, len(*req.Items))
			for _, ir := range *req.Items {
				it, msg := ir.toItem()
				if msg != "" {
					return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
				}
				items = append(items, it)
			}
			patch.Items = items
		}
		cs, err = h.Engine.EditTechnicalReview(ctx, role, id, patch)

	case model.StagePaymentCollection:
		var req collectionReq
		if bindErr := c.Bind(&req); bindErr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		var patch workflow.CollectionPatch
		if req.PaymentStatus != nil {
			ps, ok := model.ParsePaymentStatus(strings.ToUpper(strings.TrimSpace(*req.PaymentStatus)))
			if !ok {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment_status"})
			}
			patch.PaymentStatus = &ps
		}
		cs, err = h.Engine.EditPaymentCollection(ctx, role, id, patch)

	case model.StageShipping:
		var req shippingReq
		if bindErr := c.Bind(&req); bindErr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		patch := workflow.ShippingPatch{
			ShippingInfo:   req.ShippingInfo,
			TrackingNumber: req.TrackingNumber,
		}
		if req.ShippingDate != nil {
			t, parseErr := time.Parse(dateLayout, *req.ShippingDate)
			if parseErr != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "shipping_date must be YYYY-MM-DD"})
			}
			patch.ShippingDate = &t
		}
		cs, err = h.Engine.EditShipping(ctx, role, id, patch)

	default:
		// COMPLETED owns no editable fields.
		return c.JSON(http.StatusConflict, echo.Map{"error": "stage has no editable fields"})
	}

	if err != nil {
		return writeWorkflowError(c, err)
	}
	full, items, err := h.Engine.Get(ctx, role, cs.ID)
	if err != nil {
		return writeWorkflowError(c, err)
	}
	return c.JSON(http.StatusOK, newCaseView(full, items))
}

// CompleteStage closes the named stage and advances the case.
// POST /v1/cases/:id/stages/:stage/complete
func (h *CaseHandler) CompleteStage(c echo.Context) error {
	role, ok := middleware.CallerRole(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid case id"})
	}
	stage, ok := model.ParseStage(strings.ToUpper(c.Param("stage")))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown stage"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	next, err := h.Engine.CompleteStage(ctx, role, id, stage)
	if err != nil {
		return writeWorkflowError(c, err)
	}
	recordAction(c, h.Audit, model.ActionStageCompleted, &id, string(stage))
	return c.JSON(http.StatusOK, echo.Map{
		"id":              id,
		"completed":       string(stage),
		"workflow_status": string(next),
		"stage_label":     model.StageLabels[next],
	})
}
