package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centa/return-tracker/internal/middleware"
	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/repository"
	"github.com/centa/return-tracker/internal/workflow"
)

// CaseHandler serves the case lifecycle endpoints.  All mutations run
// through the workflow engine; only the list view talks to the repository
// directly because listing has no stage semantics.
type CaseHandler struct {
	Engine *workflow.Engine
	Cases  *repository.CaseRepo
	Audit  ActionRecorder
}

// NewCaseHandler constructs a CaseHandler and panics if a dependency is nil.
func NewCaseHandler(engine *workflow.Engine, cases *repository.CaseRepo, audit ActionRecorder) *CaseHandler {
	if engine == nil || cases == nil {
		panic("nil dependency passed to NewCaseHandler")
	}
	return &CaseHandler{Engine: engine, Cases: cases, Audit: audit}
}

// ----- DTOs -----

// intakeReq carries the intake fields.  Pointer fields distinguish "not
// sent" from zero values so partial saves work.
type intakeReq struct {
	CustomerID    *uint64 `json:"customer_id"`
	ArrivalDate   *string `json:"arrival_date"` // YYYY-MM-DD
	ReceiptMethod *string `json:"receipt_method"`
	Notes         *string `json:"notes"`
}

func (r intakeReq) toPatch() (workflow.IntakePatch, string) {
	var p workflow.IntakePatch
	p.CustomerID = r.CustomerID
	if r.ArrivalDate != nil {
		t, err := time.Parse(dateLayout, *r.ArrivalDate)
		if err != nil {
			return p, "arrival_date must be YYYY-MM-DD"
		}
		p.ArrivalDate = &t
	}
	if r.ReceiptMethod != nil {
		m, ok := model.ParseReceiptMethod(strings.ToUpper(strings.TrimSpace(*r.ReceiptMethod)))
		if !ok {
			return p, "invalid receipt_method"
		}
		p.ReceiptMethod = &m
	}
	p.Notes = r.Notes
	return p, ""
}

// Create opens a new case in the intake stage.
// POST /v1/cases
func (h *CaseHandler) Create(c echo.Context) error {
	role, ok := middleware.CallerRole(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req intakeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	patch, msg := req.toPatch()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cs, err := h.Engine.Create(ctx, role, patch)
	if err != nil {
		return writeWorkflowError(c, err)
	}
	recordAction(c, h.Audit, model.ActionCaseCreated, &cs.ID, "")
	return c.JSON(http.StatusCreated, newCaseView(cs, nil))
}

// Get returns one case with its items.
// GET /v1/cases/:id
func (h *CaseHandler) Get(c echo.Context) error {
	role, ok := middleware.CallerRole(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid case id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cs, items, err := h.Engine.Get(ctx, role, id)
	if err != nil {
		return writeWorkflowError(c, err)
	}
	return c.JSON(http.StatusOK, newCaseView(cs, items))
}

// List returns a filtered, paginated case overview.
// GET /v1/cases?customer=&status=&arrival_from=&arrival_to=&receipt_method=&product_model=&product_type=&page=&page_size=
func (h *CaseHandler) List(c echo.Context) error {
	q := repository.CaseQuery{
		Customer: strings.TrimSpace(c.QueryParam("customer")),
		Page:     1,
		PageSize: 20,
	}
	if s := c.QueryParam("status"); s != "" {
		st, ok := model.ParseStage(strings.ToUpper(s))
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		q.Status = st
	}
	if s := c.QueryParam("receipt_method"); s != "" {
		m, ok := model.ParseReceiptMethod(strings.ToUpper(s))
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid receipt_method"})
		}
		q.ReceiptMethod = m
	}
	if s := c.QueryParam("arrival_from"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_from must be YYYY-MM-DD"})
		}
		q.ArrivalFrom = &t
	}
	if s := c.QueryParam("arrival_to"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_to must be YYYY-MM-DD"})
		}
		q.ArrivalTo = &t
	}
	if s := c.QueryParam("product_model"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_model"})
		}
		q.ProductModel = id
	}
	if s := c.QueryParam("product_type"); s != "" {
		pt, ok := model.ParseProductType(strings.ToUpper(s))
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_type"})
		}
		q.ProductType = pt
	}
	if s := c.QueryParam("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			q.Page = n
		}
	}
	if s := c.QueryParam("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			q.PageSize = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, total, err := h.Cases.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list cases failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cases":       rows,
		"page":        q.Page,
		"page_size":   q.PageSize,
		"total":       total,
		"total_pages": pageCount(total, q.PageSize),
	})
}

// Delete removes a case that is still in intake.
// DELETE /v1/cases/:id
func (h *CaseHandler) Delete(c echo.Context) error {
	role, ok := middleware.CallerRole(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid case id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Engine.Delete(ctx, role, id); err != nil {
		return writeWorkflowError(c, err)
	}
	// The case row is gone, so the entry names it in the detail text.
	recordAction(c, h.Audit, model.ActionCaseDeleted, nil, fmt.Sprintf("case #%d", id))
	return c.JSON(http.StatusOK, echo.Map{"deleted": id})
}
