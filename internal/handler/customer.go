package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/repository"
)

// CustomerHandler serves the customer catalog.  Plain CRUD; route-level
// permission middleware decides who may call what.
type CustomerHandler struct {
	Customers *repository.CustomerRepo
	Audit     ActionRecorder
}

func NewCustomerHandler(r *repository.CustomerRepo, audit ActionRecorder) *CustomerHandler {
	if r == nil {
		panic("nil repository passed to NewCustomerHandler")
	}
	return &CustomerHandler{Customers: r, Audit: audit}
}

type customerReq struct {
	Name           string `json:"name"`
	Representative string `json:"representative"`
	ContactInfo    string `json:"contact_info"`
	Address        string `json:"address"`
}

type customerView struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	Representative string `json:"representative"`
	ContactInfo    string `json:"contact_info"`
	Address        string `json:"address"`
}

func newCustomerView(c *model.Customer) customerView {
	return customerView{
		ID:             c.ID,
		Name:           c.Name,
		Representative: c.Representative,
		ContactInfo:    c.ContactInfo,
		Address:        c.Address,
	}
}

// Create adds a customer.
// POST /v1/customers
func (h *CustomerHandler) Create(c echo.Context) error {
	var req customerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cust := &model.Customer{
		Name:           req.Name,
		Representative: strings.TrimSpace(req.Representative),
		ContactInfo:    strings.TrimSpace(req.ContactInfo),
		Address:        strings.TrimSpace(req.Address),
	}
	if err := h.Customers.Create(ctx, cust); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create customer failed"})
	}
	recordAction(c, h.Audit, model.ActionCustomerCreated, nil, cust.Name)
	return c.JSON(http.StatusCreated, newCustomerView(cust))
}

// Get returns one customer.
// GET /v1/customers/:id
func (h *CustomerHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cust, err := h.Customers.Get(ctx, id)
	if err == repository.ErrCustomerNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, newCustomerView(cust))
}

// Update replaces the customer's editable fields.
// PUT /v1/customers/:id
func (h *CustomerHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	var req customerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cust := &model.Customer{
		ID:             id,
		Name:           req.Name,
		Representative: strings.TrimSpace(req.Representative),
		ContactInfo:    strings.TrimSpace(req.ContactInfo),
		Address:        strings.TrimSpace(req.Address),
	}
	if err := h.Customers.Update(ctx, cust); err != nil {
		if err == repository.ErrCustomerNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update customer failed"})
	}
	return c.JSON(http.StatusOK, newCustomerView(cust))
}

// Delete removes a customer unless cases still reference it.
// DELETE /v1/customers/:id
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	// Fetch before deleting so the audit entry can carry the name.
	cust, err := h.Customers.Get(ctx, id)
	if err == repository.ErrCustomerNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	if err := h.Customers.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrCustomerNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "customer is referenced by cases"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete customer failed"})
		}
	}
	recordAction(c, h.Audit, model.ActionCustomerDeleted, nil, cust.Name)
	return c.JSON(http.StatusOK, echo.Map{"deleted": id})
}

// List returns the customer catalog, optionally filtered by a substring
// match on the name.
// GET /v1/customers?search=&page=&page_size=
func (h *CustomerHandler) List(c echo.Context) error {
	search := strings.TrimSpace(c.QueryParam("search"))
	page, size := 1, 20
	if s := c.QueryParam("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			page = n
		}
	}
	if s := c.QueryParam("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			size = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	customers, total, err := h.Customers.List(ctx, search, page, size)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list customers failed"})
	}
	views := make([]customerView, 0, len(customers))
	for i := range customers {
		views = append(views, newCustomerView(&customers[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"customers": views,
		"page":      page,
		"page_size": size,
		"total":     total,
	})
}
