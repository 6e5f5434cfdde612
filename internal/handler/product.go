package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/centa/return-tracker/internal/model"
	"github.com/centa/return-tracker/internal/repository"
)

// ProductHandler serves the product model catalog.
type ProductHandler struct {
	Products *repository.ProductRepo
	Audit    ActionRecorder
}

func NewProductHandler(r *repository.ProductRepo, audit ActionRecorder) *ProductHandler {
	if r == nil {
		panic("nil repository passed to NewProductHandler")
	}
	return &ProductHandler{Products: r, Audit: audit}
}

type productReq struct {
	Name        string `json:"name"`
	ProductType string `json:"product_type"`
}

type productView struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	ProductType string `json:"product_type"`
	TypeLabel   string `json:"type_label"`
}

func newProductView(p *model.ProductModel) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		ProductType: string(p.ProductType),
		TypeLabel:   model.ProductTypeLabels[p.ProductType],
	}
}

// Create adds a product model to the catalog.
// POST /v1/products
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	ptype, ok := model.ParseProductType(strings.ToUpper(strings.TrimSpace(req.ProductType)))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p := &model.ProductModel{Name: req.Name, ProductType: ptype}
	if err := h.Products.Create(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	recordAction(c, h.Audit, model.ActionProductCreated, nil, p.Name)
	return c.JSON(http.StatusCreated, newProductView(p))
}

// Get returns one product model.
// GET /v1/products/:id
func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Products.Get(ctx, id)
	if err == repository.ErrProductNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, newProductView(p))
}

// Update replaces the product model's fields.
// PUT /v1/products/:id
func (h *ProductHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	ptype, ok := model.ParseProductType(strings.ToUpper(strings.TrimSpace(req.ProductType)))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p := &model.ProductModel{ID: id, Name: req.Name, ProductType: ptype}
	if err := h.Products.Update(ctx, p); err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
	}
	return c.JSON(http.StatusOK, newProductView(p))
}

// Delete removes a product model unless case items still reference it.
// DELETE /v1/products/:id
func (h *ProductHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	// Fetch before deleting so the audit entry can carry the name.
	p, err := h.Products.Get(ctx, id)
	if err == repository.ErrProductNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	if err := h.Products.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrProductNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "product is referenced by case items"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete product failed"})
		}
	}
	recordAction(c, h.Audit, model.ActionProductDeleted, nil, p.Name)
	return c.JSON(http.StatusOK, echo.Map{"deleted": id})
}

// List returns the catalog, optionally filtered by name substring and type.
// GET /v1/products?search=&type=
func (h *ProductHandler) List(c echo.Context) error {
	search := strings.TrimSpace(c.QueryParam("search"))
	var ptype model.ProductType
	if s := c.QueryParam("type"); s != "" {
		pt, ok := model.ParseProductType(strings.ToUpper(s))
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
		}
		ptype = pt
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	products, err := h.Products.List(ctx, search, ptype)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list products failed"})
	}
	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, newProductView(&products[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"products": views})
}
