package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/centa/return-tracker/internal/repository"
)

// LogHandler serves the audit trail read side.
type LogHandler struct {
	Logs *repository.LogRepo
}

func NewLogHandler(r *repository.LogRepo) *LogHandler {
	if r == nil {
		panic("nil repository passed to NewLogHandler")
	}
	return &LogHandler{Logs: r}
}

// List returns a page of audit entries, newest first.  Search matches the
// actor's email and name plus the detail text.
// GET /v1/action-logs?search=&page=&page_size=
func (h *LogHandler) List(c echo.Context) error {
	q := repository.LogQuery{
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Page:     1,
		PageSize: 20,
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

	entries, total, err := h.Logs.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list action logs failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"logs":        entries,
		"page":        q.Page,
		"page_size":   q.PageSize,
		"total":       total,
		"total_pages": pageCount(total, q.PageSize),
	})
}
