package exclusion

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/qme/qme/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "analyst"))
	read.GET("/measures/:measureID/exclusions", h.ListExclusions)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/measures/:measureID/exclusions", h.CreateExclusion)
	write.DELETE("/measures/:measureID/exclusions/:id", h.DeleteExclusion)
	write.POST("/measures/:measureID/exclusions/apply", h.ApplyOverlay)
}

func subIDParam(c echo.Context) *string {
	if sub := c.QueryParam("sub_id"); sub != "" {
		return &sub
	}
	return nil
}

func (h *Handler) CreateExclusion(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.MeasureID = c.Param("measureID")
	if err := h.svc.AddExclusion(c.Request().Context(), &rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) DeleteExclusion(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RemoveExclusion(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListExclusions(c echo.Context) error {
	items, err := h.svc.ListExclusions(c.Request().Context(), c.Param("measureID"), subIDParam(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ApplyOverlay(c echo.Context) error {
	n, err := h.svc.Apply(c.Request().Context(), c.Param("measureID"), subIDParam(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int64{"flagged": n})
}
