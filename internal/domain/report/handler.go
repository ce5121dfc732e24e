package report

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qme/qme/internal/domain/classification"
	"github.com/qme/qme/internal/platform/auth"
	"github.com/qme/qme/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "analyst"))
	read.GET("/measures/:measureID/report", h.EvaluateReport)
	read.GET("/measures/:measureID/reports", h.ListResults)
}

func csvParam(c echo.Context, name string) []string {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EvaluateReport aggregates the cached classifications for the requested key
// and filters, persisting the result before returning it.
func (h *Handler) EvaluateReport(c echo.Context) error {
	req := Request{
		Key: classification.Key{
			MeasureID: c.Param("measureID"),
			TestBatch: c.QueryParam("test_batch"),
		},
		Filters: FilterSpec{
			Providers:   csvParam(c, "providers"),
			Races:       csvParam(c, "races"),
			Ethnicities: csvParam(c, "ethnicities"),
			Genders:     csvParam(c, "genders"),
			Languages:   csvParam(c, "languages"),
		},
	}

	if req.Key.TestBatch == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "test_batch is required")
	}
	ed, err := strconv.ParseInt(c.QueryParam("effective_date"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "effective_date must be a unix timestamp")
	}
	req.Key.EffectiveDate = ed
	if sub := c.QueryParam("sub_id"); sub != "" {
		req.Key.SubID = &sub
	}
	if raw := c.QueryParam("start_time"); raw != "" {
		st, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start_time must be a unix timestamp")
		}
		req.StartTime = &st
	}

	res, err := h.svc.Aggregate(c.Request().Context(), req)
	if err != nil {
		var aerr *AggregationError
		if errors.As(err, &aerr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, aerr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListResults(c echo.Context) error {
	pg := pagination.FromContext(c)
	var subID *string
	if sub := c.QueryParam("sub_id"); sub != "" {
		subID = &sub
	}
	items, total, err := h.svc.ListResults(c.Request().Context(), c.Param("measureID"), subID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
