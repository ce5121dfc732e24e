package classification

import (
	"errors"
	"net/http"
	"strconv"

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
	run := api.Group("", auth.RequireRole("admin", "analyst"))
	run.POST("/measures/:measureID/classify", h.ClassifyBatch)
	run.POST("/measures/:measureID/patients/:patientID/classify", h.ClassifyPatient)
	run.GET("/measures/:measureID/patients/:patientID/evaluate", h.EvaluateInline)
}

// keyFromRequest assembles the evaluation-run key from path and query params.
func keyFromRequest(c echo.Context) (Key, error) {
	key := Key{
		MeasureID: c.Param("measureID"),
		TestBatch: c.QueryParam("test_batch"),
	}
	if key.TestBatch == "" {
		return key, echo.NewHTTPError(http.StatusBadRequest, "test_batch is required")
	}

	ed, err := strconv.ParseInt(c.QueryParam("effective_date"), 10, 64)
	if err != nil {
		return key, echo.NewHTTPError(http.StatusBadRequest, "effective_date must be a unix timestamp")
	}
	key.EffectiveDate = ed

	if sub := c.QueryParam("sub_id"); sub != "" {
		key.SubID = &sub
	}
	return key, nil
}

func classifyHTTPError(err error) error {
	var cerr *ClassificationError
	if errors.As(err, &cerr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"patient_id": cerr.PatientID,
			"status":     cerr.Status,
			"payload":    cerr.Payload,
		})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) ClassifyBatch(c echo.Context) error {
	key, err := keyFromRequest(c)
	if err != nil {
		return err
	}
	count, err := h.svc.ClassifyBatch(c.Request().Context(), key)
	if err != nil {
		return classifyHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"classified": count,
		"key":        key,
	})
}

func (h *Handler) ClassifyPatient(c echo.Context) error {
	key, err := keyFromRequest(c)
	if err != nil {
		return err
	}
	doc, err := h.svc.ClassifyPatient(c.Request().Context(), key, c.Param("patientID"))
	if err != nil {
		return classifyHTTPError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) EvaluateInline(c echo.Context) error {
	key, err := keyFromRequest(c)
	if err != nil {
		return err
	}
	doc, err := h.svc.EvaluateInline(c.Request().Context(), key, c.Param("patientID"))
	if err != nil {
		return classifyHTTPError(err)
	}
	return c.JSON(http.StatusOK, doc)
}
