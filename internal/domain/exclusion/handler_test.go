package exclusion

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService(newMockRecordRepo(), newFlagCache("p1"))
	return NewHandler(svc), echo.New()
}

func createContext(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("measureID")
	c.SetParamValues("X")
	return c, rec
}

func TestHandler_CreateExclusion(t *testing.T) {
	h, e := newTestHandler()

	c, rec := createContext(e, `{"patient_id":"p1","reason":"refused"}`)
	if err := h.CreateExclusion(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var created Record
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.MeasureID != "X" || created.PatientID != "p1" {
		t.Errorf("got measure=%q patient=%q, want X/p1", created.MeasureID, created.PatientID)
	}
}

func TestHandler_CreateExclusion_DuplicateConflict(t *testing.T) {
	h, e := newTestHandler()

	c, _ := createContext(e, `{"patient_id":"p1"}`)
	if err := h.CreateExclusion(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ = createContext(e, `{"patient_id":"p1"}`)
	err := h.CreateExclusion(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", he.Code)
	}
}

func TestHandler_CreateExclusion_MissingPatient(t *testing.T) {
	h, e := newTestHandler()

	c, _ := createContext(e, `{"reason":"refused"}`)
	err := h.CreateExclusion(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", he.Code)
	}
}
