package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestServer() (*echo.Echo, *memRepo) {
	svc, repo := newTestService()
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group(""))
	return e, repo
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateHandler_AcceptsPlainDateBirthDate(t *testing.T) {
	e, _ := newTestServer()

	rec := doJSON(e, http.MethodPost, "/patients", `{
		"patientNo": "P20240001",
		"name": "Zhang San",
		"gender": "male",
		"birthDate": "1990-01-01",
		"idCard": "110101199001011234",
		"phone": "13800138000",
		"address": "1 Hospital Road"
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Age != 34 {
		t.Errorf("expected age 34 computed from plain-date birthDate, got %d", created.Age)
	}
	if created.BirthDate.Format("2006-01-02") != "1990-01-01" {
		t.Errorf("unexpected birth date: %v", created.BirthDate.Time)
	}
}

func TestCreateHandler_AcceptsRFC3339BirthDate(t *testing.T) {
	e, _ := newTestServer()

	rec := doJSON(e, http.MethodPost, "/patients", `{
		"patientNo": "P20240001",
		"name": "Zhang San",
		"birthDate": "1990-01-01T00:00:00Z",
		"idCard": "110101199001011234",
		"phone": "13800138000",
		"address": "1 Hospital Road"
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateHandler_RejectsUnknownDateFormat(t *testing.T) {
	e, _ := newTestServer()

	rec := doJSON(e, http.MethodPost, "/patients", `{
		"patientNo": "P20240001",
		"name": "Zhang San",
		"birthDate": "01/01/1990",
		"idCard": "110101199001011234",
		"phone": "13800138000"
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateHandler_AcceptsPlainDateDeathDate(t *testing.T) {
	e, repo := newTestServer()

	rec := doJSON(e, http.MethodPost, "/patients", `{
		"patientNo": "P20240001",
		"name": "Zhang San",
		"birthDate": "1990-01-01",
		"idCard": "110101199001011234",
		"phone": "13800138000",
		"address": "1 Hospital Road"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec = doJSON(e, http.MethodPut, "/patients/"+created.ID.String(), `{
		"status": "deceased",
		"deathDate": "2024-06-01"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	stored := repo.patients[created.ID]
	if stored.Status != StatusDeceased || stored.DeathDate == nil {
		t.Errorf("expected deceased with death date, got %+v", stored)
	}
	if stored.DeathDate.Format("2006-01-02") != "2024-06-01" {
		t.Errorf("unexpected death date: %v", stored.DeathDate.Time)
	}
}
