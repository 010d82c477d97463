package record

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/emr/emr/internal/platform/apperr"
	"github.com/emr/emr/internal/platform/auth"
	"github.com/emr/emr/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/records", h.Create)
	api.GET("/records", h.List)
	api.GET("/records/statistics", h.Statistics)
	api.GET("/records/no/:recordNo", h.GetByRecordNo)
	api.GET("/records/patient/:patientId", h.ByPatient)
	api.GET("/records/doctor/:doctorId", h.ByDoctor)
	api.GET("/records/:id", h.Get)
	api.PUT("/records/:id", h.Update)
	api.PATCH("/records/:id/status", h.UpdateStatus)
	api.DELETE("/records/:id", h.Delete)
}

func actingUserID(c echo.Context) string {
	if identity := auth.IdentityFromContext(c.Request().Context()); identity != nil {
		return identity.UserID
	}
	return ""
}

func (h *Handler) Create(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.Create(c.Request().Context(), &rec, actingUserID(c)); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetByRecordNo(c echo.Context) error {
	rec, err := h.svc.GetByRecordNo(c.Request().Context(), c.Param("recordNo"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	filter := ListFilter{
		PatientID:  c.QueryParam("patientId"),
		DoctorID:   c.QueryParam("doctorId"),
		Type:       c.QueryParam("type"),
		Department: c.QueryParam("department"),
		Status:     c.QueryParam("status"),
		Keyword:    c.QueryParam("keyword"),
	}
	if v := c.QueryParam("startDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid startDate, expected YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if v := c.QueryParam("endDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid endDate, expected YYYY-MM-DD")
		}
		filter.EndDate = &t
	}

	records, total, err := h.svc.List(c.Request().Context(), filter, p.Limit, p.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, p))
}

func (h *Handler) ByPatient(c echo.Context) error {
	p := pagination.FromContext(c)
	records, total, err := h.svc.ByPatient(c.Request().Context(), c.Param("patientId"), p.Limit, p.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, p))
}

func (h *Handler) ByDoctor(c echo.Context) error {
	p := pagination.FromContext(c)
	records, total, err := h.svc.ByDoctor(c.Request().Context(), c.Param("doctorId"), p.Limit, p.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, p))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	rec := *existing
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.ID = id

	if err := h.svc.Update(c.Request().Context(), &rec); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	if err := h.svc.Delete(c.Request().Context(), id, actingUserID(c)); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context(), c.QueryParam("doctorId"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, stats)
}
