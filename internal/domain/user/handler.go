package user

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/emr/emr/internal/platform/apperr"
	"github.com/emr/emr/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/users", h.Create)
	api.GET("/users", h.List)
	api.GET("/users/statistics", h.Statistics)
	api.GET("/users/:id", h.Get)
	api.PUT("/users/:id", h.Update)
	api.DELETE("/users/:id", h.Delete)
	api.PATCH("/users/:id/reset-password", h.ResetPassword)
	api.PATCH("/users/:id/status", h.UpdateStatus)
}

type createUserRequest struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	RealName     string   `json:"realName"`
	Email        *string  `json:"email"`
	Phone        *string  `json:"phone"`
	Avatar       *string  `json:"avatar"`
	DepartmentID *string  `json:"departmentId"`
	RoleIDs      []string `json:"roleIds"`
	IsSuperAdmin bool     `json:"isSuperAdmin"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u := &User{
		Username:     req.Username,
		RealName:     req.RealName,
		Email:        req.Email,
		Phone:        req.Phone,
		Avatar:       req.Avatar,
		DepartmentID: req.DepartmentID,
		RoleIDs:      req.RoleIDs,
		IsSuperAdmin: req.IsSuperAdmin,
	}
	if err := h.svc.Create(c.Request().Context(), u, req.Password); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	filter := ListFilter{
		Username:     c.QueryParam("username"),
		RealName:     c.QueryParam("realName"),
		Phone:        c.QueryParam("phone"),
		Status:       c.QueryParam("status"),
		DepartmentID: c.QueryParam("departmentId"),
	}

	users, total, err := h.svc.List(c.Request().Context(), filter, p.Limit, p.Offset())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, p))
}

type updateUserRequest struct {
	RealName     *string  `json:"realName"`
	Email        *string  `json:"email"`
	Phone        *string  `json:"phone"`
	Avatar       *string  `json:"avatar"`
	DepartmentID *string  `json:"departmentId"`
	RoleIDs      []string `json:"roleIds"`
	IsSuperAdmin *bool    `json:"isSuperAdmin"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	if req.RealName != nil {
		u.RealName = *req.RealName
	}
	if req.Email != nil {
		u.Email = req.Email
	}
	if req.Phone != nil {
		u.Phone = req.Phone
	}
	if req.Avatar != nil {
		u.Avatar = req.Avatar
	}
	if req.DepartmentID != nil {
		u.DepartmentID = req.DepartmentID
	}
	if req.RoleIDs != nil {
		u.RoleIDs = req.RoleIDs
	}
	if req.IsSuperAdmin != nil {
		u.IsSuperAdmin = *req.IsSuperAdmin
	}

	if err := h.svc.Update(c.Request().Context(), u); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ResetPassword(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	password, err := h.svc.ResetPassword(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message":  "password reset",
		"password": password,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "status updated"})
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, stats)
}
