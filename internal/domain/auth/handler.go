package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/emr/emr/internal/platform/apperr"
	"github.com/emr/emr/internal/platform/auth"
)

type Handler struct {
	svc       *Service
	expiresIn string
}

func NewHandler(svc *Service, expiresIn string) *Handler {
	return &Handler{svc: svc, expiresIn: expiresIn}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/register", h.Register)
	g.POST("/auth/login", h.Login)
	g.POST("/auth/logout", h.Logout)
	g.GET("/auth/profile", h.Profile)
	g.GET("/auth/validate-token", h.ValidateToken)
	g.POST("/auth/refresh", h.Refresh)
	g.PUT("/auth/change-password", h.ChangePassword)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "registration successful",
		"user":    u,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Login(c.Request().Context(), req.Username, req.Password, c.RealIP(), h.expiresIn)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
		}
		return apperr.ToHTTP(err)
	}

	return c.JSON(http.StatusOK, result)
}

// Logout is stateless: the client discards the token. The endpoint exists
// so clients have a uniform call to end a session.
func (h *Handler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "logout successful"})
}

func (h *Handler) Profile(c echo.Context) error {
	identity := auth.IdentityFromContext(c.Request().Context())
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication token")
	}

	u, err := h.svc.Profile(c.Request().Context(), identity)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

// ValidateToken reports the identity carried by the presented token. The
// guard has already verified it by the time this handler runs.
func (h *Handler) ValidateToken(c echo.Context) error {
	identity := auth.IdentityFromContext(c.Request().Context())
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication token")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"valid":    true,
		"userId":   identity.UserID,
		"username": identity.Username,
		"realName": identity.RealName,
		"roleIds":  identity.RoleIDs,
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	identity := auth.IdentityFromContext(c.Request().Context())
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication token")
	}

	token, err := h.svc.Refresh(c.Request().Context(), identity)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"token":     token,
		"expiresIn": h.expiresIn,
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(c echo.Context) error {
	identity := auth.IdentityFromContext(c.Request().Context())
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication token")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.ChangePassword(c.Request().Context(), identity, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "old password is incorrect")
		}
		return apperr.ToHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password changed"})
}
