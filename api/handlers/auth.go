package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/correspondence-tracker/api/middleware"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

type AuthHandler struct {
	service Authenticator
	logger  logger.Logger
}

// LoginRequest accepts JSON and form posts.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func NewAuthHandler(service Authenticator, log logger.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: log}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Se requieren usuario y contraseña")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, h.logger, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me returns the identity carried by the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: http.StatusText(http.StatusUnauthorized), Message: "Token de acceso requerido"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username":   claims.Subject,
		"nombre":     claims.Nombre,
		"expires_at": claims.ExpiresAt.Time,
	})
}
