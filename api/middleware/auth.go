package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/correspondence-tracker/internal/service/auth"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

const claimsKey = "auth.claims"

type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// Auth rejects requests without a valid bearer token and stores the claims
// for ClaimsFrom.
func Auth(tokens TokenParser, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			unauthorized(c, "Token de acceso requerido")
			return
		}

		claims, err := tokens.ParseToken(strings.TrimSpace(token))
		if err != nil {
			logger.FromContext(c.Request.Context(), log).Debug("Rejected token", logger.Error(err))
			unauthorized(c, "Token inválido o expirado")
			return
		}

		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(logger.WithUsername(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Auth.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   auth.ErrInvalidToken.Error(),
		"message": message,
	})
}
