package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/correspondence-tracker/internal/service/auth"
	"github.com/feichai0017/correspondence-tracker/internal/service/document"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps service errors onto an HTTP status and the message shown
// to the user.
func statusFor(err error) (int, string) {
	var invalid *document.InvalidInputError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Message
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "El archivo es demasiado grande"
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound, "Recurso no encontrado"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Usuario o contraseña incorrectos"
	case errors.Is(err, document.ErrQueueDisabled):
		return http.StatusServiceUnavailable, "Procesamiento en segundo plano no disponible"
	}
	return http.StatusInternalServerError, "Error interno del servidor"
}

// handleError writes err with the status statusFor picks. op names the
// failed operation in the log.
func handleError(c *gin.Context, log logger.Logger, op string, err error) {
	status, message := statusFor(err)

	l := logger.FromContext(c.Request.Context(), log)
	if status >= http.StatusInternalServerError {
		l.Error(op, logger.String("path", c.Request.URL.Path), logger.Error(err))
	} else {
		l.Debug(op, logger.String("path", c.Request.URL.Path), logger.Error(err))
	}

	response := ErrorResponse{Error: http.StatusText(status), Message: message}
	if status < http.StatusInternalServerError {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: http.StatusText(http.StatusBadRequest), Message: message})
}
