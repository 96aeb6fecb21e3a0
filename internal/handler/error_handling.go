package handler

import (
	"errors"
	"net/http"

	"sustainability-council/internal/service"
	models "sustainability-council/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError переводит ошибки сервиса в JSON-ответ.
// Сбой внешнего вызова всегда отдается одним общим сообщением.
func (h *CouncilHandler) handleServiceError(c *gin.Context, err error) {
	var (
		status  int
		code    int
		message string
	)
	switch {
	case service.IsInputError(err):
		status, code, message = http.StatusBadRequest, models.ErrCodeValidation, inputErrorMessage(err)
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrSessionExpired):
		status, code, message = http.StatusUnauthorized, models.ErrCodeUnauthorized, models.ErrUnauthorized.Error()
	case errors.Is(err, service.ErrCouncilFailed):
		status, code, message = http.StatusBadGateway, models.ErrCodeUpstream, service.CouncilFailureMessage
	default:
		status, code, message = http.StatusInternalServerError, models.ErrCodeInternal, models.ErrInternalServer.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Debug("Request rejected", zap.String("path", c.Request.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Code: code, Message: message})
}
