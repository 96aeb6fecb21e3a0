package handler

import (
	"net/http"
	"strings"

	"sustainability-council/internal/web"
	sharedMiddleware "sustainability-council/shared/middleware"
	models "sustainability-council/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CustomErrorMiddleware логирует ошибки обработчиков и отдает кастомную страницу 404.
// Для /api/ вместо страницы отдается JSON.
func CustomErrorMiddleware(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("ErrorMiddleware")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			for _, ginErr := range c.Errors {
				logger.Error("Handler error",
					zap.Error(ginErr.Err),
					zap.Any("meta", ginErr.Meta),
					zap.Int("type", int(ginErr.Type)),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("request_id", sharedMiddleware.RequestID(c)),
				)
			}
			// Редирект без тела тоже считается ответом: его не заменяем на 500
			if !c.Writer.Written() && !isRedirect(c.Writer.Status()) {
				c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}
			return
		}

		status := c.Writer.Status()
		if status == http.StatusNotFound && !c.Writer.Written() {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.JSON(http.StatusNotFound, models.ErrorResponse{Code: http.StatusNotFound, Message: "not found"})
				return
			}
			c.HTML(http.StatusNotFound, web.PageNotFound, web.PageData{Session: currentSession(c)})
			return
		}

		if status >= http.StatusInternalServerError {
			logger.Warn("Request resulted in server error status",
				zap.Int("status", status),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
		}
	}
}

func isRedirect(status int) bool {
	return status >= http.StatusMultipleChoices && status < http.StatusBadRequest
}
