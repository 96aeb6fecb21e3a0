package handler

import (
	"errors"
	"net/http"

	models "sustainability-council/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "council_session"
	// loginPromptURL открывает модальное окно входа на главной.
	loginPromptURL = "/?login=1"
)

// sessionMiddleware находит сессию по cookie и кладет ее в контекст запроса.
// Отсутствие или недействительность сессии не прерывает запрос.
func (h *CouncilHandler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		session, err := h.auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrSessionNotFound),
				errors.Is(err, models.ErrSessionExpired),
				errors.Is(err, models.ErrTokenExpired),
				errors.Is(err, models.ErrTokenInvalid),
				errors.Is(err, models.ErrTokenMalformed):
				h.logger.Debug("Dropping stale session cookie", zap.Error(err))
				h.clearSessionCookie(c)
			default:
				h.logger.Error("Failed to resolve session", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set("user_id", session.User.ID)
		c.Request = c.Request.WithContext(models.WithSession(c.Request.Context(), session))
		c.Next()
	}
}

// requireSession пускает на страницы совета только вошедших пользователей.
// Остальных отправляет на главную с открытым окном входа (для htmx - через HX-Redirect).
func (h *CouncilHandler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c) != nil {
			c.Next()
			return
		}
		h.logger.Debug("Council page requested without session", zap.String("path", c.Request.URL.Path))
		if isHTMX(c) {
			c.Header("HX-Redirect", loginPromptURL)
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Redirect(http.StatusSeeOther, loginPromptURL)
		c.Abort()
	}
}

// requireSessionAPI - то же для JSON API: 401 вместо редиректа.
func (h *CouncilHandler) requireSessionAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeUnauthorized,
				Message: models.ErrUnauthorized.Error(),
			})
			return
		}
		c.Next()
	}
}

// currentSession возвращает сессию запроса или nil.
func currentSession(c *gin.Context) *models.Session {
	s, _ := models.SessionFromContext(c.Request.Context())
	return s
}

func (h *CouncilHandler) setSessionCookie(c *gin.Context, token string) {
	maxAge := 0
	if h.sessionTTL > 0 {
		maxAge = int(h.sessionTTL.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, maxAge, "/", "", h.cookieSecure, true)
}

func (h *CouncilHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.cookieSecure, true)
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
