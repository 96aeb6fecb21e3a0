package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"sustainability-council/internal/model"
	models "sustainability-council/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// apiRunCouncil - JSON-вариант запуска совета. Требует сессию.
func (h *CouncilHandler) apiRunCouncil(c *gin.Context) {
	var req model.CouncilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid council request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "invalid request body"})
		return
	}
	resp, err := h.council.RunCouncilDebate(c.Request.Context(), currentSession(c), req.Scenario, req.ScenarioType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// apiChat - ответ ассистента по HTTP. Сессия не нужна.
// Пустое сообщение игнорируется: 204 без вызова модели.
func (h *CouncilHandler) apiChat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid chat request body", zap.Error(err))
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeValidation, Message: errInvalidChatHistory.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.Status(http.StatusNoContent)
		return
	}
	chatMessagesTotal.WithLabelValues("http").Inc()
	reply := h.council.ChatReply(c.Request.Context(), currentSession(c), req.History, req.Message)
	c.JSON(http.StatusOK, model.ChatResponse{Reply: reply})
}

var errInvalidChatHistory = errors.New("history sender must be \"user\" or \"bot\"")

// validateChatRequest проверяет теги binding для сообщений, пришедших не через ShouldBind (WebSocket).
func validateChatRequest(req *model.ChatRequest) error {
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", errInvalidChatHistory, err)
	}
	return nil
}
