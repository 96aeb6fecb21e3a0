package handler

import (
	"strings"
	"time"

	"sustainability-council/internal/model"
	models "sustainability-council/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время ожидания pong (или следующего сообщения) от клиента.
	pongWait = 60 * time.Second
	// Период пингов. Должен быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения от клиента (история чата целиком).
	maxMessageSize = 64 * 1024
)

// serveChatWS поднимает WebSocket чата. Клиент шлет model.ChatRequest, сервер отвечает model.ChatResponse.
// Сообщения одного соединения обрабатываются по очереди: одновременно не более одного вызова модели.
func (h *CouncilHandler) serveChatWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader уже ответил клиенту
		h.logger.Warn("Failed to upgrade chat connection", zap.Error(err))
		return
	}

	session := currentSession(c)
	log := h.logger.With(zap.String("user_id", sessionUserID(session)))
	log.Debug("Chat WebSocket connection established")
	chatConnectionsActive.Inc()
	defer chatConnectionsActive.Dec()

	send := make(chan model.ChatResponse, 1)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.chatWritePump(conn, send, log)
	}()

	h.chatReadPump(c, conn, session, send, log)
	close(send)
	<-writerDone
	_ = conn.Close()
	log.Debug("Chat WebSocket connection closed")
}

// chatReadPump читает запросы и синхронно получает ответы ассистента.
func (h *CouncilHandler) chatReadPump(c *gin.Context, conn *websocket.Conn, session *models.Session, send chan<- model.ChatResponse, log *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req model.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("Chat WebSocket read error", zap.Error(err))
			}
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			continue
		}
		if err := validateChatRequest(&req); err != nil {
			// Клиент ждет ответа на каждое непустое сообщение
			log.Debug("Rejecting chat message with invalid history", zap.Error(err))
			send <- model.ChatResponse{Error: errInvalidChatHistory.Error()}
			continue
		}

		chatMessagesTotal.WithLabelValues("websocket").Inc()
		reply := h.council.ChatReply(c.Request.Context(), session, req.History, req.Message)
		send <- model.ChatResponse{Reply: reply}
		// Пока шел вызов модели, pong не читались
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// chatWritePump - единственный писатель в соединение: ответы и пинги.
func (h *CouncilHandler) chatWritePump(conn *websocket.Conn, send <-chan model.ChatResponse, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("Failed to write chat reply", zap.Error(err))
				// Закрываем соединение, чтобы readPump вышел из ReadJSON
				_ = conn.Close()
				drain(send)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("Failed to send ping", zap.Error(err))
				_ = conn.Close()
				drain(send)
				return
			}
		}
	}
}

// drain освобождает readPump, если он успел положить ответ после остановки писателя.
func drain(send <-chan model.ChatResponse) {
	for range send {
	}
}

func sessionUserID(s *models.Session) string {
	if s == nil {
		return ""
	}
	return s.User.ID
}
