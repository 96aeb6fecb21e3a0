package model

// Отправители реплик в чате виджета.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatGreeting - первая реплика бота при открытии виджета. Входит в историю.
const ChatGreeting = "Hi! How can I help you understand the Sustainability Council app?"

// ChatTurn - одна реплика чата в том виде, в каком ее хранит виджет.
type ChatTurn struct {
	Sender string `json:"sender" binding:"oneof=user bot"`
	Text   string `json:"text"`
}

// ChatRequest - тело запроса к чату (HTTP и WebSocket).
type ChatRequest struct {
	History []ChatTurn `json:"history" binding:"dive"`
	Message string     `json:"message"`
}

// ChatResponse - ответ чата. Error заполняется вместо Reply, если запрос отклонен (только WebSocket).
type ChatResponse struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// CouncilRequest - тело JSON-запроса к совету.
type CouncilRequest struct {
	Scenario     string `json:"scenario"`
	ScenarioType string `json:"scenario_type"`
}
