package handler

import (
	"net/http"
	"time"

	"sustainability-council/internal/auth"
	"sustainability-council/internal/config"
	"sustainability-council/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// CouncilHandler обслуживает страницы, JSON API и WebSocket чата.
type CouncilHandler struct {
	auth         auth.Authenticator
	council      service.CouncilService
	flashKey     []byte
	cookieSecure bool
	sessionTTL   time.Duration
	upgrader     websocket.Upgrader
	logger       *zap.Logger
}

// NewCouncilHandler создает обработчик. flashKey подписывает flash-cookie (см. auth.DeriveKeys).
func NewCouncilHandler(
	authenticator auth.Authenticator,
	council service.CouncilService,
	flashKey []byte,
	cfg *config.Config,
	logger *zap.Logger,
) *CouncilHandler {
	h := &CouncilHandler{
		auth:         authenticator,
		council:      council,
		flashKey:     flashKey,
		cookieSecure: cfg.CookieSecure,
		sessionTTL:   cfg.SessionTTL,
		logger:       logger.Named("CouncilHandler"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.GetAllowedOrigins()),
	}
	return h
}

// RegisterRoutes регистрирует все маршруты приложения.
// Middleware сессии подключается глобально, чтобы навбар и страница 404 видели пользователя.
func (h *CouncilHandler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.sessionMiddleware())

	router.GET("/health", h.healthCheck)

	router.GET("/", h.showHome)
	router.GET("/about", h.showAbout)
	router.POST("/login", h.login)
	router.POST("/logout", h.logout)

	council := router.Group("/council", h.requireSession())
	{
		council.GET("", h.showCouncil)
		council.POST("/run", h.runCouncil)
	}

	api := router.Group("/api")
	{
		api.POST("/council", h.requireSessionAPI(), h.apiRunCouncil)
		api.POST("/chat", h.apiChat)
	}

	router.GET("/ws/chat", h.serveChatWS)
}

func (h *CouncilHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// originChecker разрешает тот же хост и явно перечисленные origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
