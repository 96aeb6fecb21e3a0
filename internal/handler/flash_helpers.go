package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sustainability-council/internal/web"

	"github.com/gin-gonic/gin"
)

const (
	flashCookieName = "flash_message"
	flashCookieTTL  = 10 * time.Second
)

// Типы flash-сообщений.
const (
	flashSuccess = "success"
	flashError   = "error"
	// flashLoginError показывается внутри окна входа, а не баннером
	flashLoginError = "login_error"
)

// setFlashMessage устанавливает подписанную HMAC-SHA256 куку с flash-сообщением.
// Формат значения: base64url(подпись || json).
func (h *CouncilHandler) setFlashMessage(c *gin.Context, msgType, message string) error {
	jsonData, err := json.Marshal(web.Flash{Type: msgType, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal flash message: %w", err)
	}

	mac := hmac.New(sha256.New, h.flashKey)
	mac.Write(jsonData)
	signedData := append(mac.Sum(nil), jsonData...)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName,
		base64.URLEncoding.EncodeToString(signedData),
		int(flashCookieTTL.Seconds()),
		"/",
		"",
		h.cookieSecure,
		true,
	)
	return nil
}

// getFlashMessage читает, проверяет и удаляет куку с flash-сообщением.
// Возвращает nil без ошибки, если куки нет.
func (h *CouncilHandler) getFlashMessage(c *gin.Context) (*web.Flash, error) {
	cookie, err := c.Cookie(flashCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get flash cookie: %w", err)
	}

	// Удаляем куку сразу после чтения
	c.SetCookie(flashCookieName, "", -1, "/", "", h.cookieSecure, true)

	signedData, err := base64.URLEncoding.DecodeString(cookie)
	if err != nil {
		return nil, fmt.Errorf("failed to decode flash cookie: %w", err)
	}
	if len(signedData) < sha256.Size {
		return nil, fmt.Errorf("invalid flash cookie length")
	}

	receivedSig := signedData[:sha256.Size]
	jsonData := signedData[sha256.Size:]

	mac := hmac.New(sha256.New, h.flashKey)
	mac.Write(jsonData)
	if !hmac.Equal(receivedSig, mac.Sum(nil)) {
		return nil, fmt.Errorf("invalid flash cookie signature")
	}

	var flash web.Flash
	if err := json.Unmarshal(jsonData, &flash); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flash message: %w", err)
	}
	return &flash, nil
}
