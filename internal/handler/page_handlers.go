package handler

import (
	"errors"
	"fmt"
	"net/http"

	"sustainability-council/internal/auth"
	"sustainability-council/internal/service"
	"sustainability-council/internal/web"
	models "sustainability-council/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Сообщения для пользователя.
const (
	msgLoggedOut           = "You have been logged out."
	msgEmptyName           = "Please enter your name or email."
	msgLoginFailed         = "Login failed. Please try again."
	msgUnknownScenarioType = "Please choose one of the listed scenario types."
	msgScenarioTooLong     = "Your scenario is too long. Please shorten it and try again."
)

var msgNameTooLong = fmt.Sprintf("Name is too long. Please use at most %d characters.", auth.MaxNameLength)

// pageData собирает общие данные layout: сессию и flash-сообщение.
func (h *CouncilHandler) pageData(c *gin.Context, active string) web.PageData {
	data := web.PageData{Active: active, Session: currentSession(c)}
	flash, err := h.getFlashMessage(c)
	if err != nil {
		h.logger.Warn("Ignoring invalid flash cookie", zap.Error(err))
	}
	if flash != nil {
		if flash.Type == flashLoginError {
			data.ShowLogin = true
			data.LoginError = flash.Message
		} else {
			data.Flash = flash
		}
	}
	return data
}

func (h *CouncilHandler) showHome(c *gin.Context) {
	data := h.pageData(c, "home")
	data.Home = web.Home()
	if c.Query("login") == "1" && data.Session == nil {
		data.ShowLogin = true
	}
	c.HTML(http.StatusOK, web.PageHome, data)
}

func (h *CouncilHandler) showAbout(c *gin.Context) {
	data := h.pageData(c, "about")
	data.About = web.About()
	c.HTML(http.StatusOK, web.PageAbout, data)
}

func (h *CouncilHandler) showCouncil(c *gin.Context) {
	data := h.pageData(c, "council")
	data.Council = web.NewCouncilForm()
	c.HTML(http.StatusOK, web.PageCouncil, data)
}

// login создает сессию по имени из модального окна и ведет на страницу совета.
func (h *CouncilHandler) login(c *gin.Context) {
	name := c.PostForm("name")
	session, token, err := h.auth.Login(c.Request.Context(), name)
	if err != nil {
		loginAttemptsTotal.WithLabelValues("rejected").Inc()
		message := msgLoginFailed
		switch {
		case errors.Is(err, models.ErrInvalidName):
			message = msgEmptyName
		case errors.Is(err, models.ErrInvalidInput):
			message = msgNameTooLong
		default:
			h.logger.Error("Login failed", zap.Error(err))
		}
		h.redirectToLogin(c, message)
		return
	}

	loginAttemptsTotal.WithLabelValues("success").Inc()
	h.setSessionCookie(c, token)
	c.Set("user_id", session.User.ID)
	if isHTMX(c) {
		c.Header("HX-Redirect", "/council")
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, "/council")
}

func (h *CouncilHandler) redirectToLogin(c *gin.Context, message string) {
	if err := h.setFlashMessage(c, flashLoginError, message); err != nil {
		h.logger.Error("Failed to set flash message", zap.Error(err))
	}
	if isHTMX(c) {
		c.Header("HX-Redirect", loginPromptURL)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, loginPromptURL)
}

// logout удаляет сессию и cookie. Работает и без действующей сессии.
func (h *CouncilHandler) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookieName); err == nil && token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			h.logger.Error("Failed to delete session on logout", zap.Error(err))
		}
	}
	logoutsTotal.Inc()
	h.clearSessionCookie(c)
	if err := h.setFlashMessage(c, flashSuccess, msgLoggedOut); err != nil {
		h.logger.Error("Failed to set flash message", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// runCouncil принимает форму сценария. Для htmx-запроса отдает только форму с областью результата,
// а при ошибке ввода только форму, чтобы прежний результат остался на странице.
// Ошибки ввода и сбои вызова отдаются со статусом 200, чтобы htmx выполнил подстановку.
func (h *CouncilHandler) runCouncil(c *gin.Context) {
	session := currentSession(c)
	form := web.NewCouncilForm()
	form.Scenario = c.PostForm("scenario")
	if st := c.PostForm("scenario_type"); st != "" {
		form.ScenarioType = st
	}

	resp, err := h.council.RunCouncilDebate(c.Request.Context(), session, form.Scenario, form.ScenarioType)
	switch {
	case err == nil:
		form.WithResult(resp)
	case service.IsInputError(err):
		form.ValidationError = inputErrorMessage(err)
		if errors.Is(err, service.ErrUnknownScenarioType) {
			form.ScenarioType = web.NewCouncilForm().ScenarioType
		}
	default:
		form.WithError(service.CouncilFailureMessage)
	}

	if isHTMX(c) {
		if form.ValidationError != "" {
			c.Header("HX-Retarget", web.CouncilFormTarget)
			c.Header("HX-Reswap", "outerHTML")
			c.HTML(http.StatusOK, web.PartialCouncilForm, form)
			return
		}
		c.HTML(http.StatusOK, web.PartialCouncilSession, form)
		return
	}
	data := h.pageData(c, "council")
	data.Council = form
	c.HTML(http.StatusOK, web.PageCouncil, data)
}

// inputErrorMessage переводит ошибку ввода в текст под полем сценария.
func inputErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyScenario):
		return service.EmptyScenarioMessage
	case errors.Is(err, service.ErrUnknownScenarioType):
		return msgUnknownScenarioType
	case errors.Is(err, service.ErrScenarioTooLong):
		return msgScenarioTooLong
	}
	return err.Error()
}
