package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"sustainability-council/internal/config"
	"sustainability-council/internal/mocks"
	"sustainability-council/internal/model"
	"sustainability-council/internal/schemas"
	"sustainability-council/internal/service"
	"sustainability-council/internal/web"
	models "sustainability-council/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var testFlashKey = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	router  *gin.Engine
	auth    *mocks.MockAuthenticator
	council *mocks.MockCouncilService
	handler *CouncilHandler
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	renderer, err := web.NewTemplateRenderer("", logger)
	require.NoError(t, err)

	router := gin.New()
	router.HTMLRender = renderer
	router.Use(CustomErrorMiddleware(logger))
	return router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		auth:    mocks.NewMockAuthenticator(t),
		council: mocks.NewMockCouncilService(t),
	}
	env.router = newTestRouter(t)
	env.handler = NewCouncilHandler(env.auth, env.council, testFlashKey, &config.Config{SessionTTL: time.Hour}, zaptest.NewLogger(t))
	env.handler.RegisterRoutes(env.router)
	return env
}

func testSession() *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        "session-1",
		User:      models.User{ID: "user-1", Name: "Jane Doe"},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

// loggedIn настраивает мок так, что cookie "tok" соответствует testSession.
func (e *testEnv) loggedIn() *models.Session {
	s := testSession()
	e.auth.On("CurrentUser", mock.Anything, "tok").Return(s, nil)
	return s
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func withSessionCookie(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "tok"})
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func sampleResponse(t *testing.T) *model.CouncilResponse {
	t.Helper()
	resp, err := schemas.ParseCouncilResponse(mocks.SampleCouncilReply)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHomeAndAbout_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Start a Council Session")
	assert.Contains(t, rec.Body.String(), "z-50 hidden", "login modal is closed")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/about", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "About the Sustainability Council")
}

func TestHome_LoginPromptQuery(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/?login=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "z-50 flex")
}

func TestCouncilPage_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/council", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, loginPromptURL, rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/council", nil)
	req.Header.Set("HX-Request", "true")
	rec = env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, loginPromptURL, rec.Header().Get("HX-Redirect"))
	assert.Empty(t, rec.Body.String())

	rec = env.do(formRequest("/council/run", url.Values{"scenario": {"x"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code, "council service is never reached without a session")
}

func TestCouncilPage_LoggedIn(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn()

	rec := env.do(withSessionCookie(httptest.NewRequest(http.MethodGet, "/council", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Run a Sustainability Council Session")
	assert.Contains(t, body, "Run Council Debate")
	assert.Contains(t, body, ">JD<")
	assert.Contains(t, body, `<option value="Energy &amp; Renewables" selected>`)
}

func TestSessionMiddleware_StaleCookie(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("CurrentUser", mock.Anything, "tok").Return(nil, models.ErrSessionNotFound)

	rec := env.do(withSessionCookie(httptest.NewRequest(http.MethodGet, "/", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ">Login<")
	cleared := findCookie(rec, sessionCookieName)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestSessionMiddleware_StoreFailureKeepsCookie(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("CurrentUser", mock.Anything, "tok").Return(nil, errors.New("redis down"))

	rec := env.do(withSessionCookie(httptest.NewRequest(http.MethodGet, "/", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, findCookie(rec, sessionCookieName))
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("Login", mock.Anything, "Jane Doe").Return(testSession(), "signed-token", nil)

	rec := env.do(formRequest("/login", url.Values{"name": {"Jane Doe"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/council", rec.Header().Get("Location"))

	cookie := findCookie(rec, sessionCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)
}

func TestLogin_EmptyNameShowsErrorInModal(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("Login", mock.Anything, "  ").Return(nil, "", models.ErrInvalidName)

	rec := env.do(formRequest("/login", url.Values{"name": {"  "}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, loginPromptURL, rec.Header().Get("Location"))
	assert.Nil(t, findCookie(rec, sessionCookieName))
	flash := findCookie(rec, flashCookieName)
	require.NotNil(t, flash)

	follow := httptest.NewRequest(http.MethodGet, loginPromptURL, nil)
	follow.AddCookie(flash)
	rec = env.do(follow)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), msgEmptyName)
	assert.Contains(t, rec.Body.String(), "z-50 flex")
}

func TestLogin_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("Login", mock.Anything, "Jane").Return(nil, "", errors.New("redis down"))

	rec := env.do(formRequest("/login", url.Values{"name": {"Jane"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, loginPromptURL, rec.Header().Get("Location"))
	assert.Nil(t, findCookie(rec, sessionCookieName))

	// Пользователь возвращается в окно входа с сообщением и может повторить попытку
	follow := httptest.NewRequest(http.MethodGet, loginPromptURL, nil)
	follow.AddCookie(findCookie(rec, flashCookieName))
	rec = env.do(follow)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), msgLoginFailed)
}

func TestErrorMiddleware_KeepsRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CustomErrorMiddleware(zap.NewNop()))
	router.POST("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("store down"))
		c.Redirect(http.StatusSeeOther, "/")
	})
	router.POST("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("store down"))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fail", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn()
	env.auth.On("Logout", mock.Anything, "tok").Return(nil)

	rec := env.do(withSessionCookie(httptest.NewRequest(http.MethodPost, "/logout", nil)))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cleared := findCookie(rec, sessionCookieName)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	follow := httptest.NewRequest(http.MethodGet, "/", nil)
	follow.AddCookie(findCookie(rec, flashCookieName))
	rec = env.do(follow)
	assert.Contains(t, rec.Body.String(), msgLoggedOut)
	assert.Contains(t, rec.Body.String(), ">Login<")
}

func TestFlash_TamperedCookieIgnored(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookieName, Value: "bm90LXNpZ25lZA=="})
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `id="flash"`)
}

func TestRunCouncil_HTMXSuccess(t *testing.T) {
	env := newTestEnv(t)
	session := env.loggedIn()
	env.council.On("RunCouncilDebate", mock.Anything, session, "Solar farm", "Water & Drought").Return(sampleResponse(t), nil)

	req := withSessionCookie(formRequest("/council/run", url.Values{"scenario": {"Solar farm"}, "scenario_type": {"Water & Drought"}}))
	req.Header.Set("HX-Request", "true")
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<html", "htmx gets only the session region")
	assert.Contains(t, body, `id="council-session"`)
	assert.Contains(t, body, "Scenario Summary")
	assert.Equal(t, 1, strings.Count(body, `class="recommended-badge`))
	assert.Contains(t, body, `<option value="Water &amp; Drought" selected>`)
	assert.Contains(t, body, ">Solar farm</textarea>")
}

func TestRunCouncil_FullPageFailureShowsErrorOnly(t *testing.T) {
	env := newTestEnv(t)
	session := env.loggedIn()
	env.council.On("RunCouncilDebate", mock.Anything, session, "Solar farm", model.DefaultScenarioType()).
		Return(nil, fmt.Errorf("%w: timeout", service.ErrCouncilFailed))

	rec := env.do(withSessionCookie(formRequest("/council/run", url.Values{"scenario": {"Solar farm"}})))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<html")
	assert.Contains(t, body, "An Error Occurred")
	assert.Contains(t, body, service.CouncilFailureMessage)
	assert.NotContains(t, body, "Scenario Summary")
	assert.NotContains(t, body, "timeout", "internal cause is not shown")
}

func TestRunCouncil_UnknownScenarioType(t *testing.T) {
	env := newTestEnv(t)
	session := env.loggedIn()
	env.council.On("RunCouncilDebate", mock.Anything, session, "x", "Space").
		Return(nil, fmt.Errorf("%w: %q", service.ErrUnknownScenarioType, "Space"))

	req := withSessionCookie(formRequest("/council/run", url.Values{"scenario": {"x"}, "scenario_type": {"Space"}}))
	req.Header.Set("HX-Request", "true")
	rec := env.do(req)
	assert.Contains(t, rec.Body.String(), msgUnknownScenarioType)
	assert.Contains(t, rec.Body.String(), `<option value="Energy &amp; Renewables" selected>`)
}

// Пустой сценарий проходит через настоящий сервис: модель не вызывается, форма показывает подсказку.
func TestRunCouncil_EmptyScenarioNeverCallsModel(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	council := service.NewCouncilService(&config.Config{AIModel: "test"}, ai, nil, service.NewEstimatingCounter(), zap.NewNop())

	auth := mocks.NewMockAuthenticator(t)
	auth.On("CurrentUser", mock.Anything, "tok").Return(testSession(), nil)

	router := newTestRouter(t)
	NewCouncilHandler(auth, council, testFlashKey, &config.Config{}, zaptest.NewLogger(t)).RegisterRoutes(router)

	req := withSessionCookie(formRequest("/council/run", url.Values{"scenario": {"   \n\t"}}))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), service.EmptyScenarioMessage)
	assert.NotContains(t, rec.Body.String(), "An Error Occurred")
	// Заменяется только форма, прежний результат остается на странице
	assert.Equal(t, web.CouncilFormTarget, rec.Header().Get("HX-Retarget"))
	assert.Equal(t, "outerHTML", rec.Header().Get("HX-Reswap"))
	assert.Contains(t, rec.Body.String(), `id="council-form"`)
	assert.NotContains(t, rec.Body.String(), `id="council-result"`)
	ai.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAPICouncil(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(jsonRequest("/api/council", `{"scenario":"x"}`))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"code":%d,"message":"unauthorized"}`, models.ErrCodeUnauthorized), rec.Body.String())
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.loggedIn()
		env.council.On("RunCouncilDebate", mock.Anything, session, "Solar", "").Return(sampleResponse(t), nil)

		rec := env.do(withSessionCookie(jsonRequest("/api/council", `{"scenario":"Solar"}`)))
		require.Equal(t, http.StatusOK, rec.Code)
		var got model.CouncilResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, sampleResponse(t), &got)
	})

	t.Run("upstream failure", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.loggedIn()
		env.council.On("RunCouncilDebate", mock.Anything, session, "Solar", "").Return(nil, fmt.Errorf("%w: boom", service.ErrCouncilFailed))

		rec := env.do(withSessionCookie(jsonRequest("/api/council", `{"scenario":"Solar"}`)))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), service.CouncilFailureMessage)
	})

	t.Run("input error", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.loggedIn()
		env.council.On("RunCouncilDebate", mock.Anything, session, "", "").Return(nil, service.ErrEmptyScenario)

		rec := env.do(withSessionCookie(jsonRequest("/api/council", `{"scenario":""}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), service.EmptyScenarioMessage)
	})

	t.Run("bad json", func(t *testing.T) {
		env := newTestEnv(t)
		env.loggedIn()
		rec := env.do(withSessionCookie(jsonRequest("/api/council", `{`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPIChat(t *testing.T) {
	history := []model.ChatTurn{
		{Sender: model.SenderBot, Text: model.ChatGreeting},
		{Sender: model.SenderUser, Text: "What is CSR?"},
		{Sender: model.SenderBot, Text: "Corporate social responsibility."},
	}

	t.Run("reply without login", func(t *testing.T) {
		env := newTestEnv(t)
		env.council.On("ChatReply", mock.Anything, (*models.Session)(nil), history, "And ESG?").Return("ESG adds governance.")

		body, err := json.Marshal(model.ChatRequest{History: history, Message: "And ESG?"})
		require.NoError(t, err)
		rec := env.do(jsonRequest("/api/chat", string(body)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"reply":"ESG adds governance."}`, rec.Body.String())
	})

	t.Run("empty message is ignored", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(jsonRequest("/api/chat", `{"history":[],"message":"  "}`))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("invalid sender", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(jsonRequest("/api/chat", `{"history":[{"sender":"model","text":"hi"}],"message":"q"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "history sender")
	})
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "The page you are looking for does not exist.")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})
	req := httptest.NewRequest(http.MethodGet, "http://council.local/ws/chat", nil)

	assert.True(t, check(req), "no origin header")
	req.Header.Set("Origin", "http://council.local")
	assert.True(t, check(req), "same host")
	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(req), "allowed origin")
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
}
