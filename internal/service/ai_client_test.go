package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sustainability-council/internal/config"
	"sustainability-council/internal/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var dialogue = []ChatMessage{
	{Role: ChatRoleAssistant, Content: "Hi! How can I help?"},
	{Role: ChatRoleUser, Content: "What is CSR?"},
}

func testConfig(clientType, baseURL string) *config.Config {
	return &config.Config{
		AIClientType: clientType,
		AIModel:      "test-model",
		AIBaseURL:    baseURL,
		AIAPIKey:     "test-key",
		AITimeout:    5 * time.Second,
	}
}

// fakeProvider сохраняет тело последнего запроса и отвечает фиксированным JSON.
func fakeProvider(t *testing.T, path string, reply string, lastBody *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path != "" && !strings.HasSuffix(r.URL.Path, path) {
			http.NotFound(w, r)
			return
		}
		data, _ := io.ReadAll(r.Body)
		if lastBody != nil {
			*lastBody = map[string]interface{}{}
			_ = json.Unmarshal(data, lastBody)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func roles(t *testing.T, body map[string]interface{}, key string) []string {
	t.Helper()
	raw, ok := body[key].([]interface{})
	require.True(t, ok, "request has %s", key)
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(map[string]interface{})["role"].(string))
	}
	return out
}

func TestNewAIClient_UnknownType(t *testing.T) {
	_, err := NewAIClient(context.Background(), testConfig("bard", ""), NewEstimatingCounter(), zap.NewNop())
	assert.ErrorContains(t, err, "unknown AI client type")
}

func TestOpenAIClient_GenerateText(t *testing.T) {
	var body map[string]interface{}
	srv := fakeProvider(t, "/chat/completions", `{
		"id": "chatcmpl-1", "object": "chat.completion", "model": "test-model",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "CSR means corporate social responsibility."}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
	}`, &body)

	client, err := NewAIClient(context.Background(), testConfig(config.AIClientOpenAI, srv.URL+"/v1"), NewEstimatingCounter(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Provider())

	text, usage, err := client.GenerateText(context.Background(), "u-1", schemas.ChatSystemPrompt, dialogue, GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "CSR means corporate social responsibility.", text)
	assert.Equal(t, UsageInfo{PromptTokens: 12, CompletionTokens: 7, TotalTokens: 19}, usage)
	assert.Equal(t, []string{"system", "assistant", "user"}, roles(t, body, "messages"))
	assert.NotContains(t, body, "response_format")
}

func TestOpenAIClient_SendsJSONSchema(t *testing.T) {
	var body map[string]interface{}
	srv := fakeProvider(t, "/chat/completions", `{
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "{}"}}]
	}`, &body)

	client, err := NewAIClient(context.Background(), testConfig(config.AIClientOpenAI, srv.URL+"/v1"), NewEstimatingCounter(), zap.NewNop())
	require.NoError(t, err)

	_, usage, err := client.GenerateText(context.Background(), "u-1", "system", dialogue[1:], GenerationOptions{
		ResponseSchema: &ResponseSchema{Name: schemas.CouncilSchemaName, Schema: schemas.CouncilResponseSchema()},
	})
	require.NoError(t, err)
	assert.True(t, usage.Estimated, "usage falls back to local estimate")

	format := body["response_format"].(map[string]interface{})
	assert.Equal(t, "json_schema", format["type"])
	jsonSchema := format["json_schema"].(map[string]interface{})
	assert.Equal(t, schemas.CouncilSchemaName, jsonSchema["name"])
	assert.Equal(t, true, jsonSchema["strict"])
}

func TestOpenAIClient_EmptyReplyIsError(t *testing.T) {
	srv := fakeProvider(t, "/chat/completions", `{"choices": []}`, nil)
	client, err := NewAIClient(context.Background(), testConfig(config.AIClientOpenAI, srv.URL+"/v1"), NewEstimatingCounter(), zap.NewNop())
	require.NoError(t, err)

	_, _, err = client.GenerateText(context.Background(), "u-1", "system", dialogue, GenerationOptions{})
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
}

func TestOllamaClient_GenerateText(t *testing.T) {
	var body map[string]interface{}
	srv := fakeProvider(t, "/api/chat", `{"model":"test-model","created_at":"2025-01-01T00:00:00Z","message":{"role":"assistant","content":"Local reply"},"done":true,"done_reason":"stop","prompt_eval_count":20,"eval_count":4}`, &body)

	client, err := NewAIClient(context.Background(), testConfig(config.AIClientOllama, srv.URL+"/v1/"), NewEstimatingCounter(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "ollama", client.Provider())

	text, usage, err := client.GenerateText(context.Background(), "u-1", "system", dialogue, GenerationOptions{
		ResponseSchema: &ResponseSchema{Name: schemas.CouncilSchemaName, Schema: schemas.CouncilResponseSchema()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Local reply", text)
	assert.Equal(t, 24, usage.TotalTokens)
	assert.Equal(t, []string{"system", "assistant", "user"}, roles(t, body, "messages"))
	assert.Equal(t, false, body["stream"])
	format, ok := body["format"].(map[string]interface{})
	require.True(t, ok, "format carries the schema object")
	assert.Equal(t, "object", format["type"])
}

func TestOllamaClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"model not loaded"}`)
	}))
	defer srv.Close()

	client, err := NewAIClient(context.Background(), testConfig(config.AIClientOllama, srv.URL), NewEstimatingCounter(), zap.NewNop())
	require.NoError(t, err)
	_, _, err = client.GenerateText(context.Background(), "u-1", "system", dialogue, GenerationOptions{})
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
}

func TestGeminiClient_GenerateText(t *testing.T) {
	var body map[string]interface{}
	srv := fakeProvider(t, ":generateContent", `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "Gemini reply"}]}, "finishReason": "STOP"}],
		"usageMetadata": {"promptTokenCount": 30, "candidatesTokenCount": 5, "totalTokenCount": 35}
	}`, &body)

	client, err := NewAIClient(context.Background(), testConfig(config.AIClientGemini, srv.URL+"/"), NewEstimatingCounter(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "gemini", client.Provider())

	text, usage, err := client.GenerateText(context.Background(), "u-1", "system", dialogue, GenerationOptions{
		ResponseSchema: &ResponseSchema{Name: schemas.CouncilSchemaName, Schema: schemas.CouncilResponseSchema()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Gemini reply", text)
	assert.Equal(t, 35, usage.TotalTokens)
	assert.Equal(t, []string{"model", "user"}, roles(t, body, "contents"))

	genCfg, ok := body["generationConfig"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
}

func TestGeminiClient_MissingAPIKey(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(config.AIClientGemini, srv.URL+"/")
	cfg.AIAPIKey = ""
	client, err := NewAIClient(context.Background(), cfg, NewEstimatingCounter(), zap.NewNop())
	require.NoError(t, err, "missing key must not stop the server from starting")
	require.NotNil(t, client)

	_, _, err = client.GenerateText(context.Background(), "u-1", "system", dialogue, GenerationOptions{})
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
	assert.Contains(t, err.Error(), "api key not configured")
	assert.Zero(t, calls)
}

func TestValidateRequest(t *testing.T) {
	assert.ErrorIs(t, validateRequest(" ", dialogue), ErrAIGenerationFailed)
	assert.ErrorIs(t, validateRequest("sys", nil), ErrAIGenerationFailed)
	assert.ErrorIs(t, validateRequest("sys", []ChatMessage{{Role: "bot", Content: "x"}}), ErrAIGenerationFailed)
	assert.NoError(t, validateRequest("sys", dialogue))
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(schemas.CouncilResponseSchema())
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"scenario_summary", "assumptions", "personas", "csr_assessment", "options_and_recommendation"}, s.Required)
	assert.Equal(t, s.Required, s.PropertyOrdering)

	personas := s.Properties["personas"]
	require.NotNil(t, personas)
	assert.Equal(t, genai.TypeArray, personas.Type)
	assert.Equal(t, genai.TypeObject, personas.Items.Type)
	assert.Equal(t, genai.TypeString, personas.Items.Properties["statement"].Type)
	assert.Contains(t, personas.Items.Properties["statement"].Description, "3–6 sentence")
}

func TestRetryDelay(t *testing.T) {
	s := &councilServiceImpl{baseRetryDelay: 100 * time.Millisecond}
	first := s.retryDelay(1)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond, "never below base")
	assert.LessOrEqual(t, first, 110*time.Millisecond)
	second := s.retryDelay(2)
	assert.GreaterOrEqual(t, second, 180*time.Millisecond)
	assert.LessOrEqual(t, second, 220*time.Millisecond)

	s.baseRetryDelay = 0
	assert.Zero(t, s.retryDelay(3))
}

func TestSleepCtx_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepCtx(ctx, time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcdefgh"))
	assert.Equal(t, 0, NewTiktokenCounter("gpt-4o").Count(""), "empty text never loads the encoding")
}
