package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sustainability-council/internal/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// errAPIKeyMissing - ключ не задан. Сервер запускается, а каждый вызов завершается ошибкой.
var errAPIKeyMissing = fmt.Errorf("%w: api key not configured", ErrAIGenerationFailed)

// geminiClient реализует AIClient поверх google.golang.org/genai.
type geminiClient struct {
	// nil, если ключ не задан
	client *genai.Client
	model  string
	tokens TokenCounter
	logger *zap.Logger
}

var _ AIClient = (*geminiClient)(nil)

func newGeminiClient(ctx context.Context, cfg *config.Config, tokens TokenCounter, logger *zap.Logger) (AIClient, error) {
	c := &geminiClient{
		model:  cfg.AIModel,
		tokens: tokens,
		logger: logger.Named("GeminiClient"),
	}
	if cfg.AIAPIKey == "" {
		logger.Warn("AI API key is not set, Gemini calls will fail until it is configured")
		return c, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.AIAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.AITimeout},
	}
	if cfg.AIBaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.AIBaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	logger.Info("Gemini client created",
		zap.String("model", cfg.AIModel),
		zap.String("base_url", cfg.AIBaseURL),
		zap.Duration("timeout", cfg.AITimeout),
	)
	c.client = client
	return c, nil
}

func (c *geminiClient) Provider() string { return config.AIClientGemini }
func (c *geminiClient) Model() string    { return c.model }

func (c *geminiClient) GenerateText(ctx context.Context, userID string, systemPrompt string, messages []ChatMessage, opts GenerationOptions) (string, UsageInfo, error) {
	log := c.logger.With(zap.String("user_id", userID), zap.String("model", c.model))
	if err := validateRequest(systemPrompt, messages); err != nil {
		recordAIRequest(c.Provider(), c.model, "error", 0, UsageInfo{})
		return "", UsageInfo{}, err
	}
	if c.client == nil {
		log.Error("Gemini request skipped", zap.Error(errAPIKeyMissing))
		recordAIRequest(c.Provider(), c.model, "error", 0, UsageInfo{})
		return "", UsageInfo{}, errAPIKeyMissing
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		var role genai.Role = genai.RoleUser
		if m.Role == ChatRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       float32Ptr(opts.Params.Temperature),
		TopP:              float32Ptr(opts.Params.TopP),
	}
	if limit := intVal(opts.Params.MaxTokens); limit > 0 {
		genCfg.MaxOutputTokens = int32(limit)
	}
	if opts.ResponseSchema != nil {
		genCfg.ResponseMIMEType = "application/json"
		genCfg.ResponseSchema = toGenaiSchema(opts.ResponseSchema.Schema)
	}

	log.Debug("Sending request to Gemini", zap.Int("messages", len(contents)), zap.Int("system_prompt_bytes", len(systemPrompt)))
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	duration := time.Since(start)
	if err != nil {
		log.Error("Gemini request failed", zap.Duration("duration", duration), zap.Error(err))
		recordAIRequest(c.Provider(), c.model, "error", duration, UsageInfo{})
		return "", UsageInfo{}, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		log.Warn("Gemini returned an empty reply", zap.Duration("duration", duration))
		recordAIRequest(c.Provider(), c.model, "error_empty_response", duration, UsageInfo{})
		return "", UsageInfo{}, fmt.Errorf("%w: empty reply", ErrAIGenerationFailed)
	}

	var usage UsageInfo
	if md := resp.UsageMetadata; md != nil && md.TotalTokenCount > 0 {
		usage = UsageInfo{
			PromptTokens:     int(md.PromptTokenCount),
			CompletionTokens: int(md.CandidatesTokenCount),
			TotalTokens:      int(md.TotalTokenCount),
		}
	} else {
		usage = estimateUsage(c.tokens, systemPrompt, messages, text)
	}
	recordAIRequest(c.Provider(), c.model, "success", duration, usage)
	log.Info("Gemini reply received",
		zap.Duration("duration", duration),
		zap.Int("reply_bytes", len(text)),
		zap.Int("total_tokens", usage.TotalTokens),
	)
	return text, usage, nil
}

// toGenaiSchema переводит JSON-схему (как в schemas) в genai.Schema.
// Gemini не поддерживает additionalProperties, поэтому оно пропускается.
func toGenaiSchema(src map[string]interface{}) *genai.Schema {
	if src == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := src["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if d, ok := src["description"].(string); ok {
		s.Description = d
	}
	if items, ok := src["items"].(map[string]interface{}); ok {
		s.Items = toGenaiSchema(items)
	}
	if props, ok := src["properties"].(map[string]interface{}); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if p, ok := raw.(map[string]interface{}); ok {
				s.Properties[name] = toGenaiSchema(p)
			}
		}
	}
	switch req := src["required"].(type) {
	case []interface{}:
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	case []string:
		s.Required = append(s.Required, req...)
	}
	// Порядок полей в ответе совпадает с порядком required
	if len(s.Required) > 0 && len(s.Properties) > 0 {
		s.PropertyOrdering = append([]string(nil), s.Required...)
	}
	return s
}
