package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sustainability-council/internal/config"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const defaultOllamaURL = "http://localhost:11434"

// ollamaClient реализует AIClient с использованием ollama/api (нативный /api/chat).
type ollamaClient struct {
	client *api.Client
	model  string
	tokens TokenCounter
	logger *zap.Logger
}

var _ AIClient = (*ollamaClient)(nil)

func newOllamaClient(cfg *config.Config, tokens TokenCounter, logger *zap.Logger) (AIClient, error) {
	base := cfg.AIBaseURL
	if base == "" {
		base = defaultOllamaURL
	}
	// api.NewClient требует URL без суффикса /v1
	base = strings.TrimSuffix(strings.TrimSuffix(base, "/"), "/v1")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url %q: %w", base, err)
	}
	logger.Info("Ollama client created",
		zap.String("model", cfg.AIModel),
		zap.String("base_url", base),
		zap.Duration("timeout", cfg.AITimeout),
	)
	return &ollamaClient{
		client: api.NewClient(parsed, &http.Client{Timeout: cfg.AITimeout}),
		model:  cfg.AIModel,
		tokens: tokens,
		logger: logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) Provider() string { return config.AIClientOllama }
func (c *ollamaClient) Model() string    { return c.model }

func (c *ollamaClient) GenerateText(ctx context.Context, userID string, systemPrompt string, messages []ChatMessage, opts GenerationOptions) (string, UsageInfo, error) {
	log := c.logger.With(zap.String("user_id", userID), zap.String("model", c.model))
	if err := validateRequest(systemPrompt, messages); err != nil {
		recordAIRequest(c.Provider(), c.model, "error", 0, UsageInfo{})
		return "", UsageInfo{}, err
	}

	chat := make([]api.Message, 0, len(messages)+1)
	chat = append(chat, api.Message{Role: "system", Content: systemPrompt})
	for _, m := range messages {
		chat = append(chat, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	options := map[string]interface{}{}
	if opts.Params.Temperature != nil {
		options["temperature"] = *opts.Params.Temperature
	}
	if opts.Params.TopP != nil {
		options["top_p"] = *opts.Params.TopP
	}
	if limit := intVal(opts.Params.MaxTokens); limit > 0 {
		options["num_predict"] = limit
	}
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: chat,
		Stream:   &stream,
		Options:  options,
	}
	if opts.ResponseSchema != nil {
		schemaJSON, err := json.Marshal(opts.ResponseSchema.Schema)
		if err != nil {
			return "", UsageInfo{}, fmt.Errorf("%w: marshal response schema: %v", ErrAIGenerationFailed, err)
		}
		req.Format = json.RawMessage(schemaJSON)
	}

	log.Debug("Sending request to Ollama", zap.Int("messages", len(chat)))
	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)
	if err != nil {
		log.Error("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		recordAIRequest(c.Provider(), c.model, "error", duration, UsageInfo{})
		return "", UsageInfo{}, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	text := resp.Message.Content
	if strings.TrimSpace(text) == "" {
		log.Warn("Ollama returned an empty reply", zap.Duration("duration", duration))
		recordAIRequest(c.Provider(), c.model, "error_empty_response", duration, UsageInfo{})
		return "", UsageInfo{}, fmt.Errorf("%w: empty reply", ErrAIGenerationFailed)
	}

	usage := UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(c.tokens, systemPrompt, messages, text)
	}
	recordAIRequest(c.Provider(), c.model, "success", duration, usage)
	log.Info("Ollama reply received",
		zap.Duration("duration", duration),
		zap.Int("reply_bytes", len(text)),
		zap.Int("total_tokens", usage.TotalTokens),
	)
	return text, usage, nil
}
