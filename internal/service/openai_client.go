package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sustainability-council/internal/config"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIClient реализует AIClient с использованием go-openai.
// Подходит и для OpenAI-совместимых шлюзов (через AI_BASE_URL).
type openAIClient struct {
	client *openaigo.Client
	model  string
	tokens TokenCounter
	logger *zap.Logger
}

var _ AIClient = (*openAIClient)(nil)

func newOpenAIClient(cfg *config.Config, tokens TokenCounter, logger *zap.Logger) AIClient {
	openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		openaiConfig.BaseURL = cfg.AIBaseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
	logger.Info("OpenAI client created",
		zap.String("model", cfg.AIModel),
		zap.String("base_url", openaiConfig.BaseURL),
		zap.Duration("timeout", cfg.AITimeout),
	)
	return &openAIClient{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  cfg.AIModel,
		tokens: tokens,
		logger: logger.Named("OpenAIClient"),
	}
}

func (c *openAIClient) Provider() string { return config.AIClientOpenAI }
func (c *openAIClient) Model() string    { return c.model }

func (c *openAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, messages []ChatMessage, opts GenerationOptions) (string, UsageInfo, error) {
	log := c.logger.With(zap.String("user_id", userID), zap.String("model", c.model))
	if err := validateRequest(systemPrompt, messages); err != nil {
		recordAIRequest(c.Provider(), c.model, "error", 0, UsageInfo{})
		return "", UsageInfo{}, err
	}

	chat := make([]openaigo.ChatCompletionMessage, 0, len(messages)+1)
	chat = append(chat, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt})
	for _, m := range messages {
		role := openaigo.ChatMessageRoleUser
		if m.Role == ChatRoleAssistant {
			role = openaigo.ChatMessageRoleAssistant
		}
		chat = append(chat, openaigo.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	req := openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chat,
		Temperature: float32Val(opts.Params.Temperature, 0),
		MaxTokens:   intVal(opts.Params.MaxTokens),
		TopP:        float32Val(opts.Params.TopP, 0),
	}
	if opts.ResponseSchema != nil {
		schemaJSON, err := json.Marshal(opts.ResponseSchema.Schema)
		if err != nil {
			return "", UsageInfo{}, fmt.Errorf("%w: marshal response schema: %v", ErrAIGenerationFailed, err)
		}
		req.ResponseFormat = &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openaigo.ChatCompletionResponseFormatJSONSchema{
				Name:   opts.ResponseSchema.Name,
				Schema: json.RawMessage(schemaJSON),
				Strict: true,
			},
		}
	}

	log.Debug("Sending request to OpenAI", zap.Int("messages", len(chat)))
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	if err != nil {
		log.Error("OpenAI request failed", zap.Duration("duration", duration), zap.Error(err))
		recordAIRequest(c.Provider(), c.model, "error", duration, UsageInfo{})
		return "", UsageInfo{}, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		log.Warn("OpenAI returned an empty reply", zap.Duration("duration", duration))
		recordAIRequest(c.Provider(), c.model, "error_empty_response", duration, UsageInfo{})
		return "", UsageInfo{}, fmt.Errorf("%w: empty reply", ErrAIGenerationFailed)
	}

	text := resp.Choices[0].Message.Content
	usage := UsageInfo{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(c.tokens, systemPrompt, messages, text)
	}
	recordAIRequest(c.Provider(), c.model, "success", duration, usage)
	log.Info("OpenAI reply received",
		zap.Duration("duration", duration),
		zap.Int("reply_bytes", len(text)),
		zap.Int("total_tokens", usage.TotalTokens),
	)
	return text, usage, nil
}
