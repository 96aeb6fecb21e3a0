package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sustainability-council/internal/config"

	"go.uber.org/zap"
)

// ErrAIGenerationFailed - ошибка при генерации текста AI
var ErrAIGenerationFailed = errors.New("ai generation failed")

// Роли сообщений, общие для всех провайдеров. Каждый клиент переводит их в свои.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage - одно сообщение диалога без системной инструкции.
type ChatMessage struct {
	Role    string
	Content string
}

// GenerationParams - параметры генерации. Указатели отличают 0 от "не задано".
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// ResponseSchema просит провайдера вернуть JSON строго по схеме.
type ResponseSchema struct {
	Name   string
	Schema map[string]interface{}
}

// GenerationOptions объединяет параметры и необязательную схему ответа.
type GenerationOptions struct {
	Params GenerationParams
	// nil - обычный текстовый ответ
	ResponseSchema *ResponseSchema
}

// UsageInfo содержит информацию об использовании токенов.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool // true, если провайдер не вернул usage и токены посчитаны локально
}

// AIClient интерфейс для взаимодействия с провайдером модели.
type AIClient interface {
	// GenerateText отправляет системную инструкцию и сообщения по порядку и возвращает ответ модели.
	GenerateText(ctx context.Context, userID string, systemPrompt string, messages []ChatMessage, opts GenerationOptions) (string, UsageInfo, error)
	// Provider возвращает имя провайдера (gemini, openai, ollama).
	Provider() string
	// Model возвращает идентификатор модели.
	Model() string
}

// NewAIClient создает клиент выбранного провайдера.
func NewAIClient(ctx context.Context, cfg *config.Config, tokens TokenCounter, logger *zap.Logger) (AIClient, error) {
	if tokens == nil {
		tokens = NewTiktokenCounter(cfg.AIModel)
	}
	switch strings.ToLower(cfg.AIClientType) {
	case config.AIClientGemini:
		logger.Info("Using AI client implementation: Gemini")
		return newGeminiClient(ctx, cfg, tokens, logger)
	case config.AIClientOpenAI:
		logger.Info("Using AI client implementation: OpenAI")
		return newOpenAIClient(cfg, tokens, logger), nil
	case config.AIClientOllama:
		logger.Info("Using AI client implementation: Ollama")
		return newOllamaClient(cfg, tokens, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type: %s", cfg.AIClientType)
	}
}

// validateRequest - общие проверки до сетевого вызова.
func validateRequest(systemPrompt string, messages []ChatMessage) error {
	if strings.TrimSpace(systemPrompt) == "" {
		return fmt.Errorf("%w: system prompt is empty", ErrAIGenerationFailed)
	}
	if len(messages) == 0 {
		return fmt.Errorf("%w: no messages to send", ErrAIGenerationFailed)
	}
	for i, m := range messages {
		if m.Role != ChatRoleUser && m.Role != ChatRoleAssistant {
			return fmt.Errorf("%w: message %d has unsupported role %q", ErrAIGenerationFailed, i, m.Role)
		}
	}
	return nil
}

// estimateUsage считает токены локально, когда провайдер не вернул usage.
func estimateUsage(tokens TokenCounter, systemPrompt string, messages []ChatMessage, completion string) UsageInfo {
	prompt := tokens.Count(systemPrompt)
	for _, m := range messages {
		prompt += tokens.Count(m.Content)
	}
	out := tokens.Count(completion)
	return UsageInfo{PromptTokens: prompt, CompletionTokens: out, TotalTokens: prompt + out, Estimated: true}
}

func float32Ptr(f64 *float64) *float32 {
	if f64 == nil {
		return nil
	}
	f32 := float32(*f64)
	return &f32
}

func float32Val(f64 *float64, fallback float32) float32 {
	if f64 == nil {
		return fallback
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0 // 0 - без лимита
	}
	return *i
}
