package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"sustainability-council/internal/config"
	"sustainability-council/internal/messaging"
	"sustainability-council/internal/model"
	"sustainability-council/internal/schemas"
	models "sustainability-council/shared/models"

	"go.uber.org/zap"
)

// Тексты, которые видит пользователь при сбое.
const (
	CouncilFailureMessage = "Failed to get a response from the AI council. Please check your API key and try again."
	ChatApology           = "I'm sorry, I'm having trouble connecting right now. Please try again later."
	EmptyScenarioMessage  = "Please describe your scenario before running the council."
)

var (
	ErrEmptyScenario       = errors.New("scenario is empty")
	ErrUnknownScenarioType = errors.New("unknown scenario type")
	ErrScenarioTooLong     = errors.New("scenario is too long")
	// ErrCouncilFailed оборачивает любой сбой внешнего вызова или контракта.
	ErrCouncilFailed = errors.New("council call failed")
)

// IsInputError сообщает, что ошибка вызвана вводом пользователя и модель не вызывалась.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyScenario) || errors.Is(err, ErrUnknownScenarioType) || errors.Is(err, ErrScenarioTooLong)
}

// CouncilService - два исходящих вызова приложения: совет и чат-ассистент.
type CouncilService interface {
	// RunCouncilDebate проверяет ввод, вызывает модель и возвращает проверенный по схеме ответ.
	RunCouncilDebate(ctx context.Context, session *models.Session, scenario, scenarioType string) (*model.CouncilResponse, error)
	// ChatReply никогда не возвращает ошибку: при сбое отдается ChatApology.
	// Пустое сообщение игнорируется, результат пустой.
	ChatReply(ctx context.Context, session *models.Session, history []model.ChatTurn, message string) string
}

type councilServiceImpl struct {
	ai                AIClient
	publisher         messaging.UsageEventPublisher
	tokens            TokenCounter
	logger            *zap.Logger
	timeout           time.Duration
	maxAttempts       int
	baseRetryDelay    time.Duration
	maxScenarioTokens int
	temperature       *float64
}

var _ CouncilService = (*councilServiceImpl)(nil)

// NewCouncilService создает сервис совета.
func NewCouncilService(
	cfg *config.Config,
	ai AIClient,
	publisher messaging.UsageEventPublisher,
	tokens TokenCounter,
	logger *zap.Logger,
) CouncilService {
	if publisher == nil {
		publisher = messaging.NewNoopUsagePublisher()
	}
	if tokens == nil {
		tokens = NewTiktokenCounter(cfg.AIModel)
	}
	temperature, err := cfg.Temperature()
	if err != nil {
		logger.Warn("Ignoring invalid AI temperature", zap.Error(err))
	}
	maxAttempts := cfg.AIMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &councilServiceImpl{
		ai:                ai,
		publisher:         publisher,
		tokens:            tokens,
		logger:            logger.Named("CouncilService"),
		timeout:           cfg.AITimeout,
		maxAttempts:       maxAttempts,
		baseRetryDelay:    cfg.AIBaseRetryDelay,
		maxScenarioTokens: cfg.MaxScenarioTokens,
		temperature:       temperature,
	}
}

func (s *councilServiceImpl) RunCouncilDebate(ctx context.Context, session *models.Session, scenario, scenarioType string) (*model.CouncilResponse, error) {
	userID := sessionUserID(session)
	log := s.logger.With(zap.String("user_id", userID), zap.String("scenario_type", scenarioType))

	if strings.TrimSpace(scenario) == "" {
		councilRunsTotal.WithLabelValues(scenarioTypeLabel(scenarioType), messaging.EventStatusInvalidInput).Inc()
		return nil, ErrEmptyScenario
	}
	if scenarioType == "" {
		scenarioType = model.DefaultScenarioType()
	}
	if !model.IsScenarioType(scenarioType) {
		councilRunsTotal.WithLabelValues("unknown", messaging.EventStatusInvalidInput).Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenarioType, scenarioType)
	}
	if s.maxScenarioTokens > 0 {
		if n := s.tokens.Count(scenario); n > s.maxScenarioTokens {
			councilRunsTotal.WithLabelValues(scenarioType, messaging.EventStatusInvalidInput).Inc()
			return nil, fmt.Errorf("%w: %d tokens, limit %d", ErrScenarioTooLong, n, s.maxScenarioTokens)
		}
	}

	messages := []ChatMessage{{Role: ChatRoleUser, Content: schemas.CouncilUserPrompt(scenarioType, scenario)}}
	opts := GenerationOptions{
		Params: GenerationParams{Temperature: s.temperature},
		ResponseSchema: &ResponseSchema{
			Name:   schemas.CouncilSchemaName,
			Schema: schemas.CouncilResponseSchema(),
		},
	}

	start := time.Now()
	var (
		resp    *model.CouncilResponse
		usage   UsageInfo
		lastErr error
	)
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := s.retryDelay(attempt - 1)
			log.Info("Retrying council call", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(lastErr))
			if err := sleepCtx(ctx, wait); err != nil {
				lastErr = err
				break
			}
		}
		resp, usage, lastErr = s.callCouncil(ctx, userID, messages, opts)
		if lastErr == nil {
			break
		}
		log.Warn("Council call attempt failed", zap.Int("attempt", attempt), zap.Int("max_attempts", s.maxAttempts), zap.Error(lastErr))
		if ctx.Err() != nil {
			break
		}
	}
	duration := time.Since(start)

	event := messaging.UsageEvent{
		Kind:            messaging.EventKindCouncil,
		ScenarioType:    scenarioType,
		ContractVersion: schemas.CouncilContractVersion,
		Provider:        s.ai.Provider(),
		Model:           s.ai.Model(),
		UserID:          userID,
		DurationMs:      duration.Milliseconds(),
		TotalTokens:     usage.TotalTokens,
	}
	if lastErr != nil {
		councilRunsTotal.WithLabelValues(scenarioType, messaging.EventStatusFailed).Inc()
		event.Status = messaging.EventStatusFailed
		s.publish(ctx, event)
		log.Error("Council debate failed",
			zap.Duration("duration", duration),
			zap.String("contract_version", schemas.CouncilContractVersion),
			zap.Error(lastErr))
		return nil, fmt.Errorf("%w: %v", ErrCouncilFailed, lastErr)
	}

	if resp.OptionsAndRecommendation.RecommendedIndex() < 0 {
		councilRecommendationMismatchTotal.Inc()
		log.Warn("Recommended option matches none of the option summaries",
			zap.String("recommended_option", resp.OptionsAndRecommendation.RecommendedOption.OptionName),
			zap.Int("options", len(resp.OptionsAndRecommendation.OptionSummaries)))
	}

	councilRunsTotal.WithLabelValues(scenarioType, messaging.EventStatusSuccess).Inc()
	event.Status = messaging.EventStatusSuccess
	s.publish(ctx, event)
	log.Info("Council debate completed",
		zap.Duration("duration", duration),
		zap.String("contract_version", schemas.CouncilContractVersion),
		zap.Int("personas", len(resp.Personas)),
		zap.Int("total_tokens", usage.TotalTokens))
	return resp, nil
}

// callCouncil - одна попытка: вызов модели с таймаутом и разбор ответа по контракту.
func (s *councilServiceImpl) callCouncil(ctx context.Context, userID string, messages []ChatMessage, opts GenerationOptions) (*model.CouncilResponse, UsageInfo, error) {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, usage, err := s.ai.GenerateText(callCtx, userID, schemas.CouncilSystemPrompt(), messages, opts)
	if err != nil {
		return nil, usage, err
	}
	resp, err := schemas.ParseCouncilResponse(raw)
	if err != nil {
		return nil, usage, err
	}
	return resp, usage, nil
}

func (s *councilServiceImpl) ChatReply(ctx context.Context, session *models.Session, history []model.ChatTurn, message string) string {
	if strings.TrimSpace(message) == "" {
		return ""
	}
	userID := sessionUserID(session)
	log := s.logger.With(zap.String("user_id", userID))

	messages := make([]ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		role := ChatRoleUser
		if turn.Sender == model.SenderBot {
			role = ChatRoleAssistant
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: message})

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	reply, usage, err := s.ai.GenerateText(callCtx, userID, schemas.ChatSystemPrompt, messages, GenerationOptions{
		Params: GenerationParams{Temperature: s.temperature},
	})
	event := messaging.UsageEvent{
		Kind:        messaging.EventKindChat,
		Provider:    s.ai.Provider(),
		Model:       s.ai.Model(),
		UserID:      userID,
		DurationMs:  time.Since(start).Milliseconds(),
		TotalTokens: usage.TotalTokens,
	}
	if err != nil {
		chatRepliesTotal.WithLabelValues(messaging.EventStatusFallbackReply).Inc()
		event.Status = messaging.EventStatusFallbackReply
		s.publish(ctx, event)
		log.Error("Chat reply failed, sending apology", zap.Int("history_turns", len(history)), zap.Error(err))
		return ChatApology
	}
	chatRepliesTotal.WithLabelValues(messaging.EventStatusSuccess).Inc()
	event.Status = messaging.EventStatusSuccess
	s.publish(ctx, event)
	return strings.TrimSpace(reply)
}

func (s *councilServiceImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// retryDelay - экспоненциальная задержка с джиттером ±10%, не меньше базовой.
func (s *councilServiceImpl) retryDelay(retry int) time.Duration {
	if s.baseRetryDelay <= 0 {
		return 0
	}
	delay := float64(s.baseRetryDelay) * math.Pow(2, float64(retry-1))
	jitter := delay * 0.1
	delay += jitter * (rand.Float64()*2 - 1)
	wait := time.Duration(delay)
	if wait < s.baseRetryDelay {
		wait = s.baseRetryDelay
	}
	return wait
}

// publish отправляет событие использования. Ошибки только логируются.
func (s *councilServiceImpl) publish(ctx context.Context, event messaging.UsageEvent) {
	// Событие отправляем даже если запрос клиента уже отменен
	pubCtx := context.WithoutCancel(ctx)
	if err := s.publisher.PublishUsageEvent(pubCtx, event); err != nil {
		s.logger.Warn("Failed to publish usage event", zap.String("kind", event.Kind), zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func sessionUserID(session *models.Session) string {
	if session == nil {
		return ""
	}
	return session.User.ID
}

func scenarioTypeLabel(t string) string {
	if model.IsScenarioType(t) {
		return t
	}
	if t == "" {
		return model.DefaultScenarioType()
	}
	return "unknown"
}
