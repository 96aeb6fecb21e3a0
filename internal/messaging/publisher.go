package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Виды событий использования.
const (
	EventKindCouncil = "council"
	EventKindChat    = "chat"
)

// Исходы вызова.
const (
	EventStatusSuccess       = "success"
	EventStatusFailed        = "failed"
	EventStatusInvalidInput  = "invalid_input"
	EventStatusFallbackReply = "fallback"
)

// UsageEvent - событие об одном вызове совета или чата.
// Текст сценария и сообщения в событие не попадают.
type UsageEvent struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	ScenarioType string    `json:"scenario_type,omitempty"`
	// ContractVersion - версия промта и схемы совета, с которой шел вызов
	ContractVersion string `json:"contract_version,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	TotalTokens  int       `json:"total_tokens,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// UsageEventPublisher публикует события использования.
type UsageEventPublisher interface {
	PublishUsageEvent(ctx context.Context, event UsageEvent) error
	Close() error
}

// amqpChannel - часть *amqp.Channel, нужная паблишеру.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// --- Реализация для RabbitMQ ---

type rabbitMQUsagePublisher struct {
	mu        sync.Mutex
	channel   amqpChannel
	queueName string
	timeout   time.Duration
	logger    *zap.Logger
}

var _ UsageEventPublisher = (*rabbitMQUsagePublisher)(nil)

// NewRabbitMQUsagePublisher открывает канал и объявляет durable очередь queueName.
func NewRabbitMQUsagePublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (UsageEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("usage publisher: open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("usage publisher: declare queue '%s': %w", queueName, err)
	}
	logger.Info("RabbitMQ usage publisher initialized", zap.String("queue", queueName))
	return newRabbitMQUsagePublisher(ch, queueName, logger), nil
}

func newRabbitMQUsagePublisher(ch amqpChannel, queueName string, logger *zap.Logger) *rabbitMQUsagePublisher {
	return &rabbitMQUsagePublisher{
		channel:   ch,
		queueName: queueName,
		timeout:   5 * time.Second,
		logger:    logger.Named("UsagePublisher"),
	}
}

func (p *rabbitMQUsagePublisher) PublishUsageEvent(ctx context.Context, event UsageEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal usage event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return errors.New("usage publisher is closed")
	}
	err = p.channel.PublishWithContext(ctx,
		"",          // exchange (default)
		p.queueName, // routing key = имя очереди
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Body:         body,
			Timestamp:    event.OccurredAt,
			AppId:        "sustainability-council",
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish usage event",
			zap.String("queue", p.queueName),
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
		return fmt.Errorf("publish to queue %s: %w", p.queueName, err)
	}
	p.logger.Debug("Usage event published",
		zap.String("event_id", event.ID.String()),
		zap.String("kind", event.Kind),
		zap.String("status", event.Status))
	return nil
}

func (p *rabbitMQUsagePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	return err
}

// --- Заглушка, когда RABBITMQ_URL не задан ---

type noopUsagePublisher struct{}

// NewNoopUsagePublisher возвращает паблишер, который ничего не отправляет.
func NewNoopUsagePublisher() UsageEventPublisher { return noopUsagePublisher{} }

func (noopUsagePublisher) PublishUsageEvent(context.Context, UsageEvent) error { return nil }
func (noopUsagePublisher) Close() error                                        { return nil }

// ConnectRabbitMQ подключается к брокеру с несколькими попытками.
func ConnectRabbitMQ(ctx context.Context, uri string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	var err error
	for i := 0; i < maxRetries; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Connected to RabbitMQ")
			go func() {
				notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))
				if closeErr := <-notifyClose; closeErr != nil {
					logger.Error("RabbitMQ connection lost", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		logger.Warn("Could not connect to RabbitMQ, retrying",
			zap.Error(err),
			zap.Int("retry", i+1),
			zap.Duration("delay", retryDelay),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}
