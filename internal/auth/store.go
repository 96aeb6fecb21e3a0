package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	models "sustainability-council/shared/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionStore хранит активные сессии. Сессия без записи в хранилище недействительна,
// даже если ее JWT еще не истек.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	// Get возвращает models.ErrSessionNotFound, если сессии нет.
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// --- In-memory ---

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

var _ SessionStore = (*memorySessionStore)(nil)

// NewMemorySessionStore - хранилище в памяти процесса. Сессии теряются при перезапуске.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]models.Session), now: time.Now}
}

func (s *memorySessionStore) Save(_ context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	s.evictExpiredLocked()
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || session.Expired(s.now()) {
		return nil, models.ErrSessionNotFound
	}
	return &session, nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *memorySessionStore) evictExpiredLocked() {
	now := s.now()
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
		}
	}
}

// --- Redis ---

const redisSessionKeyPrefix = "council_session:"

type redisSessionStore struct {
	client *redis.Client
	logger *zap.Logger
}

var _ SessionStore = (*redisSessionStore)(nil)

// NewRedisSessionStore - хранилище сессий в Redis, TTL ключа равен сроку жизни сессии.
func NewRedisSessionStore(client *redis.Client, logger *zap.Logger) SessionStore {
	return &redisSessionStore{
		client: client,
		logger: logger.Named("RedisSessionStore"),
	}
}

func sessionKey(id string) string {
	return redisSessionKeyPrefix + id
}

func (s *redisSessionStore) Save(ctx context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session id is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return models.ErrSessionExpired
		}
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, ttl).Err(); err != nil {
		s.logger.Error("Failed to save session in redis", zap.String("session_id", session.ID), zap.Error(err))
		return fmt.Errorf("failed to save session in redis: %w", err)
	}
	s.logger.Debug("Session saved", zap.String("session_id", session.ID), zap.Duration("ttl", ttl))
	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		s.logger.Error("Failed to read session from redis", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to read session from redis: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		s.logger.Error("Failed to delete session from redis", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}
