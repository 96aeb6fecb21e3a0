// Package auth - вход по имени без проверки учетных данных.
// Сессия хранится в SessionStore, клиенту выдается подписанный HS256 JWT с id сессии.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	models "sustainability-council/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxNameLength - ограничение длины имени, введенного в модальном окне.
const MaxNameLength = 100

// Authenticator - вход, выход и определение текущего пользователя.
type Authenticator interface {
	// Login создает сессию для непустого имени и возвращает ее вместе с токеном для cookie.
	Login(ctx context.Context, name string) (*models.Session, string, error)
	// Logout удаляет сессию токена. Недействительный токен не считается ошибкой.
	Logout(ctx context.Context, token string) error
	// CurrentUser возвращает сессию по токену.
	CurrentUser(ctx context.Context, token string) (*models.Session, error)
}

// sessionClaims - содержимое JWT. jti = id сессии, sub = id пользователя.
type sessionClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type nameAuthenticator struct {
	store  SessionStore
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

var _ Authenticator = (*nameAuthenticator)(nil)

// NewAuthenticator создает Authenticator. jwtKey обычно берется из DeriveKeys.
func NewAuthenticator(store SessionStore, jwtKey []byte, ttl time.Duration, logger *zap.Logger) (Authenticator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if len(jwtKey) == 0 {
		return nil, errors.New("jwt key cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &nameAuthenticator{
		store:  store,
		key:    jwtKey,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("Authenticator"),
	}, nil
}

func (a *nameAuthenticator) Login(ctx context.Context, name string) (*models.Session, string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, "", models.ErrInvalidName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, "", fmt.Errorf("%w: name is longer than %d characters", models.ErrInvalidInput, MaxNameLength)
	}

	now := a.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		User:      models.User{ID: uuid.NewString(), Name: name},
		CreatedAt: now,
	}
	if a.ttl > 0 {
		session.ExpiresAt = now.Add(a.ttl)
	}

	if err := a.store.Save(ctx, session); err != nil {
		a.logger.Error("Failed to save session", zap.Error(err))
		return nil, "", fmt.Errorf("save session: %w", err)
	}

	claims := sessionClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       session.ID,
			Subject:  session.User.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if !session.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(session.ExpiresAt)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		_ = a.store.Delete(ctx, session.ID)
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}

	a.logger.Info("User logged in", zap.String("user_id", session.User.ID), zap.String("session_id", session.ID))
	return session, token, nil
}

func (a *nameAuthenticator) Logout(ctx context.Context, token string) error {
	claims, err := a.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		a.logger.Debug("Logout with unusable token", zap.Error(err))
		return nil
	}
	if err := a.store.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	a.logger.Info("User logged out", zap.String("user_id", claims.Subject), zap.String("session_id", claims.ID))
	return nil
}

func (a *nameAuthenticator) CurrentUser(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, models.ErrUnauthorized
	}
	claims, err := a.parse(token)
	if err != nil {
		return nil, err
	}
	session, err := a.store.Get(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if session.Expired(a.now()) {
		_ = a.store.Delete(ctx, session.ID)
		return nil, models.ErrSessionExpired
	}
	return session, nil
}

func (a *nameAuthenticator) parse(token string, opts ...jwt.ParserOption) (*sessionClaims, error) {
	opts = append(opts, jwt.WithTimeFunc(a.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.key, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, fmt.Errorf("%w: session id missing", models.ErrTokenInvalid)
	}
	return claims, nil
}
