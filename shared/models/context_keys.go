package models

import "context"

// contextKey - приватный тип для ключей контекста, чтобы избежать коллизий.
type contextKey string

// SessionContextKey используется как ключ для хранения *Session в контексте запроса.
const SessionContextKey contextKey = "session"

// WithSession кладет сессию в контекст. Сессия передается дальше явно, а не через глобальное состояние.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, s)
}

// SessionFromContext извлекает сессию из контекста.
// Возвращает nil и false, если пользователь не вошел.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*Session)
	return s, ok && s != nil
}
