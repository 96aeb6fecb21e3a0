package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// User - пользователь, представившийся по имени. Учетных данных нет.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Initials возвращает инициалы для аватара в навбаре: первые буквы первых двух слов.
func (u User) Initials() string {
	var b strings.Builder
	for _, word := range strings.Fields(u.Name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		if b.Len() > 0 && utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// Session - явный контекст сессии.
// Создается при Login, удаляется при Logout или по истечении ExpiresAt.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired сообщает, истекла ли сессия к моменту now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
