package service

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter оценивает число токенов в тексте.
type TokenCounter interface {
	Count(text string) int
}

// tiktokenCounter лениво загружает кодировку модели. Для моделей,
// которых tiktoken не знает (Gemini, локальные), используется cl100k_base.
// Если кодировку загрузить не удалось (нет сети), считаем ~4 символа на токен.
type tiktokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

// NewTiktokenCounter создает счетчик токенов для модели.
func NewTiktokenCounter(model string) TokenCounter {
	return &tiktokenCounter{model: model}
}

func (c *tiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateTokens - грубая оценка без словаря.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// runeCounter - счетчик без внешних зависимостей, используется в тестах.
type runeCounter struct{}

func (runeCounter) Count(text string) int { return EstimateTokens(text) }

// NewEstimatingCounter возвращает счетчик, который не обращается к словарям tiktoken.
func NewEstimatingCounter() TokenCounter { return runeCounter{} }
